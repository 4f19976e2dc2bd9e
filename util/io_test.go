package util

import (
	"errors"
	"io"
	"net"
	"os"
	"strings"
	"testing"
	"testing/iotest"
)

func TestIsClosed(t *testing.T) {
	if !IsClosed(nil) {
		t.Error("nil should count as closed")
	}
	if !IsClosed(io.EOF) {
		t.Error("io.EOF should count as closed")
	}
	if !IsClosed(net.ErrClosed) {
		t.Error("net.ErrClosed should count as closed")
	}
	if !IsClosed(os.ErrClosed) {
		t.Error("os.ErrClosed should count as closed")
	}
	if !IsClosed(&net.OpError{Op: "read", Err: net.ErrClosed}) {
		t.Error("OpError wrapping net.ErrClosed should count as closed")
	}
	if IsClosed(io.ErrUnexpectedEOF) {
		t.Error("ErrUnexpectedEOF should NOT count as closed")
	}
	if IsClosed(errors.New("connection reset by peer")) {
		t.Error("arbitrary errors should NOT count as closed")
	}
}

func TestReadChunks_DeliversEverything(t *testing.T) {
	src := strings.NewReader("PING :a\r\nPING :b\r\n")

	var got strings.Builder
	err := ReadChunks(iotest.OneByteReader(src), func(p []byte) {
		got.Write(p)
	})
	if err != io.EOF {
		t.Fatalf("err = %v, want io.EOF", err)
	}
	if got.String() != "PING :a\r\nPING :b\r\n" {
		t.Errorf("got %q", got.String())
	}
}

func TestReadChunks_DataThenError(t *testing.T) {
	boom := errors.New("boom")
	r := iotest.DataErrReader(io.MultiReader(strings.NewReader("abc"), iotest.ErrReader(boom)))

	var got []byte
	err := ReadChunks(r, func(p []byte) { got = append(got, p...) })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if string(got) != "abc" {
		t.Errorf("got %q, want %q", got, "abc")
	}
}
