package util

import "sync"

// ReadBufSize is the chunk size used when pulling bytes off the network
// or the local input source.  IRC lines are capped at 512 bytes by
// convention, so a few KiB holds several of them per read.
const ReadBufSize = 4 * 1024

// BufPool provides reusable read buffers for the transport driver and
// the local input reader.
var BufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, ReadBufSize)
		return &buf
	},
}

// GetBuf retrieves a buffer from the pool.  Callers must return it
// with [PutBuf] when finished.
func GetBuf() *[]byte {
	return BufPool.Get().(*[]byte)
}

// PutBuf returns a buffer to the pool for reuse.
func PutBuf(buf *[]byte) {
	if buf == nil {
		return
	}
	BufPool.Put(buf)
}
