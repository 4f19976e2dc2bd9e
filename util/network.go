package util

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// FormatAddr returns "host:port".
func FormatAddr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// SplitServer parses "host", "host:port", "[v6]" or "[v6]:port".  When
// no port is present defPort is returned.
func SplitServer(spec string, defPort int) (host string, port int, err error) {
	if spec == "" {
		return "", 0, fmt.Errorf("empty server address")
	}

	h, p, splitErr := net.SplitHostPort(spec)
	if splitErr != nil {
		// No port: bare host or bracketed IPv6 literal.
		h = strings.TrimSuffix(strings.TrimPrefix(spec, "["), "]")
		if strings.Contains(h, "]") || strings.Contains(h, "[") {
			return "", 0, fmt.Errorf("invalid server address %q", spec)
		}
		if h == "" {
			return "", 0, fmt.Errorf("invalid server address %q", spec)
		}
		return h, defPort, nil
	}

	if h == "" {
		return "", 0, fmt.Errorf("server address %q has no host", spec)
	}
	port, err = strconv.Atoi(p)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port %q", p)
	}
	return h, port, nil
}
