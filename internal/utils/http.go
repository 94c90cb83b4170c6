package utils

import (
	"io"
	"log/slog"
)

// HeaderOption is an extra HTTP header applied to an outgoing request after
// the defaults, so it may override Authorization or Content-Type.
type HeaderOption struct {
	Key   string
	Value string
}

// CloseWithLog closes c and logs, but otherwise ignores, any close error.
// It is meant for deferred cleanup of response bodies and files where the
// primary error of the surrounding function must not be overridden.
func CloseWithLog(c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		slog.Warn("failed to close", "error", err.Error())
	}
}
