// Package source resolves a configured corpus location to a byte stream.
// Implementations register themselves under a URL scheme.
package source

import (
	"context"
	"io"
	"net/url"
	"strings"
	"time"
)

// Source opens a corpus location for reading.
type Source interface {
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}

// Config holds settings shared by all sources.
type Config struct {
	Token   string        // bearer token for remote sources
	Timeout time.Duration // per-request timeout for remote sources
}

// Scheme returns the registry key for location. Bare paths map to "file".
func Scheme(location string) string {
	if location == "" {
		return "builtin"
	}
	if u, err := url.Parse(location); err == nil && len(u.Scheme) > 1 {
		return strings.ToLower(u.Scheme)
	}
	// "C:\corpus.txt" parses with scheme "c"; treat single letters as paths.
	return "file"
}
