// Package file reads a corpus from the local filesystem.
package file

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/crimson-sun/iconclass/internal/source"
)

func init() {
	source.Register("file", func(source.Config) source.Source { return Source{} })
}

// Source opens bare paths and file:// URLs.
type Source struct{}

func (Source) Open(_ context.Context, location string) (io.ReadCloser, error) {
	path := location
	if u, err := url.Parse(location); err == nil && u.Scheme == "file" {
		path = u.Path
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("file source: %w", err)
	}
	return f, nil
}
