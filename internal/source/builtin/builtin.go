// Package builtin serves the corpus embedded in the binary.
package builtin

import (
	"bytes"
	"context"
	"io"

	"github.com/crimson-sun/iconclass/internal/corpus"
	"github.com/crimson-sun/iconclass/internal/source"
)

func init() {
	source.Register("builtin", func(source.Config) source.Source { return Source{} })
}

// Source ignores the location and returns the built-in corpus.
type Source struct{}

func (Source) Open(_ context.Context, _ string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(corpus.Default())), nil
}
