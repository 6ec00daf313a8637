// Package remote fetches a corpus over HTTP(S).
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/crimson-sun/iconclass/internal/source"
	"github.com/crimson-sun/iconclass/internal/source/httpclient"
)

func init() {
	ctor := func(cfg source.Config) source.Source { return New(cfg) }
	source.Register("http", ctor)
	source.Register("https", ctor)
}

// Source downloads the whole corpus before handing it to the reader.
type Source struct {
	client *httpclient.Client
}

// New creates a remote Source using cfg's token and timeout.
func New(cfg source.Config, opts ...httpclient.Option) *Source {
	opts = append([]httpclient.Option{httpclient.WithTimeout(cfg.Timeout)}, opts...)
	return &Source{client: httpclient.New(cfg.Token, opts...)}
}

func (s *Source) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	body, err := s.client.Get(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("remote source: %w", err)
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}
