package stdout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/crimson-sun/iconclass/internal/model"
	"github.com/crimson-sun/iconclass/internal/output"
)

// Option configures a stdout Output.
type Option func(*Output)

// WithWriter redirects output away from os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(o *Output) { o.w = w }
}

// Output writes JSON-encoded predictions, one per line, to stdout.
type Output struct {
	mu      sync.Mutex
	w       io.Writer
	enc     *json.Encoder
	verbose bool
}

// New creates a stdout Output. verbose keeps scores; pretty indents each
// prediction.
func New(verbose, pretty bool, opts ...Option) *Output {
	o := &Output{w: os.Stdout, verbose: verbose}
	for _, opt := range opts {
		opt(o)
	}
	o.enc = json.NewEncoder(o.w)
	o.enc.SetEscapeHTML(false)
	if pretty {
		o.enc.SetIndent("", "  ")
	}
	return o
}

func (o *Output) Write(_ context.Context, p model.Prediction) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.enc.Encode(output.FormatPrediction(p, o.verbose)); err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}
	return nil
}

func (o *Output) Close() error {
	return nil
}
