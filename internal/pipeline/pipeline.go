// Package pipeline classifies a stream of newline-separated queries and
// writes each prediction to an output.
package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/crimson-sun/iconclass/internal/model"
	"github.com/crimson-sun/iconclass/internal/output"
)

const maxLineBytes = 64 * 1024

// Classifier is the subset of the engine the pipeline needs.
type Classifier interface {
	Classify(ctx context.Context, query string) model.Prediction
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithBatchID sets the prefix of generated request IDs. Default: a random UUID.
func WithBatchID(id string) Option {
	return func(p *Pipeline) { p.batchID = id }
}

// Pipeline connects a classifier to an output.
type Pipeline struct {
	classifier Classifier
	output     output.Output
	batchID    string
}

// New creates a Pipeline from the given components.
func New(cls Classifier, out output.Output, opts ...Option) *Pipeline {
	p := &Pipeline{
		classifier: cls,
		output:     out,
		batchID:    uuid.NewString(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run classifies every non-empty line of r. Each prediction gets the request
// ID "<batch>-<line>". Run stops at the first output error or when ctx is
// cancelled and returns the number of predictions written.
func (p *Pipeline) Run(ctx context.Context, r io.Reader) (int, error) {
	start := time.Now()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLineBytes)

	written, lineNo := 0, 0
	for sc.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return written, err
		}
		query := sc.Text()
		if query == "" {
			continue
		}

		pred := p.classifier.Classify(ctx, query)
		pred.RequestID = p.batchID + "-" + strconv.Itoa(lineNo)
		if err := p.output.Write(ctx, pred); err != nil {
			return written, fmt.Errorf("pipeline output: line %d: %w", lineNo, err)
		}
		written++
	}
	if err := sc.Err(); err != nil {
		return written, fmt.Errorf("pipeline read: %w", err)
	}

	slog.Debug("batch classified", "batch", p.batchID, "lines", lineNo, "predictions", written, "elapsed", time.Since(start))
	return written, nil
}

// Close shuts down the output.
func (p *Pipeline) Close() error {
	return p.output.Close()
}
