// Package compiler turns a parsed training corpus into the immutable lookup
// tables the classifier reads: label set, n-gram vocabulary and training table.
package compiler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/crimson-sun/iconclass/internal/corpus"
	"github.com/crimson-sun/iconclass/internal/engine/ngram"
	"github.com/crimson-sun/iconclass/internal/model"
)

// rows per feature-building task
const chunkSize = 256

type options struct {
	variant     ngram.Variant
	workers     int
	fingerprint string
}

// Option configures a compilation.
type Option func(*options)

// WithVariant selects the n-gram encoding. Default: trigram.
func WithVariant(v ngram.Variant) Option {
	return func(o *options) { o.variant = v }
}

// WithWorkers bounds the number of goroutines building feature vectors.
// Values <= 0 use GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithFingerprint records the identity of the source corpus in the artifacts.
func WithFingerprint(fp string) Option {
	return func(o *options) { o.fingerprint = fp }
}

// Compile builds artifacts from records. An empty corpus yields empty
// artifacts, not an error.
func Compile(ctx context.Context, records []model.Record, opts ...Option) (*model.Artifacts, error) {
	o := options{variant: ngram.Default}
	for _, opt := range opts {
		opt(&o)
	}
	if _, err := ngram.ParseVariant(string(o.variant)); err != nil {
		return nil, fmt.Errorf("compiler: %w", err)
	}
	if o.workers <= 0 {
		o.workers = runtime.GOMAXPROCS(0)
	}

	start := time.Now()

	vocab := newOrderedSet()
	labels := newOrderedSet()
	grams := make([][]int, len(records))
	for i, rec := range records {
		for _, g := range ngram.Extract(o.variant, rec.Name) {
			grams[i] = append(grams[i], vocab.add(g))
		}
		labels.add(rec.Label)
	}

	// The vocabulary is only complete after every record has been seen, so
	// feature vectors are a second pass.
	examples := make([]model.TrainingExample, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for lo := 0; lo < len(records); lo += chunkSize {
		lo := lo
		hi := min(lo+chunkSize, len(records))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				features := make([]bool, vocab.size())
				for _, id := range grams[i] {
					features[id] = true
				}
				examples[i] = model.TrainingExample{Features: features, Label: records[i].Label}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("compiler: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("compiler: %w", err)
	}

	arts := &model.Artifacts{
		Variant:     string(o.variant),
		Labels:      labels.items,
		Vocabulary:  vocab.items,
		Examples:    examples,
		Fingerprint: o.fingerprint,
	}

	slog.Debug("corpus compiled",
		"variant", arts.Variant,
		"examples", len(arts.Examples),
		"labels", len(arts.Labels),
		"vocabulary", len(arts.Vocabulary),
		"elapsed", time.Since(start),
	)
	return arts, nil
}

// CompileCorpus compiles a parsed corpus and stamps its fingerprint.
func CompileCorpus(ctx context.Context, c corpus.Corpus, opts ...Option) (*model.Artifacts, error) {
	opts = append([]Option{WithFingerprint(c.Fingerprint)}, opts...)
	return Compile(ctx, c.Records, opts...)
}
