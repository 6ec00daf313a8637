package iconclass

import (
	"context"
	"fmt"
	"os"

	"github.com/crimson-sun/iconclass/internal/corpus"
	"github.com/crimson-sun/iconclass/internal/engine/artifact"
	"github.com/crimson-sun/iconclass/internal/engine/classifier"
	"github.com/crimson-sun/iconclass/internal/engine/compiler"
	"github.com/crimson-sun/iconclass/internal/engine/ngram"
	"github.com/crimson-sun/iconclass/internal/model"
)

// Scored is a label with its log2 score. Higher is more likely.
type Scored struct {
	Label string  `json:"label"`
	Score float32 `json:"score"`
}

// Classifier maps names to ranked icon identifiers.
type Classifier struct {
	variant     ngram.Variant
	fingerprint string
	labels      []string
	cls         *classifier.Classifier
}

// New builds a Classifier. Compiling the built-in corpus takes a few
// milliseconds.
func New(opts ...Option) (*Classifier, error) {
	o := options{variant: string(ngram.Default)}
	for _, opt := range opts {
		opt(&o)
	}
	variant, err := ngram.ParseVariant(o.variant)
	if err != nil {
		return nil, fmt.Errorf("iconclass: %w", err)
	}

	arts, err := load(o, variant)
	if err != nil {
		return nil, fmt.Errorf("iconclass: %w", err)
	}
	if arts.Variant != string(variant) {
		return nil, fmt.Errorf("iconclass: tables were compiled for %q, want %q", arts.Variant, variant)
	}

	return &Classifier{
		variant:     variant,
		fingerprint: arts.Fingerprint,
		labels:      arts.Labels,
		cls:         classifier.New(arts, classifier.WithMaxResults(o.maxResults)),
	}, nil
}

func load(o options, variant ngram.Variant) (*model.Artifacts, error) {
	if o.artifactFile != "" {
		return artifact.LoadFile(o.artifactFile)
	}

	var (
		c   corpus.Corpus
		err error
	)
	switch {
	case o.corpus != nil:
		c, err = corpus.Read(o.corpus)
	case o.corpusFile != "":
		c, err = readFile(o.corpusFile)
	default:
		c, err = corpus.ReadDefault()
	}
	if err != nil {
		return nil, err
	}
	return compiler.CompileCorpus(context.Background(), c,
		compiler.WithVariant(variant),
		compiler.WithWorkers(o.workers),
	)
}

func readFile(path string) (corpus.Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return corpus.Corpus{}, err
	}
	defer f.Close()
	return corpus.Read(f)
}

// Classify returns the most plausible labels for name, best first. The
// result is empty, never nil, when no label fits.
func (c *Classifier) Classify(name string) []string {
	return classifier.Labels(c.cls.Classify(ngram.Extract(c.variant, name)))
}

// ClassifyScored is Classify with scores.
func (c *Classifier) ClassifyScored(name string) []Scored {
	results := c.cls.Classify(ngram.Extract(c.variant, name))
	out := make([]Scored, len(results))
	for i, r := range results {
		out[i] = Scored{Label: r.Label, Score: r.Score}
	}
	return out
}

// Labels returns every label the classifier can produce, in corpus order.
func (c *Classifier) Labels() []string {
	return append([]string(nil), c.labels...)
}

// Fingerprint identifies the corpus the classifier was built from.
func (c *Classifier) Fingerprint() string {
	return c.fingerprint
}
