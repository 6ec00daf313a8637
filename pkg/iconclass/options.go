package iconclass

import "io"

type options struct {
	corpus       io.Reader
	corpusFile   string
	artifactFile string
	variant      string
	maxResults   int
	workers      int
}

// Option configures a Classifier.
type Option func(*options)

// WithCorpus compiles the classifier from r, which holds `<len> <name><label>`
// lines.
func WithCorpus(r io.Reader) Option {
	return func(o *options) { o.corpus = r }
}

// WithCorpusFile compiles the classifier from the corpus at path.
func WithCorpusFile(path string) Option {
	return func(o *options) { o.corpusFile = path }
}

// WithArtifactFile loads precompiled tables instead of compiling a corpus.
// It takes precedence over the corpus options.
func WithArtifactFile(path string) Option {
	return func(o *options) { o.artifactFile = path }
}

// WithVariant selects the n-gram encoding: "trigram" (default) or "digram".
func WithVariant(v string) Option {
	return func(o *options) { o.variant = v }
}

// WithMaxResults caps the labels returned per query. Values outside 1..10
// use the default of 10.
func WithMaxResults(n int) Option {
	return func(o *options) { o.maxResults = n }
}

// WithWorkers bounds compile parallelism. Default: GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}
