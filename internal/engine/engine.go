package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/crimson-sun/iconclass/internal/cache"
	"github.com/crimson-sun/iconclass/internal/engine/artifact"
	"github.com/crimson-sun/iconclass/internal/engine/classifier"
	"github.com/crimson-sun/iconclass/internal/engine/ngram"
	"github.com/crimson-sun/iconclass/internal/metrics"
	"github.com/crimson-sun/iconclass/internal/model"
)

// snapshot pairs published artifacts with the classifier built from them.
// Neither is modified after publication.
type snapshot struct {
	arts    *model.Artifacts
	variant ngram.Variant
	cls     *classifier.Classifier
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache sets the result cache. Default: no caching.
func WithCache(c cache.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithMaxResults caps the labels returned per query (at most 10).
func WithMaxResults(n int) Option {
	return func(e *Engine) { e.maxResults = n }
}

// Engine serves classifications from an atomically published snapshot of the
// compiled tables. Classify never blocks on Reload.
type Engine struct {
	current    atomic.Pointer[snapshot]
	cache      cache.Cache
	maxResults int
}

// New validates arts and publishes them as the first snapshot.
func New(arts *model.Artifacts, opts ...Option) (*Engine, error) {
	e := &Engine{cache: cache.Nop{}, maxResults: classifier.DefaultMaxResults}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.publish(arts); err != nil {
		return nil, err
	}
	return e, nil
}

// Reload swaps in new artifacts. In-flight classifications finish on the
// snapshot they started with. On error the current snapshot is kept.
func (e *Engine) Reload(arts *model.Artifacts) error {
	err := e.publish(arts)
	metrics.IncReload(err == nil)
	return err
}

func (e *Engine) publish(arts *model.Artifacts) error {
	if err := artifact.Validate(arts); err != nil {
		return err
	}
	if arts.Fingerprint == "" {
		// Without a corpus fingerprint, give the tables a unique identity so
		// cached results never cross snapshots.
		cp := *arts
		cp.Fingerprint = "gen-" + uuid.NewString()
		arts = &cp
	}
	snap := &snapshot{
		arts:    arts,
		variant: ngram.Variant(arts.Variant),
		cls:     classifier.New(arts, classifier.WithMaxResults(e.maxResults)),
	}
	e.current.Store(snap)
	metrics.SetArtifactSize(len(arts.Labels), len(arts.Vocabulary), len(arts.Examples))
	slog.Info("artifacts published",
		"fingerprint", arts.Fingerprint,
		"variant", arts.Variant,
		"labels", len(arts.Labels),
		"vocabulary", len(arts.Vocabulary),
		"examples", len(arts.Examples),
	)
	return nil
}

// Classify ranks the labels for query. It never fails: an empty Labels slice
// means no label survived scoring. Cache errors are logged and bypassed.
func (e *Engine) Classify(ctx context.Context, query string) model.Prediction {
	start := time.Now()
	snap := e.current.Load()
	key := cache.Key(snap.arts.Fingerprint, snap.arts.Variant, query)

	labels, hit, err := e.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.IncCache("error")
		slog.Warn("result cache get failed", "error", err)
	case hit:
		metrics.IncCache("hit")
		if labels == nil {
			labels = []string{}
		}
		metrics.ObserveClassify(start, len(labels))
		return model.Prediction{
			Query:       query,
			Labels:      labels,
			Fingerprint: snap.arts.Fingerprint,
			Cached:      true,
			Timestamp:   start,
		}
	default:
		metrics.IncCache("miss")
	}

	results := snap.cls.Classify(ngram.Extract(snap.variant, query))
	labels = classifier.Labels(results)
	scores := make([]float32, len(results))
	for i, r := range results {
		scores[i] = r.Score
	}

	if err := e.cache.Set(ctx, key, labels); err != nil {
		slog.Warn("result cache set failed", "error", err)
	}

	metrics.ObserveClassify(start, len(labels))
	return model.Prediction{
		Query:       query,
		Labels:      labels,
		Scores:      scores,
		Fingerprint: snap.arts.Fingerprint,
		Timestamp:   start,
	}
}

// Snapshot returns the currently published artifacts. Callers must not
// modify them.
func (e *Engine) Snapshot() *model.Artifacts {
	return e.current.Load().arts
}

// Info describes the published snapshot.
type Info struct {
	Fingerprint string `json:"fingerprint"`
	Variant     string `json:"variant"`
	Labels      int    `json:"labels"`
	Vocabulary  int    `json:"vocabulary"`
	Examples    int    `json:"examples"`
}

// Info reports the identity and size of the current tables.
func (e *Engine) Info() Info {
	a := e.Snapshot()
	return Info{
		Fingerprint: a.Fingerprint,
		Variant:     a.Variant,
		Labels:      len(a.Labels),
		Vocabulary:  len(a.Vocabulary),
		Examples:    len(a.Examples),
	}
}

// Labels returns the label set of the current tables. Callers must not
// modify the returned slice.
func (e *Engine) Labels() []string {
	return e.Snapshot().Labels
}
