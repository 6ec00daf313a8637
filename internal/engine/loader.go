package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/crimson-sun/iconclass/internal/corpus"
	"github.com/crimson-sun/iconclass/internal/engine/artifact"
	"github.com/crimson-sun/iconclass/internal/engine/compiler"
	"github.com/crimson-sun/iconclass/internal/engine/ngram"
	"github.com/crimson-sun/iconclass/internal/model"
	"github.com/crimson-sun/iconclass/internal/source"
)

// LoadConfig says where the tables come from.
type LoadConfig struct {
	// ArtifactPath, when set, names a precompiled artifact file that is
	// used instead of compiling Source.
	ArtifactPath string
	// Source is the corpus location; empty means the built-in corpus.
	Source  string
	Token   string
	Timeout time.Duration
	Variant ngram.Variant
	Workers int
}

// Load produces artifacts for cfg, either by decoding the artifact file or by
// fetching and compiling the corpus.
func Load(ctx context.Context, cfg LoadConfig) (*model.Artifacts, error) {
	variant := cfg.Variant
	if variant == "" {
		variant = ngram.Default
	}

	if cfg.ArtifactPath != "" {
		arts, err := artifact.LoadFile(cfg.ArtifactPath)
		if err != nil {
			return nil, err
		}
		if arts.Variant != string(variant) {
			return nil, fmt.Errorf("engine: artifact %s was compiled for %q, configured variant is %q",
				cfg.ArtifactPath, arts.Variant, variant)
		}
		slog.Info("loaded artifact file", "path", cfg.ArtifactPath, "fingerprint", arts.Fingerprint)
		return arts, nil
	}

	start := time.Now()
	rc, err := source.Open(ctx, cfg.Source, source.Config{Token: cfg.Token, Timeout: cfg.Timeout})
	if err != nil {
		return nil, fmt.Errorf("engine: open corpus: %w", err)
	}
	defer rc.Close()

	c, err := corpus.Read(rc)
	if err != nil {
		return nil, fmt.Errorf("engine: read corpus: %w", err)
	}
	arts, err := compiler.CompileCorpus(ctx, c,
		compiler.WithVariant(variant),
		compiler.WithWorkers(cfg.Workers),
	)
	if err != nil {
		return nil, err
	}
	slog.Info("compiled corpus",
		"source", sourceName(cfg.Source),
		"records", len(c.Records),
		"duration", time.Since(start),
	)
	return arts, nil
}

func sourceName(location string) string {
	if location == "" {
		return "builtin"
	}
	return location
}
