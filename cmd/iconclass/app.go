package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/crimson-sun/iconclass/internal/config"
	"github.com/crimson-sun/iconclass/internal/engine"
	"github.com/crimson-sun/iconclass/internal/engine/ngram"
	"github.com/crimson-sun/iconclass/internal/logging"
)

// loadConfig loads and validates configuration and initializes logging.
func loadConfig() (config.Config, error) {
	if configPath != "" {
		if err := os.Setenv(config.FileEnv, configPath); err != nil {
			return config.Config{}, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration:\n%w", err)
	}
	logging.Init(cfg.Log.Format, cfg.Log.Level)
	slog.Debug("configuration loaded", "version", config.Version, "config_file", os.Getenv(config.FileEnv))
	return cfg, nil
}

func loadConfigFor(cfg config.Config) engine.LoadConfig {
	return engine.LoadConfig{
		ArtifactPath: cfg.Corpus.Artifact,
		Source:       cfg.Corpus.Source,
		Token:        cfg.Corpus.Token,
		Timeout:      cfg.Corpus.Timeout,
		Variant:      ngram.Variant(cfg.Engine.Variant),
		Workers:      cfg.Engine.Workers,
	}
}
