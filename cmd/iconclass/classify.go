package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/iconclass/internal/engine"
	"github.com/crimson-sun/iconclass/internal/output/stdout"
	"github.com/crimson-sun/iconclass/internal/pipeline"
)

var (
	classifyBatch    bool
	classifyScores   bool
	classifyPretty   bool
	classifyCorpus   string
	classifyArtifact string
)

var classifyCmd = &cobra.Command{
	Use:   "classify [name...]",
	Short: "Classify names and print predictions as NDJSON",
	Long: `Classify prints one JSON prediction per name given as an argument, or
per non-empty line of stdin with --batch.`,
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyBatch, "batch", false, "read names from stdin, one per line")
	classifyCmd.Flags().BoolVar(&classifyScores, "scores", false, "include log2 scores")
	classifyCmd.Flags().BoolVar(&classifyPretty, "pretty", false, "indent JSON output")
	classifyCmd.Flags().StringVar(&classifyCorpus, "corpus", "", "corpus location (default from config)")
	classifyCmd.Flags().StringVar(&classifyArtifact, "artifact", "", "precompiled tables file")
}

func runClassify(cmd *cobra.Command, args []string) error {
	if classifyBatch && len(args) > 0 {
		return errors.New("--batch reads names from stdin; do not pass arguments")
	}
	if !classifyBatch && len(args) == 0 {
		return errors.New("no names given (pass arguments or use --batch)")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	loadCfg := loadConfigFor(cfg)
	if cmd.Flags().Changed("corpus") {
		loadCfg.Source = classifyCorpus
		loadCfg.ArtifactPath = ""
	}
	if cmd.Flags().Changed("artifact") {
		loadCfg.ArtifactPath = classifyArtifact
	}

	ctx := cmd.Context()
	arts, err := engine.Load(ctx, loadCfg)
	if err != nil {
		return err
	}
	eng, err := engine.New(arts, engine.WithMaxResults(cfg.Engine.MaxResults))
	if err != nil {
		return err
	}

	out := stdout.New(classifyScores, classifyPretty, stdout.WithWriter(cmd.OutOrStdout()))
	if classifyBatch {
		p := pipeline.New(eng, out)
		defer p.Close()
		_, err := p.Run(ctx, cmd.InOrStdin())
		return err
	}

	for _, name := range args {
		if err := out.Write(ctx, eng.Classify(ctx, name)); err != nil {
			return fmt.Errorf("write prediction: %w", err)
		}
	}
	return out.Close()
}
