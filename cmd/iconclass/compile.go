package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/iconclass/internal/engine"
	"github.com/crimson-sun/iconclass/internal/engine/artifact"
	"github.com/crimson-sun/iconclass/internal/engine/ngram"
)

var (
	compileCorpus  string
	compileVariant string
	compileWorkers int
	compileOut     string
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile a corpus into a tables file",
	Long: `Compile parses a corpus of "<len> <name><label>" lines and writes the
vocabulary, label set and training table as a msgpack file that serve,
classify and the library can load with corpus.artifact.`,
	Args: cobra.NoArgs,
	RunE: runCompile,
}

func init() {
	compileCmd.Flags().StringVar(&compileCorpus, "corpus", "", "corpus location: path, file:// or http(s):// URL (default built-in)")
	compileCmd.Flags().StringVar(&compileVariant, "variant", "", "n-gram variant (trigram|digram; default engine.variant)")
	compileCmd.Flags().IntVar(&compileWorkers, "workers", 0, "compile parallelism (0 = GOMAXPROCS)")
	compileCmd.Flags().StringVarP(&compileOut, "output", "o", "tables.msgpack", "output file")
}

func runCompile(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	loadCfg := loadConfigFor(cfg)
	loadCfg.ArtifactPath = ""
	if cmd.Flags().Changed("variant") {
		variant, err := ngram.ParseVariant(compileVariant)
		if err != nil {
			return err
		}
		loadCfg.Variant = variant
	}
	if cmd.Flags().Changed("corpus") {
		loadCfg.Source = compileCorpus
	}
	if cmd.Flags().Changed("workers") {
		loadCfg.Workers = compileWorkers
	}

	arts, err := engine.Load(cmd.Context(), loadCfg)
	if err != nil {
		return err
	}
	if err := artifact.SaveFile(compileOut, arts); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d examples, %d labels, %d %ss (fingerprint %s)\n",
		compileOut, len(arts.Examples), len(arts.Labels), len(arts.Vocabulary), arts.Variant, arts.Fingerprint)
	return nil
}
