package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/iconclass/internal/config"

	// Register corpus sources.
	_ "github.com/crimson-sun/iconclass/internal/source/builtin"
	_ "github.com/crimson-sun/iconclass/internal/source/file"
	_ "github.com/crimson-sun/iconclass/internal/source/remote"
)

var rootCmd = &cobra.Command{
	Use:   "iconclass",
	Short: "Pick icons for free-text names",
	Long: `iconclass ranks icon identifiers for short names with a naive Bayes
classifier over character n-grams learned from a (name, icon) corpus.`,
	SilenceUsage: true,
}

var configPath string

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(classifyCmd)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML config file (overrides "+config.FileEnv+")")
}

func main() {
	rootCmd.Version = config.Version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
