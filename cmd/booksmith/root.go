package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/booksmith/booksmith/internal/api"
	"github.com/booksmith/booksmith/version"
)

var (
	cfgFile      string
	outputFormat string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "booksmith",
	Short: "Generate structured books from a topic with a Groq-hosted LLM",
	Long: `Booksmith turns a topic into a complete markdown book: it asks the
model for a title, then a hierarchical outline, then streams prose for
each outline section while accumulating token-usage statistics.

Requires a Groq API key, read from GROQ_API_KEY (a local .env file is
loaded if present) or from the config file.`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.booksmith/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "enable debug logging",
	)

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		// Developer settings file; absence is fine.
		_ = godotenv.Load()
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(configCmd)
}
