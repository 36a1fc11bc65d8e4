package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/booksmith/booksmith/internal/api"
	"github.com/booksmith/booksmith/internal/book"
	"github.com/booksmith/booksmith/internal/config"
	"github.com/booksmith/booksmith/internal/generator"
	"github.com/booksmith/booksmith/internal/metrics"
	"github.com/booksmith/booksmith/internal/providers"
)

var (
	genInstructions  string
	genStyle         string
	genComplexity    string
	genSeed          string
	genOut           string
	genModel         string
	genDumpStructure bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <topic>",
	Short: "Generate a book about the given topic",
	Long: `Generate runs the full pipeline for one topic: title, outline, then
streamed prose per outline section. Progress and running usage totals
are logged as they happen; the finished book is written as markdown to
the output file, and the final usage totals are printed in the
configured output format.

Generation is all-or-nothing: any request failure aborts the run and no
output file is written.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cm, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cfg := cm.Get()

		groqCfg := cfg.ToGroqConfig()
		if genModel != "" {
			groqCfg.Model = genModel
		}
		client, err := providers.NewGroqClient(groqCfg)
		if err != nil {
			return err
		}

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))

		style := genStyle
		if style == "" {
			style = cfg.Defaults.WritingStyle
		}
		complexity := genComplexity
		if complexity == "" {
			complexity = cfg.Defaults.ComplexityLevel
		}
		outPath := genOut
		if outPath == "" {
			outPath = cfg.Defaults.Output
		}

		gen := generator.New(client, logger)
		stream := gen.Generate(cmd.Context(), generator.Request{
			Topic:                  args[0],
			AdditionalInstructions: genInstructions,
			WritingStyle:           style,
			ComplexityLevel:        complexity,
			SeedContent:            genSeed,
		})
		defer stream.Close()

		var result *book.Book
		var totals *metrics.GenerationStats
		for {
			ev, err := stream.Recv()
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}

			switch ev.Kind {
			case generator.EventProgress:
				logger.Info(ev.Progress)
			case generator.EventStats:
				totals = ev.Stats
				logger.Info("usage",
					"input_tokens", ev.Stats.InputTokens,
					"output_tokens", ev.Stats.OutputTokens,
					"total_time", fmt.Sprintf("%.2fs", ev.Stats.TotalTime),
					"output_speed", fmt.Sprintf("%.1f tok/s", ev.Stats.OutputSpeed()),
				)
			case generator.EventBook:
				result = ev.Book
			}
		}

		if result == nil {
			return fmt.Errorf("generation finished without a book")
		}

		if err := os.WriteFile(outPath, []byte(result.Markdown()), 0o644); err != nil {
			return fmt.Errorf("failed to write book: %w", err)
		}
		logger.Info("book written", "path", outPath, "sections", len(result.Sections))

		if totals != nil {
			if err := api.Output(totals); err != nil {
				return err
			}
		}
		if genDumpStructure {
			if err := api.Output(result.ToMap()); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&genInstructions, "instructions", "", "additional instructions for the model")
	generateCmd.Flags().StringVar(&genStyle, "style", "", "writing style (default from config)")
	generateCmd.Flags().StringVar(&genComplexity, "complexity", "", "complexity level (default from config)")
	generateCmd.Flags().StringVar(&genSeed, "seed", "", "seed content to consider during generation")
	generateCmd.Flags().StringVar(&genOut, "out", "", "output file for the generated book (default from config)")
	generateCmd.Flags().StringVar(&genModel, "model", "", "model override")
	generateCmd.Flags().BoolVar(&genDumpStructure, "dump-structure", false, "also print the book structure after generation")
}
