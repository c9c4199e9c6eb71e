package main

import (
	"fmt"
	"log/slog"

	"github.com/fatih/color"
	"github.com/panbanda/testxml/internal/output"
	"github.com/panbanda/testxml/internal/progress"
	"github.com/panbanda/testxml/internal/service/generate"
	"github.com/panbanda/testxml/pkg/analyzer"
	"github.com/panbanda/testxml/pkg/config"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:     "generate [path...]",
	Aliases: []string{"gen"},
	Short:   "Write XML reports for every test method under the given paths",
	Long: `Scans files and directories for Java sources and writes one XML report per
test method (or per file with --mode file). Reports go next to the sources
unless --out-dir is set.

Examples:
  testxml generate                        # Current directory
  testxml generate src/test -d reports    # Mirror src/test under reports/
  testxml generate --mode file --compact  # One compact document per source
  testxml generate -f json -o summary.json`,
	RunE: runGenerate,
}

func init() {
	addReportFlags(generateCmd)
	generateCmd.Flags().StringP("format", "f", "", "Summary format: text, json, markdown, toon")
	generateCmd.Flags().StringP("output", "o", "", "Write the summary to file")
	generateCmd.Flags().Bool("no-progress", false, "Hide the progress bar")

	rootCmd.AddCommand(generateCmd)
}

func summaryFormat(cmd *cobra.Command, cfg *config.Config) output.Format {
	if f, _ := cmd.Flags().GetString("format"); f != "" {
		return output.ParseFormat(f)
	}
	return output.ParseFormat(cfg.Output.Format)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyReportFlags(cmd, cfg); err != nil {
		return err
	}

	c, err := newCache(cfg)
	if err != nil {
		return err
	}
	svc, err := generate.New(
		generate.WithConfig(cfg),
		generate.WithCache(c),
		generate.WithLogger(slog.Default()),
	)
	if err != nil {
		return err
	}

	res := svc.Scan(getPaths(args))
	if len(res.Files) == 0 && len(res.Errors) == 0 {
		color.Yellow("No Java source files found")
		return nil
	}

	ctx := cmd.Context()
	var tracker *progress.Tracker
	if noProgress, _ := cmd.Flags().GetBool("no-progress"); !noProgress {
		tracker = progress.NewTracker("Generating reports...", len(res.Files), progress.WithWriter(cmd.ErrOrStderr()))
		ctx = analyzer.WithTracker(ctx, analyzer.NewTracker(tracker.Callback()))
	}

	summary, genErr := svc.GenerateScanned(ctx, res)
	if tracker != nil {
		tracker.FinishSuccess()
	}
	if summary == nil {
		return genErr
	}

	outFile, _ := cmd.Flags().GetString("output")
	formatter, err := newFormatter(cmd, summaryFormat(cmd, cfg), outFile, cfg.Output.Color)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if err := formatter.Output(summary.Renderable()); err != nil {
		return err
	}
	if genErr != nil {
		return fmt.Errorf("report generation incomplete: %w", genErr)
	}
	return nil
}
