package main

import (
	"io"
	"strings"
	"log/slog"

	"github.com/fatih/color"
	"github.com/panbanda/testxml/internal/cache"
	"github.com/panbanda/testxml/internal/output"
	"github.com/panbanda/testxml/pkg/config"
	"github.com/spf13/cobra"
)

// getPaths returns paths from args, defaulting to ["."]
func getPaths(args []string) []string {
	if len(args) == 0 {
		return []string{"."}
	}
	return args
}

// newLogger logs to w at debug level when verbose, warnings otherwise.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig loads --config, or searches the standard locations.
func loadConfig() (*config.Config, error) {
	result, err := config.LoadConfig(config.WithPath(cfgFile))
	if err != nil {
		return nil, err
	}
	if result.Source != "" {
		slog.Debug("loaded config", "path", result.Source)
	}
	return result.Config, nil
}

// addReportFlags registers the flags that override report settings.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("out-dir", "d", "", "Report root mirroring the source tree (default: next to sources)")
	cmd.Flags().String("mode", "", "Output layout: method or file")
	cmd.Flags().Bool("compact", false, "Render each document on one line")
	cmd.Flags().String("smells", "", "Smell placement: before, after or inline")
	cmd.Flags().Bool("include-path", false, "Add a file_path record to every document")
	cmd.Flags().Bool("strict", false, "Fail files with syntax errors")
	cmd.Flags().Int("workers", 0, "Files processed concurrently (default: CPU count)")
	cmd.Flags().Bool("no-cache", false, "Disable caching")
}

// applyReportFlags copies changed report flags into cfg and validates it.
func applyReportFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("out-dir") {
		cfg.Output.Dir, _ = flags.GetString("out-dir")
	}
	if flags.Changed("mode") {
		cfg.Output.Mode, _ = flags.GetString("mode")
	}
	if flags.Changed("compact") {
		compact, _ := flags.GetBool("compact")
		cfg.Output.Indent = !compact
	}
	if flags.Changed("smells") {
		cfg.Output.Smells, _ = flags.GetString("smells")
	}
	if flags.Changed("include-path") {
		cfg.Output.IncludePath, _ = flags.GetBool("include-path")
	}
	if flags.Changed("strict") {
		cfg.Analysis.Strict, _ = flags.GetBool("strict")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("no-cache") {
		noCache, _ := flags.GetBool("no-cache")
		cfg.Cache.Enabled = !noCache
	}
	return cfg.Validate()
}

func newCache(cfg *config.Config) (*cache.Cache, error) {
	return cache.New(cfg.Cache.Dir, cfg.Cache.TTL, cfg.Cache.Enabled)
}

// newFormatter writes to path, or to the command's stdout when path is
// empty. Files never get color.
func newFormatter(cmd *cobra.Command, format output.Format, path string, colored bool) (*output.Formatter, error) {
	if path == "" {
		return output.NewWriterFormatter(format, cmd.OutOrStdout(), colored), nil
	}
	return output.NewFormatter(format, path, false)
}

// warnf prints a yellow line on stderr, keeping stdout for documents.
func warnf(cmd *cobra.Command, format string, args ...any) {
	if !strings.HasSuffix(format, "\n") {
		format += "\n"
	}
	color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), format, args...)
}
