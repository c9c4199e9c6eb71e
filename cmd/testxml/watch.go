package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/panbanda/testxml/internal/output"
	"github.com/panbanda/testxml/internal/service/generate"
	"github.com/panbanda/testxml/pkg/watch"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Regenerate reports when Java sources change",
	Long: `Watches a directory tree and regenerates the reports of changed Java files.
Changes are batched until files have been quiet for the debounce period.

Examples:
  testxml watch                  # Watch the current directory
  testxml watch src/test -d out  # Mirror reports under out/
  testxml watch --initial        # Generate everything once before watching`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	addReportFlags(watchCmd)
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "Quiet period before a changed file is regenerated")
	watchCmd.Flags().Bool("initial", false, "Generate all reports before watching")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyReportFlags(cmd, cfg); err != nil {
		return err
	}

	root, err := filepath.Abs(getPaths(args)[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
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

	out := cmd.OutOrStdout()
	ctx := cmd.Context()
	if initial, _ := cmd.Flags().GetBool("initial"); initial {
		summary, err := svc.Generate(ctx, []string{root})
		if summary == nil {
			return err
		}
		printWatchResults(out, root, summary)
	}

	debounce, _ := cmd.Flags().GetDuration("debounce")
	watcher, err := watch.NewWatcher(root, cfg, watch.WithDebounce(debounce), watch.WithLogger(slog.Default()))
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Stop()

	watcher.SetCallback(func(ctx context.Context, paths []string) {
		summary, err := svc.Regenerate(ctx, root, paths)
		if summary == nil {
			color.New(color.FgRed).Fprintf(out, "Regeneration failed: %v\n", err)
			return
		}
		printWatchResults(out, root, summary)
	})

	color.New(color.FgCyan).Fprintf(out, "Watching %s (Ctrl+C to stop)\n", root)
	err = watcher.Start(ctx)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(out, "\nStopping watch...")
		return nil
	}
	return err
}

// printWatchResults prints one status line per regenerated file.
func printWatchResults(w io.Writer, root string, summary *generate.Summary) {
	for _, r := range summary.Results {
		name := r.Source
		if rel, err := filepath.Rel(root, r.Source); err == nil {
			name = rel
		}

		if r.Error != "" {
			color.New(color.FgRed).Fprintf(w, "✗ %s: %s\n", name, r.Error)
			continue
		}
		smells := r.Roulette + r.Duplicated
		fmt.Fprintf(w, "%s %s: %d methods, %s\n",
			color.GreenString("✓"), name, r.Methods,
			output.SmellColor(smells, fmt.Sprintf("%d smells", smells)))
	}
}
