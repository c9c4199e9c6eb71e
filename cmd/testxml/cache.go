package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/panbanda/testxml/internal/output"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the report cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cache entry",
	RunE:  runCacheClear,
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove expired and unreadable cache entries",
	RunE:  runCachePrune,
}

func init() {
	cacheStatsCmd.Flags().StringP("format", "f", "text", "Output format: text, json, markdown, toon")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	c, err := newCache(cfg)
	if err != nil {
		return err
	}
	if !c.Enabled() {
		warnf(cmd, "Cache is disabled")
		return nil
	}

	stats, err := c.GetStats()
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	formatter, err := newFormatter(cmd, output.ParseFormat(format), "", cfg.Output.Color)
	if err != nil {
		return err
	}
	table := output.NewTable(
		"Cache",
		[]string{"Dir", "Entries", "Size", "Oldest", "Newest"},
		[][]string{{
			c.Dir(),
			fmt.Sprint(stats.Entries),
			fmt.Sprintf("%d B", stats.TotalSize),
			stats.OldestAge.Round(time.Second).String(),
			stats.NewestAge.Round(time.Second).String(),
		}},
		nil,
		stats,
	)
	return formatter.Output(table)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	c, err := newCache(cfg)
	if err != nil {
		return err
	}
	if err := c.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Cleared %s\n", cfg.Cache.Dir)
	return nil
}

func runCachePrune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	c, err := newCache(cfg)
	if err != nil {
		return err
	}
	removed, err := c.Prune()
	if err != nil {
		return fmt.Errorf("failed to prune cache: %w", err)
	}
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Removed %d cache entries\n", removed)
	return nil
}
