package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/panbanda/testxml/pkg/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new testxml configuration file",
	Long: `Creates a new testxml.toml configuration file in the current directory
with the default settings. Use --output to specify a different location;
.yaml, .yml and .json names get that format.

Examples:
  testxml init                          # Creates testxml.toml in current directory
  testxml init -o .testxml/testxml.yaml # Creates a YAML config in .testxml
  testxml init --force                  # Overwrite existing config file`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringP("output", "o", "testxml.toml", "Output file path")
	initCmd.Flags().Bool("force", false, "Overwrite existing config file")

	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")
	force, _ := cmd.Flags().GetBool("force")

	if _, err := os.Stat(outputPath); err == nil && !force {
		return fmt.Errorf("config file %q already exists (use --force to overwrite)", outputPath)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}

	content, err := generateDefaultConfig(outputPath)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	color.New(color.FgGreen).Fprintf(out, "Created %s\n", outputPath)
	fmt.Fprintln(out, "Edit this file to customize report settings.")
	return nil
}

func generateDefaultConfig(path string) (string, error) {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format != "yaml" && format != "yml" && format != "json" {
		format = "toml"
	}

	content, err := marshalConfig(config.DefaultConfig(), format)
	if err != nil {
		return "", err
	}
	if format == "json" {
		return string(content), nil
	}

	var buf strings.Builder
	buf.WriteString("# testxml configuration\n")
	buf.WriteString("# Documentation: https://github.com/panbanda/testxml\n\n")
	buf.Write(content)
	return buf.String(), nil
}
