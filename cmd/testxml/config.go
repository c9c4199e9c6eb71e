package main

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/panbanda/testxml/pkg/config"
	"github.com/pelletier/go-toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Validates a testxml configuration file: keys and types against the schema,
then the values.

Examples:
  testxml config validate                    # Validates default config locations
  testxml config validate -c testxml.toml    # Validates specific file
  testxml config validate -c .testxml/testxml.yaml`,
	RunE: runConfigValidate,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Shows the merged configuration from defaults and config file.

Examples:
  testxml config show                 # Show effective config as TOML
  testxml config show -f yaml         # Show as YAML
  testxml config show -c testxml.toml # Show config from specific file`,
	RunE: runConfigShow,
}

func init() {
	configShowCmd.Flags().StringP("format", "f", "toml", "Output format: toml, yaml, json")

	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fail := func(err error) error {
		color.New(color.FgRed).Fprintln(out, "Configuration validation failed:")
		fmt.Fprintf(out, "  - %s\n", err)
		return err
	}

	path := cfgFile
	if path == "" {
		path, _ = config.Find(".")
	}
	if path != "" {
		if err := config.ValidateFile(path); err != nil {
			return fail(err)
		}
	}

	result, err := config.LoadConfig(config.WithPath(path))
	if err != nil {
		return fail(err)
	}

	if result.Source != "" {
		color.New(color.FgGreen).Fprintf(out, "Configuration valid: %s\n", result.Source)
	} else {
		color.New(color.FgYellow).Fprintln(out, "No config file found. Default configuration is valid.")
	}
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	result, err := config.LoadConfig(config.WithPath(cfgFile))
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	content, err := marshalConfig(result.Config, format)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format != "json" {
		if result.Source != "" {
			fmt.Fprintf(out, "# Configuration from: %s\n\n", result.Source)
		} else {
			fmt.Fprintln(out, "# Default configuration (no config file found)")
		}
	}
	_, err = out.Write(content)
	return err
}

// marshalConfig encodes cfg as toml, yaml or json.
func marshalConfig(cfg *config.Config, format string) ([]byte, error) {
	var (
		content []byte
		err     error
	)
	switch format {
	case "toml", "":
		content, err = toml.Marshal(cfg)
	case "yaml", "yml":
		content, err = yaml.Marshal(cfg)
	case "json":
		content, err = json.MarshalIndent(cfg, "", "  ")
		content = append(content, '\n')
	default:
		return nil, fmt.Errorf("unknown config format %q (want toml, yaml or json)", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return content, nil
}
