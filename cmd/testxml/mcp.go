package main

import (
	"log/slog"

	"github.com/panbanda/testxml/internal/mcpserver"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP (Model Context Protocol) server for LLM tool integration",
	Long: `Starts an MCP server over stdio transport that exposes report generation
as tools that LLMs can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "testxml": {
        "command": "testxml",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - convert_test_file      XML reports of one Java file, nothing written
  - generate_test_reports  Write reports for files and directories`,
	RunE: runMCP,
}

var mcpManifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Print the MCP server manifest (server.json)",
	RunE:  runMCPManifest,
}

func init() {
	mcpCmd.AddCommand(mcpManifestCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	server := mcpserver.NewServer(version, mcpserver.WithConfig(cfg), mcpserver.WithLogger(slog.Default()))
	return server.Run(cmd.Context())
}

func runMCPManifest(cmd *cobra.Command, args []string) error {
	data, err := mcpserver.GenerateManifest(version)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
