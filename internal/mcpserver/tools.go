package mcpserver

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/testxml/internal/cache"
	"github.com/panbanda/testxml/internal/fileproc"
	"github.com/panbanda/testxml/internal/output"
	"github.com/panbanda/testxml/internal/service/generate"
	"github.com/panbanda/testxml/pkg/config"
)

// formatXML returns the rendered documents as they would be written.
const formatXML output.Format = "xml"

// ReportOptions override the report settings of the server config.
type ReportOptions struct {
	Compact     bool   `json:"compact,omitempty" jsonschema:"Render each document on one line instead of tab-indented."`
	Smells      string `json:"smells,omitempty" jsonschema:"Where smell records go: before (default), after, or inline."`
	IncludePath bool   `json:"include_path,omitempty" jsonschema:"Add a file_path record with the source path to every document."`
	Strict      bool   `json:"strict,omitempty" jsonschema:"Fail files with syntax errors instead of reporting the recovered tree."`
}

// ConvertInput is the input of convert_test_file.
type ConvertInput struct {
	ReportOptions
	Path   string `json:"path" jsonschema:"Java source file to convert."`
	Format string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, markdown, or xml."`
}

// GenerateInput is the input of generate_test_reports.
type GenerateInput struct {
	ReportOptions
	Paths  []string `json:"paths,omitempty" jsonschema:"Files or directories to scan. Defaults to current directory if empty."`
	OutDir string   `json:"out_dir,omitempty" jsonschema:"Report root mirroring the source tree. Reports go next to sources if empty."`
	Mode   string   `json:"mode,omitempty" jsonschema:"Output layout: method (one file per test method, default) or file (one file per source)."`
	Format string   `json:"format,omitempty" jsonschema:"Summary format: toon (default), json, or markdown."`
}

func getPaths(paths []string) []string {
	if len(paths) == 0 {
		return []string{"."}
	}
	return paths
}

func getFormat(format string) output.Format {
	switch strings.ToLower(format) {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	case "xml":
		return formatXML
	default:
		return output.FormatTOON
	}
}

func formatOutput(data any, format output.Format) (string, error) {
	var buf bytes.Buffer
	if err := output.NewWriterFormatter(format, &buf, false).Output(data); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return toolText(text)
}

func toolText(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// configFor applies the tool options to a copy of the server config.
func (s *Server) configFor(opts ReportOptions, mode, outDir string) (*config.Config, error) {
	cfg := *s.config
	if opts.Compact {
		cfg.Output.Indent = false
	}
	if opts.Smells != "" {
		cfg.Output.Smells = opts.Smells
	}
	if opts.IncludePath {
		cfg.Output.IncludePath = true
	}
	if opts.Strict {
		cfg.Analysis.Strict = true
	}
	if mode != "" {
		cfg.Output.Mode = mode
	}
	if outDir != "" {
		cfg.Output.Dir = outDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *Server) newService(cfg *config.Config) (*generate.Service, error) {
	opts := []generate.Option{
		generate.WithConfig(cfg),
		generate.WithLogger(s.logger),
	}
	if cfg.Cache.Enabled {
		c, err := cache.New(cfg.Cache.Dir, cfg.Cache.TTL, true)
		if err != nil {
			s.logger.Warn("cache unavailable", "dir", cfg.Cache.Dir, "err", err)
		} else {
			opts = append(opts, generate.WithCache(c))
		}
	}
	return generate.New(opts...)
}

func (s *Server) handleConvertTestFile(ctx context.Context, req *mcp.CallToolRequest, input ConvertInput) (*mcp.CallToolResult, any, error) {
	if input.Path == "" {
		return toolError("path is required")
	}
	cfg, err := s.configFor(input.ReportOptions, "", "")
	if err != nil {
		return toolError(err.Error())
	}
	svc, err := s.newService(cfg)
	if err != nil {
		return toolError(err.Error())
	}

	conv, err := svc.ConvertFile(ctx, input.Path)
	if err != nil {
		return toolError(err.Error())
	}

	format := getFormat(input.Format)
	if format == formatXML {
		if len(conv.Methods) == 0 {
			return toolText("no test methods found in " + input.Path)
		}
		return toolText(conv.Document())
	}
	return toolResult(conv, format)
}

func (s *Server) handleGenerateTestReports(ctx context.Context, req *mcp.CallToolRequest, input GenerateInput) (*mcp.CallToolResult, any, error) {
	cfg, err := s.configFor(input.ReportOptions, input.Mode, input.OutDir)
	if err != nil {
		return toolError(err.Error())
	}
	svc, err := s.newService(cfg)
	if err != nil {
		return toolError(err.Error())
	}

	summary, err := svc.Generate(ctx, getPaths(input.Paths))
	if err != nil {
		// Per-file failures are listed in the summary.
		var perFile *fileproc.ProcessingErrors
		if summary == nil || !errors.As(err, &perFile) {
			return toolError(err.Error())
		}
	}
	if summary.Files == 0 && summary.Skipped == 0 {
		return toolError("no Java source files found")
	}

	format := getFormat(input.Format)
	if format == formatXML {
		format = output.FormatTOON
	}
	return toolResult(summary.Renderable(), format)
}
