package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/testxml/internal/output"
	"github.com/panbanda/testxml/internal/service/generate"
	"github.com/panbanda/testxml/internal/testutil"
	"github.com/panbanda/testxml/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Cache.Enabled = false
	return cfg
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return NewServer("test", WithConfig(testConfig()), WithLogger(testutil.DiscardLogger()))
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "content is %T", result.Content[0])
	return text.Text
}

func writeCalc(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "calc", "CalcTest.java")
	testutil.WriteFile(t, path, testutil.CalcTest)
	return dir, path
}

func TestServerCreation(t *testing.T) {
	server := newTestServer(t)
	require.NotNil(t, server)
	assert.NotNil(t, server.server)
	assert.NotNil(t, server.config)
}

func TestServerCreationEmptyVersion(t *testing.T) {
	server := NewServer("", WithConfig(testConfig()))
	require.NotNil(t, server)
	assert.NotNil(t, server.logger)
}

func TestToolDescriptions(t *testing.T) {
	descriptions := map[string]func() string{
		"convert":  describeConvert,
		"generate": describeGenerate,
	}

	for name, fn := range descriptions {
		t.Run(name, func(t *testing.T) {
			desc := fn()
			assert.Contains(t, desc, "USE WHEN:")
			assert.Contains(t, desc, "INTERPRETING RESULTS:")
			assert.Contains(t, desc, "METRICS RETURNED:")
		})
	}
}

func TestGetPaths(t *testing.T) {
	assert.Equal(t, []string{"."}, getPaths(nil))
	assert.Equal(t, []string{"."}, getPaths([]string{}))
	assert.Equal(t, []string{"/foo", "/bar"}, getPaths([]string{"/foo", "/bar"}))
}

func TestGetFormat(t *testing.T) {
	tests := []struct {
		format   string
		expected output.Format
	}{
		{"", output.FormatTOON},
		{"toon", output.FormatTOON},
		{"json", output.FormatJSON},
		{"JSON", output.FormatJSON},
		{"markdown", output.FormatMarkdown},
		{"md", output.FormatMarkdown},
		{"xml", formatXML},
		{"yaml", output.FormatTOON},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			assert.Equal(t, tt.expected, getFormat(tt.format))
		})
	}
}

func TestToolError(t *testing.T) {
	result, _, err := toolError("test error message")
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "Error: test error message", resultText(t, result))
}

func TestToolResult(t *testing.T) {
	result, _, err := toolResult(map[string]any{"files": 2}, output.FormatJSON)
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "{\n  \"files\": 2\n}", resultText(t, result))
}

func TestConfigFor(t *testing.T) {
	server := newTestServer(t)

	cfg, err := server.configFor(ReportOptions{
		Compact:     true,
		Smells:      "inline",
		IncludePath: true,
		Strict:      true,
	}, config.ModeFile, "reports")
	require.NoError(t, err)
	assert.False(t, cfg.Output.Indent)
	assert.Equal(t, "inline", cfg.Output.Smells)
	assert.True(t, cfg.Output.IncludePath)
	assert.True(t, cfg.Analysis.Strict)
	assert.Equal(t, config.ModeFile, cfg.Output.Mode)
	assert.Equal(t, "reports", cfg.Output.Dir)

	assert.True(t, server.config.Output.Indent, "server config must not change")
	assert.Equal(t, config.ModeMethod, server.config.Output.Mode)

	_, err = server.configFor(ReportOptions{Smells: "sideways"}, "", "")
	assert.Error(t, err)
	_, err = server.configFor(ReportOptions{}, "class", "")
	assert.Error(t, err)
}

func TestHandleConvertTestFile(t *testing.T) {
	server := newTestServer(t)
	_, path := writeCalc(t)
	ctx := context.Background()

	t.Run("xml", func(t *testing.T) {
		result, _, err := server.handleConvertTestFile(ctx, nil, ConvertInput{
			Path:          path,
			Format:        "xml",
			ReportOptions: ReportOptions{Compact: true},
		})
		require.NoError(t, err)
		require.False(t, result.IsError, resultText(t, result))
		text := resultText(t, result)
		assert.Contains(t, text, `<test_method name="empty"><empty/></test_method>`)
		assert.Contains(t, text, "<assertion_roulette")
		assert.Contains(t, text, "List&lt;String&gt; xs = new ArrayList&lt;&gt;();")
	})

	t.Run("json", func(t *testing.T) {
		result, _, err := server.handleConvertTestFile(ctx, nil, ConvertInput{Path: path, Format: "json"})
		require.NoError(t, err)
		require.False(t, result.IsError)

		var conv generate.Conversion
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &conv))
		assert.Equal(t, path, conv.Path)
		require.Len(t, conv.Methods, 6)
		assert.Equal(t, "adds_2", conv.Methods[5].Key)
		assert.Equal(t, 1, conv.Methods[1].Roulette)
	})

	t.Run("toon", func(t *testing.T) {
		result, _, err := server.handleConvertTestFile(ctx, nil, ConvertInput{Path: path})
		require.NoError(t, err)
		require.False(t, result.IsError)
		assert.Contains(t, resultText(t, result), "adds_2")
	})

	t.Run("no test methods", func(t *testing.T) {
		plain := filepath.Join(t.TempDir(), "Calc.java")
		testutil.WriteFile(t, plain, testutil.PlainClass)

		result, _, err := server.handleConvertTestFile(ctx, nil, ConvertInput{Path: plain, Format: "xml"})
		require.NoError(t, err)
		assert.False(t, result.IsError)
		assert.Equal(t, "no test methods found in "+plain, resultText(t, result))
	})

	t.Run("missing path", func(t *testing.T) {
		result, _, err := server.handleConvertTestFile(ctx, nil, ConvertInput{})
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Equal(t, "Error: path is required", resultText(t, result))
	})

	t.Run("nonexistent file", func(t *testing.T) {
		result, _, err := server.handleConvertTestFile(ctx, nil, ConvertInput{
			Path: filepath.Join(t.TempDir(), "Missing.java"),
		})
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "source not found")
	})

	t.Run("invalid option", func(t *testing.T) {
		result, _, err := server.handleConvertTestFile(ctx, nil, ConvertInput{
			Path:          path,
			ReportOptions: ReportOptions{Smells: "sideways"},
		})
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "output.smells")
	})
}

func TestHandleGenerateTestReports(t *testing.T) {
	server := newTestServer(t)
	dir, _ := writeCalc(t)
	out := filepath.Join(t.TempDir(), "reports")

	result, _, err := server.handleGenerateTestReports(context.Background(), nil, GenerateInput{
		Paths:  []string{dir},
		OutDir: out,
		Mode:   config.ModeFile,
		Format: "json",
	})
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	var summary generate.Summary
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &summary))
	assert.Equal(t, 1, summary.Files)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 6, summary.Methods)
	assert.Equal(t, 1, summary.Written)
	assert.Equal(t, 1, summary.Roulette)
	assert.Equal(t, []string{"calc/CalcTest.xml"}, testutil.ListFiles(t, out))
}

func TestHandleGenerateTestReports_PartialFailure(t *testing.T) {
	server := newTestServer(t)
	dir, _ := writeCalc(t)
	testutil.WriteFile(t, filepath.Join(dir, "BrokenTest.java"), "class BrokenTest { @Test void a() { int x = ; } }")

	result, _, err := server.handleGenerateTestReports(context.Background(), nil, GenerateInput{
		Paths:         []string{dir},
		OutDir:        filepath.Join(t.TempDir(), "reports"),
		Format:        "json",
		ReportOptions: ReportOptions{Strict: true},
	})
	require.NoError(t, err)
	require.False(t, result.IsError, resultText(t, result))

	var summary generate.Summary
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &summary))
	assert.Equal(t, 2, summary.Files)
	assert.Equal(t, 1, summary.Failed)
}

func TestHandleGenerateTestReports_Errors(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	t.Run("missing path", func(t *testing.T) {
		dir, _ := writeCalc(t)
		missing := filepath.Join(t.TempDir(), "nope")
		result, _, err := server.handleGenerateTestReports(ctx, nil, GenerateInput{
			Paths:  []string{dir, missing},
			OutDir: filepath.Join(t.TempDir(), "reports"),
			Format: "json",
		})
		require.NoError(t, err)
		require.False(t, result.IsError, resultText(t, result))

		var summary generate.Summary
		require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &summary))
		assert.Equal(t, 1, summary.Succeeded)
		assert.Equal(t, 1, summary.Failed)
		assert.Contains(t, resultText(t, result), "source not found")
	})

	t.Run("no sources", func(t *testing.T) {
		result, _, err := server.handleGenerateTestReports(ctx, nil, GenerateInput{
			Paths: []string{t.TempDir()},
		})
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Equal(t, "Error: no Java source files found", resultText(t, result))
	})
}

func TestServerOverTransport(t *testing.T) {
	server := newTestServer(t)
	_, path := writeCalc(t)
	ctx := context.Background()

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"convert_test_file", "generate_test_reports"}, names)

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "convert_test_file",
		Arguments: map[string]any{"path": path, "format": "xml", "compact": true},
	})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), `<test_method name="empty"><empty/></test_method>`)
}

func TestLoadPrompts(t *testing.T) {
	defs, err := loadPrompts()
	require.NoError(t, err)
	require.Len(t, defs, 2)

	assert.Equal(t, "smell-review", defs[0].Name)
	assert.Equal(t, "test-structure", defs[1].Name)
	for _, def := range defs {
		assert.NotEmpty(t, def.Description, def.Name)
		assert.NotEmpty(t, def.Arguments, def.Name)
		assert.NotContains(t, def.Body, "description:", def.Name)
	}
}

func TestPromptHandler(t *testing.T) {
	defs, err := loadPrompts()
	require.NoError(t, err)

	handler := makePromptHandler(defs[0])
	result, err := handler(context.Background(), &mcp.GetPromptRequest{
		Params: &mcp.GetPromptParams{
			Name:      defs[0].Name,
			Arguments: map[string]string{"paths": "src/test"},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)
	assert.Equal(t, defs[0].Description, result.Description)

	msg := result.Messages[0]
	assert.EqualValues(t, "user", msg.Role)
	text := msg.Content.(*mcp.TextContent).Text
	assert.Contains(t, text, "`src/test`")
	assert.Contains(t, text, "keep the top 10")
	assert.NotContains(t, text, "{{")
}

func TestParseFrontmatter(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantDesc string
		wantBody string
	}{
		{
			name:     "with frontmatter",
			content:  "---\ndescription: hi\n---\nbody\n",
			wantDesc: "hi",
			wantBody: "body\n",
		},
		{
			name:     "blank line after frontmatter",
			content:  "---\ndescription: hi\n---\n\nbody",
			wantDesc: "hi",
			wantBody: "body",
		},
		{
			name:     "no frontmatter",
			content:  "just body",
			wantBody: "just body",
		},
		{
			name:     "unterminated",
			content:  "---\ndescription: hi\nbody",
			wantBody: "---\ndescription: hi\nbody",
		},
		{
			name:     "invalid yaml",
			content:  "---\ndescription: [\n---\nbody",
			wantBody: "---\ndescription: [\n---\nbody",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, body := parseFrontmatter([]byte(tt.content))
			assert.Equal(t, tt.wantDesc, fm.Description)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestSubstituteArg(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		args       map[string]string
		defaultVal string
		expected   string
	}{
		{"use provided value", "top {{top}} items", map[string]string{"top": "50"}, "30", "top 50 items"},
		{"use default when missing", "top {{top}} items", map[string]string{}, "30", "top 30 items"},
		{"use default when empty", "top {{top}} items", map[string]string{"top": ""}, "30", "top 30 items"},
		{"nil args", "top {{top}} items", nil, "30", "top 30 items"},
		{"no placeholder unchanged", "no placeholder here", map[string]string{"top": "50"}, "30", "no placeholder here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, substituteArg(tt.text, "top", tt.args, tt.defaultVal))
		})
	}
}

func TestGenerateManifest(t *testing.T) {
	data, err := GenerateManifest("1.2.3")
	require.NoError(t, err)

	var m Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "io.github.panbanda/testxml", m.Name)
	assert.Equal(t, "1.2.3", m.Version)
	require.Len(t, m.Packages, 1)

	pkg := m.Packages[0]
	assert.Equal(t, "ghcr.io/panbanda/testxml:1.2.3", pkg.Identifier)
	assert.Equal(t, "stdio", pkg.Transport.Type)
	require.Len(t, pkg.PackageArguments, 2)
	assert.Equal(t, Argument{Type: "positional", Value: "mcp"}, pkg.PackageArguments[0])
	assert.Equal(t, "--config", pkg.PackageArguments[1].Name)
	require.Len(t, pkg.EnvironmentVariables, 1)
	assert.Equal(t, config.EnvConfigPath, pkg.EnvironmentVariables[0].Name)
	assert.False(t, pkg.EnvironmentVariables[0].IsRequired)
}

func TestNewManifest_UnreleasedVersion(t *testing.T) {
	for _, version := range []string{"", "dev"} {
		m := NewManifest(version)
		assert.Equal(t, "0.0.0", m.Version)
		assert.Equal(t, "ghcr.io/panbanda/testxml:0.0.0", m.Packages[0].Identifier)
	}
}
