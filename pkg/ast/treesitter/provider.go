package treesitter

import (
	"context"

	"github.com/panbanda/testxml/pkg/ast"
	"github.com/panbanda/testxml/pkg/parser"
)

// Ensure Provider implements ast.Provider.
var _ ast.Provider = (*Provider)(nil)

// Provider implements ast.Provider using tree-sitter.
type Provider struct {
	parser *parser.Parser
}

// New creates a new tree-sitter based provider.
func New() *Provider {
	return &Provider{
		parser: parser.New(),
	}
}

// Parse parses a Java file into the node model.
func (p *Provider) Parse(path string) (*ast.File, error) {
	result, err := p.parser.ParseFile(path)
	if err != nil {
		return nil, err
	}
	defer result.Close()
	return Convert(result), nil
}

// ParseSource parses in-memory Java source into the node model.
func (p *Provider) ParseSource(source []byte, path string) (*ast.File, error) {
	result, err := p.parser.Parse(context.Background(), source, parser.LangJava, path)
	if err != nil {
		return nil, err
	}
	defer result.Close()
	return Convert(result), nil
}

// Close releases parser resources.
func (p *Provider) Close() {
	p.parser.Close()
}

// Convert builds the node model for every method declaration in a parse
// result, including methods of nested and anonymous classes.
func Convert(result *parser.ParseResult) *ast.File {
	f := &ast.File{
		Path:   result.Path,
		Broken: result.HasErrors(),
	}

	root := result.Tree.RootNode()
	for _, node := range parser.FindNodesByType(root, result.Source, "method_declaration") {
		c := newConverter(result.Source)
		f.Methods = append(f.Methods, c.method(node))
	}
	return f
}
