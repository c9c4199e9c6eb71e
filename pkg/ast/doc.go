// Package ast defines the node model the report generator works on: Java
// method declarations whose bodies are trees of typed statements and
// expressions, each carrying its raw source text, an optional line and an
// optional attached comment.
//
// The model is produced by a Provider. The tree-sitter implementation lives
// in the treesitter subpackage; tests build trees by hand.
//
// Usage:
//
//	provider := treesitter.New()
//	defer provider.Close()
//
//	file, err := provider.Parse("src/test/java/FooTest.java")
//	if err != nil {
//	    return err
//	}
//
//	for _, m := range file.TestMethods("Test") {
//	    fmt.Printf("%s at line %d\n", m.Name, m.Line)
//	}
package ast
