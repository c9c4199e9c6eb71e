package treesitter

import (
	"strings"

	"github.com/panbanda/testxml/pkg/ast"
	"github.com/panbanda/testxml/pkg/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

// span identifies a node by its byte range.
type span struct {
	start, end uint32
}

// converter turns one method declaration into the node model.
type converter struct {
	source  []byte
	calls   map[span]*ast.MethodCall
	orphans []ast.Comment
}

func newConverter(source []byte) *converter {
	return &converter{
		source: source,
		calls:  make(map[span]*ast.MethodCall),
	}
}

func (c *converter) text(n *sitter.Node) string {
	return parser.GetNodeText(n, c.source)
}

func (c *converter) method(n *sitter.Node) *ast.Method {
	m := &ast.Method{
		Name:        c.text(n.ChildByFieldName("name")),
		Annotations: c.annotations(n),
		Line:        parser.StartLine(n),
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		return m
	}

	m.HasBody = true
	m.Body = c.block(body)
	for _, call := range parser.FindNodesByType(body, c.source, "method_invocation") {
		m.Calls = append(m.Calls, c.call(call))
	}
	m.Orphans = c.orphans
	return m
}

// annotations returns the simple names of the method's annotations.
func (c *converter) annotations(n *sitter.Node) []string {
	var names []string
	for i := range int(n.ChildCount()) {
		mods := n.Child(i)
		if mods.Type() != "modifiers" {
			continue
		}
		for j := range int(mods.ChildCount()) {
			a := mods.Child(j)
			if a.Type() != "marker_annotation" && a.Type() != "annotation" {
				continue
			}
			name := c.text(a.ChildByFieldName("name"))
			if idx := strings.LastIndex(name, "."); idx >= 0 {
				name = name[idx+1:]
			}
			if name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

// block converts the statements of a block, attaching comments.
// A comment attaches to the statement that follows it, or to the previous
// statement when it trails that statement on the same line.
func (c *converter) block(n *sitter.Node) []ast.Statement {
	stmts := make([]ast.Statement, 0, n.NamedChildCount())

	var (
		pending *ast.Comment
		prev    ast.Statement
		prevEnd int
	)
	for i := range int(n.NamedChildCount()) {
		child := n.NamedChild(i)
		if isComment(child.Type()) {
			cm := c.comment(child)
			if prev != nil && ast.MetaOf(prev).Comment == nil && parser.StartLine(child) == prevEnd {
				ast.MetaOf(prev).Comment = &cm
				continue
			}
			if pending != nil {
				c.orphans = append(c.orphans, *pending)
			}
			pending = &cm
			continue
		}

		stmt := c.statement(child)
		if pending != nil {
			ast.MetaOf(stmt).Comment = pending
			pending = nil
		}
		stmts = append(stmts, stmt)
		prev = stmt
		prevEnd = parser.EndLine(child)
	}
	if pending != nil {
		c.orphans = append(c.orphans, *pending)
	}
	return stmts
}

// body converts a statement used as a body. Non-block bodies become a
// single-statement slice.
func (c *converter) body(n *sitter.Node) []ast.Statement {
	switch {
	case n == nil || n.Type() == ";":
		return []ast.Statement{}
	case n.Type() == "block":
		return c.block(n)
	default:
		return []ast.Statement{c.statement(n)}
	}
}

func (c *converter) meta(n *sitter.Node) ast.Meta {
	return ast.Meta{
		Line: parser.StartLine(n),
		Raw:  c.text(n),
	}
}

func (c *converter) statement(n *sitter.Node) ast.Statement {
	switch n.Type() {
	case "expression_statement":
		return &ast.ExpressionStmt{Meta: c.meta(n), Expr: c.expr(firstNamed(n))}
	case "for_statement":
		return c.forStmt(n)
	case "enhanced_for_statement":
		return c.forEachStmt(n)
	case "if_statement":
		return c.ifStmt(n)
	case "while_statement":
		return &ast.WhileStmt{
			Meta:      c.meta(n),
			Condition: c.condition(n.ChildByFieldName("condition")),
			Body:      c.body(n.ChildByFieldName("body")),
		}
	case "try_statement", "try_with_resources_statement":
		return c.tryStmt(n)
	default:
		return &ast.OtherStmt{Meta: c.meta(n)}
	}
}

// forStmt splits the header on its semicolons. A local variable declaration
// in the init position carries its own semicolon.
func (c *converter) forStmt(n *sitter.Node) *ast.ForStmt {
	stmt := &ast.ForStmt{Meta: c.meta(n)}

	const (
		phaseInit = iota
		phaseCompare
		phaseUpdate
		phaseBody
	)
	phase := phaseInit
	for i := range int(n.ChildCount()) {
		child := n.Child(i)
		t := child.Type()
		switch {
		case t == "for" || t == "(" || t == "," || isComment(t):
		case t == ")":
			phase = phaseBody
		case t == ";":
			phase++
		case phase == phaseInit:
			if t == "local_variable_declaration" {
				stmt.Init = append(stmt.Init, strings.TrimSuffix(strings.TrimSpace(c.text(child)), ";"))
				phase = phaseCompare
			} else {
				stmt.Init = append(stmt.Init, c.text(child))
			}
		case phase == phaseCompare:
			stmt.Compare = c.text(child)
		case phase == phaseUpdate:
			stmt.Update = append(stmt.Update, c.text(child))
		}
	}

	stmt.Body = c.body(n.ChildByFieldName("body"))
	return stmt
}

// forEachStmt takes the variable as the source between "(" and ":".
func (c *converter) forEachStmt(n *sitter.Node) *ast.ForEachStmt {
	stmt := &ast.ForEachStmt{
		Meta:     c.meta(n),
		Iterable: c.text(n.ChildByFieldName("value")),
		Body:     c.body(n.ChildByFieldName("body")),
	}

	var first, last *sitter.Node
	open := false
	for i := range int(n.ChildCount()) {
		child := n.Child(i)
		t := child.Type()
		if t == "(" {
			open = true
			continue
		}
		if t == ":" {
			break
		}
		if !open || isComment(t) {
			continue
		}
		if first == nil {
			first = child
		}
		last = child
	}
	if first != nil {
		stmt.Variable = string(c.source[first.StartByte():last.EndByte()])
	}
	return stmt
}

func (c *converter) ifStmt(n *sitter.Node) *ast.IfStmt {
	stmt := &ast.IfStmt{
		Meta:      c.meta(n),
		Condition: c.condition(n.ChildByFieldName("condition")),
		Then:      c.body(n.ChildByFieldName("consequence")),
	}
	if alt := n.ChildByFieldName("alternative"); alt != nil {
		stmt.HasElse = true
		stmt.Else = c.body(alt)
	}
	return stmt
}

func (c *converter) tryStmt(n *sitter.Node) *ast.TryStmt {
	stmt := &ast.TryStmt{
		Meta: c.meta(n),
		Body: c.body(n.ChildByFieldName("body")),
	}
	for i := range int(n.NamedChildCount()) {
		child := n.NamedChild(i)
		switch child.Type() {
		case "catch_clause":
			clause := ast.CatchClause{Body: c.body(child.ChildByFieldName("body"))}
			if param := childOfType(child, "catch_formal_parameter"); param != nil {
				clause.Param = c.text(param)
			}
			stmt.Catches = append(stmt.Catches, clause)
		case "finally_clause":
			stmt.HasFinally = true
			stmt.Finally = c.body(childOfType(child, "block"))
		}
	}
	return stmt
}

// condition strips the parentheses around an if or while condition.
func (c *converter) condition(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	if n.Type() == "parenthesized_expression" {
		if inner := firstNamed(n); inner != nil {
			return c.text(inner)
		}
		return strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(c.text(n), "("), ")"))
	}
	return c.text(n)
}

func (c *converter) expr(n *sitter.Node) ast.Expr {
	if n == nil {
		return &ast.RawExpr{}
	}
	if n.Type() == "method_invocation" {
		return c.call(n)
	}
	if kind, ok := c.literalKind(n); ok {
		return &ast.Literal{Kind: kind, Raw: c.text(n)}
	}
	return &ast.RawExpr{Raw: c.text(n)}
}

// call converts a method invocation. The same node always yields the same
// *ast.MethodCall so statement-level calls can be matched against
// Method.Calls by identity.
func (c *converter) call(n *sitter.Node) *ast.MethodCall {
	key := span{n.StartByte(), n.EndByte()}
	if call, ok := c.calls[key]; ok {
		return call
	}

	call := &ast.MethodCall{
		Name: c.text(n.ChildByFieldName("name")),
		Raw:  c.text(n),
		Line: parser.StartLine(n),
	}
	c.calls[key] = call

	if args := n.ChildByFieldName("arguments"); args != nil {
		for i := range int(args.NamedChildCount()) {
			arg := args.NamedChild(i)
			if isComment(arg.Type()) {
				continue
			}
			call.Args = append(call.Args, c.expr(arg))
		}
	}
	return call
}

// comment strips comment markers and surrounding whitespace.
func (c *converter) comment(n *sitter.Node) ast.Comment {
	text := c.text(n)
	switch {
	case strings.HasPrefix(text, "//"):
		text = strings.TrimPrefix(text, "//")
	case strings.HasPrefix(text, "/*"):
		text = strings.TrimSuffix(strings.TrimPrefix(text, "/*"), "*/")
		text = strings.TrimPrefix(text, "*")
	}
	return ast.Comment{
		Text: strings.TrimSpace(text),
		Line: parser.StartLine(n),
	}
}

func (c *converter) literalKind(n *sitter.Node) (ast.LiteralKind, bool) {
	switch n.Type() {
	case "decimal_integer_literal", "hex_integer_literal", "octal_integer_literal", "binary_integer_literal":
		if strings.HasSuffix(strings.ToLower(c.text(n)), "l") {
			return ast.LiteralLong, true
		}
		return ast.LiteralInteger, true
	case "decimal_floating_point_literal", "hex_floating_point_literal":
		return ast.LiteralDouble, true
	case "character_literal":
		return ast.LiteralChar, true
	case "string_literal", "text_block":
		return ast.LiteralString, true
	case "true", "false":
		return ast.LiteralBoolean, true
	case "null_literal":
		return ast.LiteralNull, true
	default:
		return ast.LiteralOther, false
	}
}

func isComment(nodeType string) bool {
	switch nodeType {
	case "comment", "line_comment", "block_comment":
		return true
	default:
		return false
	}
}

func firstNamed(n *sitter.Node) *sitter.Node {
	for i := range int(n.NamedChildCount()) {
		child := n.NamedChild(i)
		if !isComment(child.Type()) {
			return child
		}
	}
	return nil
}

func childOfType(n *sitter.Node, nodeType string) *sitter.Node {
	for i := range int(n.ChildCount()) {
		if child := n.Child(i); child.Type() == nodeType {
			return child
		}
	}
	return nil
}
