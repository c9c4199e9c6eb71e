package ast

// Meta is carried by every statement.
type Meta struct {
	// Line is 1-based; zero or negative means unknown.
	Line    int
	Comment *Comment
	// Raw is the statement's source text.
	Raw string
}

func (m *Meta) meta() *Meta { return m }

// Statement is one of *ExpressionStmt, *ForStmt, *ForEachStmt, *IfStmt,
// *WhileStmt, *TryStmt or *OtherStmt.
type Statement interface {
	meta() *Meta
}

// MetaOf returns the metadata of s.
func MetaOf(s Statement) *Meta {
	return s.meta()
}

// LineOf returns the statement's line, or NoLine when unknown.
func LineOf(s Statement) int {
	if l := s.meta().Line; l > 0 {
		return l
	}
	return NoLine
}

// ExpressionStmt is an expression used as a statement.
type ExpressionStmt struct {
	Meta
	Expr Expr
}

// ForStmt is a classic three-clause for loop.
type ForStmt struct {
	Meta
	Init    []string
	Compare string
	Update  []string
	Body    []Statement
}

// ForEachStmt is an enhanced for loop.
type ForEachStmt struct {
	Meta
	Variable string
	Iterable string
	Body     []Statement
}

// IfStmt is an if statement. An else-if chain is an Else holding one *IfStmt.
type IfStmt struct {
	Meta
	Condition string
	Then      []Statement
	HasElse   bool
	Else      []Statement
}

// WhileStmt is a while loop.
type WhileStmt struct {
	Meta
	Condition string
	Body      []Statement
}

// TryStmt is a try statement, with or without resources.
type TryStmt struct {
	Meta
	Body       []Statement
	Catches    []CatchClause
	HasFinally bool
	Finally    []Statement
}

// CatchClause is one catch block.
type CatchClause struct {
	Param string
	Body  []Statement
}

// OtherStmt is any statement without dedicated handling.
type OtherStmt struct {
	Meta
}

// LiteralKind classifies literal expressions.
type LiteralKind int

const (
	LiteralOther LiteralKind = iota
	LiteralInteger
	LiteralLong
	LiteralDouble
	LiteralChar
	LiteralString
	LiteralBoolean
	LiteralNull
)

// Expr is one of *MethodCall, *Literal or *RawExpr.
type Expr interface {
	Text() string
}

// MethodCall is a method invocation.
type MethodCall struct {
	Name string
	Args []Expr
	Raw  string
	Line int
}

// Text returns the call's source text.
func (c *MethodCall) Text() string { return c.Raw }

// Literal is a literal expression.
type Literal struct {
	Kind LiteralKind
	Raw  string
}

// Text returns the literal's source text.
func (l *Literal) Text() string { return l.Raw }

// RawExpr is any other expression.
type RawExpr struct {
	Raw string
}

// Text returns the expression's source text.
func (r *RawExpr) Text() string { return r.Raw }

// IsNumericLiteral reports whether e is an integer, long, floating point or
// character literal.
func IsNumericLiteral(e Expr) bool {
	lit, ok := e.(*Literal)
	if !ok {
		return false
	}
	switch lit.Kind {
	case LiteralInteger, LiteralLong, LiteralDouble, LiteralChar:
		return true
	default:
		return false
	}
}
