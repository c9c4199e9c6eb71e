package testxml

import (
	"strings"

	"github.com/panbanda/testxml/pkg/ast"
	"github.com/panbanda/testxml/pkg/markup"
)

// Serializer turns statement trees into report records.
// A Serializer holds no state between calls and is safe for concurrent use
// as long as its hook is.
type Serializer struct {
	// AfterCall, when set, is called for every statement-level method call
	// and its records are emitted right after the call's own records.
	AfterCall func(call *ast.MethodCall) []*markup.Record
}

// SerializeStatements serializes stmts with a zero Serializer.
func SerializeStatements(stmts []ast.Statement) []*markup.Record {
	var s Serializer
	return s.Serialize(stmts)
}

// Serialize emits records for stmts in order. Statements whose raw text
// repeats an earlier sibling are skipped along with their bodies; each
// nested body is deduplicated on its own.
func (s *Serializer) Serialize(stmts []ast.Statement) []*markup.Record {
	records := make([]*markup.Record, 0, len(stmts))
	seen := make(map[string]struct{}, len(stmts))

	lastCommentLine, commented := ast.NoLine, false
	for _, stmt := range stmts {
		if stmt == nil {
			continue
		}
		meta := ast.MetaOf(stmt)
		if meta.Raw != "" {
			if _, dup := seen[meta.Raw]; dup {
				continue
			}
			seen[meta.Raw] = struct{}{}
		}

		if meta.Comment != nil {
			line := ast.LineOf(stmt)
			if !commented || line != lastCommentLine {
				records = append(records, markup.NewText(TagComment, meta.Comment.Text))
				lastCommentLine, commented = line, true
			}
		}

		records = append(records, s.statement(stmt)...)
	}
	return records
}

func (s *Serializer) statement(stmt ast.Statement) []*markup.Record {
	switch st := stmt.(type) {
	case *ast.ExpressionStmt:
		if call, ok := st.Expr.(*ast.MethodCall); ok {
			records := ClassifyCall(call)
			if s.AfterCall != nil {
				records = append(records, s.AfterCall(call)...)
			}
			return records
		}
		return []*markup.Record{markup.NewText(TagStatement, st.Raw)}

	case *ast.ForStmt:
		cond := strings.Join(st.Init, ", ") + "; " + st.Compare + "; " + strings.Join(st.Update, ", ")
		return one(markup.New(TagLoopFor).WithAttr("condition", cond).Append(s.Serialize(st.Body)...))

	case *ast.ForEachStmt:
		r := markup.New(TagForEach).Append(
			markup.NewText(TagVariable, st.Variable),
			markup.NewText(TagIterable, st.Iterable),
		)
		return one(r.Append(s.Serialize(st.Body)...))

	case *ast.IfStmt:
		r := markup.New(TagIf).WithAttr("condition", st.Condition).Append(s.Serialize(st.Then)...)
		if st.HasElse {
			r.Append(markup.New(TagElse).Append(s.Serialize(st.Else)...))
		}
		return one(r)

	case *ast.WhileStmt:
		return one(markup.New(TagWhile).WithAttr("condition", st.Condition).Append(s.Serialize(st.Body)...))

	case *ast.TryStmt:
		r := markup.New(TagTry).Append(s.Serialize(st.Body)...)
		for _, c := range st.Catches {
			catch := markup.New(TagCatch)
			if c.Param != "" {
				catch.WithAttr("param", c.Param)
			}
			r.Append(catch.Append(s.Serialize(c.Body)...))
		}
		if st.HasFinally {
			r.Append(markup.New(TagFinally).Append(s.Serialize(st.Finally)...))
		}
		return one(r)

	default:
		return []*markup.Record{markup.NewText(TagStatement, ast.MetaOf(stmt).Raw)}
	}
}

func one(r *markup.Record) []*markup.Record {
	return []*markup.Record{r}
}
