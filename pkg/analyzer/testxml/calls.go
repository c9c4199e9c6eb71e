package testxml

import (
	"strings"

	"github.com/panbanda/testxml/pkg/analyzer/assertions"
	"github.com/panbanda/testxml/pkg/ast"
	"github.com/panbanda/testxml/pkg/markup"
)

// printPrefixes are the call texts rendered as print records.
var printPrefixes = []string{"System.out.println(", "println("}

// IsPrint reports whether call is a console print.
func IsPrint(call *ast.MethodCall) bool {
	for _, p := range printPrefixes {
		if strings.HasPrefix(call.Raw, p) {
			return true
		}
	}
	return false
}

// ClassifyCall renders a statement-level method call. Assertions yield an
// assert record, followed by assert_literals when any argument is a numeric
// literal; prints yield their argument list; anything else is a methodCall.
func ClassifyCall(call *ast.MethodCall) []*markup.Record {
	switch {
	case assertions.IsAssertion(call.Name):
		records := []*markup.Record{markup.NewText(TagAssert, call.Raw)}
		if lits := numericLiterals(call); lits != nil {
			records = append(records, lits)
		}
		return records
	case IsPrint(call):
		return []*markup.Record{markup.NewText(TagPrint, printArgs(call))}
	default:
		return []*markup.Record{markup.NewText(TagMethodCall, call.Raw)}
	}
}

func numericLiterals(call *ast.MethodCall) *markup.Record {
	var lits *markup.Record
	for _, arg := range call.Args {
		if !ast.IsNumericLiteral(arg) {
			continue
		}
		if lits == nil {
			lits = markup.New(TagAssertLiterals)
		}
		lits.Append(markup.NewText(TagLiteral, arg.Text()).WithAttr("type", "number"))
	}
	return lits
}

func printArgs(call *ast.MethodCall) string {
	args := make([]string, len(call.Args))
	for i, a := range call.Args {
		args[i] = a.Text()
	}
	return strings.TrimSpace(strings.Join(args, ", "))
}
