package ast

// NoLine is the line used for nodes without position information.
const NoLine = -1

// Provider abstracts the parser that builds the node model.
type Provider interface {
	// Parse parses the file at path.
	Parse(path string) (*File, error)

	// ParseSource parses source already in memory. path is informational.
	ParseSource(source []byte, path string) (*File, error)

	// Close releases provider resources.
	Close()
}

// File is one parsed compilation unit.
type File struct {
	Path    string
	Methods []*Method
	// Broken is set when the parser recovered from syntax errors.
	Broken bool
}

// TestMethods returns the methods carrying any of the given annotations,
// compared by simple name.
func (f *File) TestMethods(annotations ...string) []*Method {
	var out []*Method
	for _, m := range f.Methods {
		if m.HasAnnotation(annotations...) {
			out = append(out, m)
		}
	}
	return out
}

// Method is a method declaration.
type Method struct {
	Name        string
	Annotations []string
	Line        int
	// HasBody is false for abstract and interface methods.
	HasBody bool
	Body    []Statement
	// Calls holds every method call inside the body in document order,
	// including calls nested in arguments, initializers and lambdas.
	Calls []*MethodCall
	// Orphans are body comments not attached to any statement.
	Orphans []Comment
}

// HasAnnotation reports whether the method carries one of names.
func (m *Method) HasAnnotation(names ...string) bool {
	for _, a := range m.Annotations {
		for _, n := range names {
			if a == n {
				return true
			}
		}
	}
	return false
}

// IsEmpty reports whether the method has no body or no statements.
func (m *Method) IsEmpty() bool {
	return !m.HasBody || len(m.Body) == 0
}

// Comment is a source comment with its markers stripped.
type Comment struct {
	Text string
	Line int
}
