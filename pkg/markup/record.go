// Package markup holds the record tree that test-method reports are built
// from and renders it as XML.
//
// Records carry raw, unescaped text. Render escapes every attribute value and
// text node exactly once, so callers never escape anything themselves.
package markup

import "strings"

// Attr is a single attribute. Attributes keep their insertion order.
type Attr struct {
	Name  string
	Value string
}

// Record is one element of a report: a tag with ordered attributes and
// either text or child records.
type Record struct {
	Tag      string
	Attrs    []Attr
	Text     string
	Children []*Record
}

// New creates a record with no attributes, text or children.
func New(tag string) *Record {
	return &Record{Tag: tag}
}

// NewText creates a text record.
func NewText(tag, text string) *Record {
	return &Record{Tag: tag, Text: text}
}

// WithAttr appends an attribute and returns r for chaining.
func (r *Record) WithAttr(name, value string) *Record {
	r.Attrs = append(r.Attrs, Attr{Name: name, Value: value})
	return r
}

// Append adds children in order and returns r.
func (r *Record) Append(children ...*Record) *Record {
	for _, c := range children {
		if c != nil {
			r.Children = append(r.Children, c)
		}
	}
	return r
}

// Attr returns the value of the named attribute.
func (r *Record) Attr(name string) (string, bool) {
	for _, a := range r.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Find returns the direct children with the given tag.
func (r *Record) Find(tag string) []*Record {
	var out []*Record
	for _, c := range r.Children {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

// Count returns how many records with the given tag exist in the subtree
// rooted at r, r included.
func (r *Record) Count(tag string) int {
	n := 0
	if r.Tag == tag {
		n++
	}
	for _, c := range r.Children {
		n += c.Count(tag)
	}
	return n
}

// Tags returns the tags of the direct children in order.
func (r *Record) Tags() []string {
	tags := make([]string, len(r.Children))
	for i, c := range r.Children {
		tags[i] = c.Tag
	}
	return tags
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

// Escape replaces &, < and > with their entities in a single pass, so an
// entity produced for < or > is never re-escaped.
func Escape(s string) string {
	return textEscaper.Replace(s)
}

// EscapeAttr is Escape plus the double quote.
func EscapeAttr(s string) string {
	return attrEscaper.Replace(s)
}
