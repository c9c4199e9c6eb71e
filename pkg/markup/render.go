package markup

import (
	"io"
	"strings"
)

// Style selects the layout of rendered output.
type Style int

const (
	// Compact emits no whitespace between tags.
	Compact Style = iota
	// Indented puts every element on its own line, nested with tabs.
	Indented
)

// Render renders r in the given style. Indented output ends with a newline.
func Render(r *Record, style Style) string {
	var b strings.Builder
	if style == Indented {
		writeIndented(&b, r, 0)
	} else {
		writeCompact(&b, r)
	}
	return b.String()
}

// WriteTo renders r to w.
func WriteTo(w io.Writer, r *Record, style Style) error {
	_, err := io.WriteString(w, Render(r, style))
	return err
}

func writeOpen(b *strings.Builder, r *Record) {
	b.WriteByte('<')
	b.WriteString(r.Tag)
	for _, a := range r.Attrs {
		b.WriteByte(' ')
		b.WriteString(a.Name)
		b.WriteString(`="`)
		b.WriteString(EscapeAttr(a.Value))
		b.WriteByte('"')
	}
}

func writeClose(b *strings.Builder, r *Record) {
	b.WriteString("</")
	b.WriteString(r.Tag)
	b.WriteByte('>')
}

func isLeaf(r *Record) bool {
	return len(r.Children) == 0
}

func writeCompact(b *strings.Builder, r *Record) {
	writeOpen(b, r)
	if isLeaf(r) && r.Text == "" {
		b.WriteString("/>")
		return
	}
	b.WriteByte('>')
	b.WriteString(Escape(r.Text))
	for _, c := range r.Children {
		writeCompact(b, c)
	}
	writeClose(b, r)
}

func writeIndented(b *strings.Builder, r *Record, depth int) {
	indent := strings.Repeat("\t", depth)
	b.WriteString(indent)
	if isLeaf(r) {
		writeCompact(b, r)
		b.WriteByte('\n')
		return
	}

	writeOpen(b, r)
	b.WriteString(">\n")
	if r.Text != "" {
		b.WriteString(indent)
		b.WriteByte('\t')
		b.WriteString(Escape(r.Text))
		b.WriteByte('\n')
	}
	for _, c := range r.Children {
		writeIndented(b, c, depth+1)
	}
	b.WriteString(indent)
	writeClose(b, r)
	b.WriteByte('\n')
}
