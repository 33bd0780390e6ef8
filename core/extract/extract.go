// Package extract flattens a markup tree into the ordered sequence of
// text-bearing spans that anchor resolution and mutation treat as ground
// truth for document order.
package extract

import (
	"strings"

	"github.com/FocuswithJustin/Redline/core/markup"
)

// Span is one non-blank text leaf in document order. Concatenating the
// Text of all spans in Index order reproduces the document's linear
// reading text. Whitespace-only leaves are dropped, and so are absent
// from the matching surface.
type Span struct {
	// Leaf is the text leaf itself.
	Leaf *markup.Node
	// Run is the leaf's enclosing run, nil if the leaf sits outside one.
	Run *markup.Node
	// Paragraph is the nearest paragraph ancestor, nil if there is none.
	Paragraph *markup.Node
	// Text is the leaf's character span.
	Text string
	// Index is the span's position in document order.
	Index int
}

// Flatten walks the document tree in document order and returns one Span
// per non-blank text leaf. It has no side effects on the tree.
func Flatten(doc *markup.Document) []Span {
	var spans []Span
	doc.Root.Walk(func(n *markup.Node, parents []*markup.Node) {
		if n.Kind != markup.KindText {
			return
		}
		if strings.TrimSpace(n.Text) == "" {
			return
		}
		span := Span{
			Leaf:  n,
			Text:  n.Text,
			Index: len(spans),
		}
		// Nearest enclosing run and paragraph; either may be absent in
		// malformed or exotic structures, which the mutator reports as a
		// structural failure.
		for i := len(parents) - 1; i >= 0; i-- {
			switch parents[i].Kind {
			case markup.KindRun:
				if span.Run == nil {
					span.Run = parents[i]
				}
			case markup.KindParagraph:
				if span.Paragraph == nil {
					span.Paragraph = parents[i]
				}
			}
		}
		spans = append(spans, span)
	})
	return spans
}

// Text concatenates all span texts in order, producing the document's
// linear reading text.
func Text(spans []Span) string {
	var sb strings.Builder
	for _, s := range spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}
