// Package mutate rewrites paragraph structure so a resolved edit becomes
// native tracked insertion/deletion markup.
//
// Every rewrite builds a brand-new child sequence for the affected
// paragraph and swaps it in atomically; no node references are held across
// the swap. Formatting containers are cloned verbatim, so fonts, weights,
// and language tags survive the edit.
package mutate

import (
	"strconv"
	"strings"

	"github.com/FocuswithJustin/Redline/core/anchor"
	"github.com/FocuswithJustin/Redline/core/edits"
	"github.com/FocuswithJustin/Redline/core/errors"
	"github.com/FocuswithJustin/Redline/core/extract"
	"github.com/FocuswithJustin/Redline/core/markup"
	"github.com/FocuswithJustin/Redline/core/revision"
)

// Mutator applies resolved operations to the document tree. It draws ids
// and provenance from the pass allocator.
type Mutator struct {
	alloc *revision.Allocator
}

// New creates a mutator bound to a pass allocator.
func New(alloc *revision.Allocator) *Mutator {
	return &Mutator{alloc: alloc}
}

// Apply performs the structural rewrite for one operation at the given
// location. Structural failures (a spanned leaf without an enclosing run
// or paragraph, or a span crossing paragraphs) are reported as
// StructuralError; the caller skips the operation and continues.
func (m *Mutator) Apply(spans []extract.Span, loc anchor.Location, op edits.Operation) error {
	start := spans[loc.Start]
	end := spans[loc.End]

	if start.Run == nil || end.Run == nil {
		return errors.NewStructural("apply", "text leaf has no enclosing run")
	}
	if start.Paragraph == nil || end.Paragraph == nil {
		return errors.NewStructural("apply", "run has no ancestor paragraph")
	}
	if start.Paragraph != end.Paragraph {
		return errors.NewStructural("apply", "anchor spans paragraph boundary")
	}

	if loc.Start == loc.End {
		return m.applySingleRun(start, loc, op)
	}
	return m.applyMultiRun(spans, loc, op)
}

// applySingleRun handles a match contained in one run: split into up to
// three adjacent pieces, with the trailing remainder retained in the
// original run when non-empty.
func (m *Mutator) applySingleRun(span extract.Span, loc anchor.Location, op edits.Operation) error {
	para := span.Paragraph
	idx := childIndex(para, span.Run)
	if idx < 0 {
		return errors.NewStructural("apply", "run is not a direct child of its paragraph")
	}

	text := span.Text
	struck := text[loc.StartOffset:loc.EndOffset]
	pair := m.alloc.NextPair()

	rebuilt := make([]*markup.Node, 0, len(para.Children)+3)
	rebuilt = append(rebuilt, para.Children[:idx]...)

	if loc.StartOffset > 0 {
		rebuilt = append(rebuilt, remainderRun(span.Run, text[:loc.StartOffset]))
	}
	rebuilt = append(rebuilt, m.marker("del", pair.DeletionID, deletedRun(span.Run, struck)))
	if op.Kind != edits.Delete {
		rebuilt = append(rebuilt, m.marker("ins", pair.InsertionID, insertedRun(span.Run, op.Replacement)))
	}
	if loc.EndOffset < len(text) {
		// The original run is retained with the trailing remainder.
		span.Leaf.Text = text[loc.EndOffset:]
		span.Leaf.SetAttr("xml", "space", "preserve")
		rebuilt = append(rebuilt, span.Run)
	}

	rebuilt = append(rebuilt, para.Children[idx+1:]...)
	para.Children = rebuilt
	return nil
}

// applyMultiRun handles a match spanning several runs: an optional leading
// remainder cloned from the start run, the markers, an optional trailing
// remainder cloned from the end run, and removal of the whole spanned
// child range.
func (m *Mutator) applyMultiRun(spans []extract.Span, loc anchor.Location, op edits.Operation) error {
	start := spans[loc.Start]
	end := spans[loc.End]
	para := start.Paragraph

	si := childIndex(para, start.Run)
	ei := childIndex(para, end.Run)
	if si < 0 || ei < 0 {
		return errors.NewStructural("apply", "spanned run is not a direct child of its paragraph")
	}
	if ei < si {
		return errors.NewStructural("apply", "spanned runs out of order in paragraph")
	}

	// The struck text is the match as it reads in the document: the tail
	// of the start span, the middle spans, and the head of the end span.
	var struck strings.Builder
	struck.WriteString(start.Text[loc.StartOffset:])
	for i := loc.Start + 1; i < loc.End; i++ {
		struck.WriteString(spans[i].Text)
	}
	struck.WriteString(end.Text[:loc.EndOffset])

	pair := m.alloc.NextPair()

	rebuilt := make([]*markup.Node, 0, len(para.Children)+3)
	rebuilt = append(rebuilt, para.Children[:si]...)

	if loc.StartOffset > 0 {
		rebuilt = append(rebuilt, remainderRun(start.Run, start.Text[:loc.StartOffset]))
	}
	rebuilt = append(rebuilt, m.marker("del", pair.DeletionID, deletedRun(start.Run, struck.String())))
	if op.Kind != edits.Delete {
		rebuilt = append(rebuilt, m.marker("ins", pair.InsertionID, insertedRun(start.Run, op.Replacement)))
	}
	if loc.EndOffset < len(end.Text) {
		rebuilt = append(rebuilt, remainderRun(end.Run, end.Text[loc.EndOffset:]))
	}

	// Every child in the spanned range is removed; no original spanned run
	// survives unmodified.
	rebuilt = append(rebuilt, para.Children[ei+1:]...)
	para.Children = rebuilt
	return nil
}

// marker builds a w:del or w:ins wrapper carrying the pass provenance.
func (m *Mutator) marker(tag string, id int, run *markup.Node) *markup.Node {
	node := markup.NewElement("w", tag)
	node.SetAttr("w", "id", strconv.Itoa(id))
	node.SetAttr("w", "author", m.alloc.Author())
	node.SetAttr("w", "date", m.alloc.Date())
	node.Append(run)
	return node
}

// remainderRun clones src's formatting into a plain run holding text.
func remainderRun(src *markup.Node, text string) *markup.Node {
	return cloneRun(src, "t", text)
}

// deletedRun clones src's formatting into a run whose w:delText leaf holds
// the original struck text.
func deletedRun(src *markup.Node, text string) *markup.Node {
	return cloneRun(src, "delText", text)
}

// insertedRun clones src's formatting into a run holding the replacement.
func insertedRun(src *markup.Node, text string) *markup.Node {
	return cloneRun(src, "t", text)
}

// cloneRun builds a new run copying src's formatting-properties subtree
// verbatim, with a single text leaf of the given tag. The leaf always
// preserves whitespace so leading/trailing spaces survive round-trips.
func cloneRun(src *markup.Node, leafTag, text string) *markup.Node {
	run := markup.NewElement("w", "r")
	if props := src.RunProps(); props != nil {
		run.Append(props.Clone())
	}
	leaf := markup.NewElement("w", leafTag)
	leaf.Text = text
	leaf.SetAttr("xml", "space", "preserve")
	run.Append(leaf)
	return run
}

// childIndex locates a node in a parent's direct child sequence by
// identity.
func childIndex(parent, child *markup.Node) int {
	for i, c := range parent.Children {
		if c == child {
			return i
		}
	}
	return -1
}
