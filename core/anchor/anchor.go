// Package anchor resolves plain-text anchors against the flattened span
// sequence of a document.
//
// Resolution is a pure function of the span snapshot and the anchor text:
// nothing here mutates the tree, and two calls with the same inputs return
// the same location.
package anchor

import (
	"strings"

	"github.com/FocuswithJustin/Redline/core/errors"
	"github.com/FocuswithJustin/Redline/core/extract"
)

// DefaultWindowCap is the maximum number of consecutive spans combined
// when searching for a multi-span match. Anchors fragmented across more
// spans than this are unresolvable by design, not a transient failure.
const DefaultWindowCap = 20

// Location is the smallest contiguous span range whose concatenated text
// contains the anchor. Offsets are half-open: StartOffset indexes into the
// start span's text, EndOffset is the exclusive end within the end span.
type Location struct {
	Start       int
	StartOffset int
	End         int
	EndOffset   int
}

// Options configures resolution policy.
type Options struct {
	// WindowCap overrides DefaultWindowCap when positive.
	WindowCap int
	// FailOnAmbiguous rejects anchors that occur more than once in the
	// reading text instead of silently taking the first occurrence.
	FailOnAmbiguous bool
}

func (o Options) windowCap() int {
	if o.WindowCap > 0 {
		return o.WindowCap
	}
	return DefaultWindowCap
}

// collapseWhitespace folds every whitespace run to a single space and trims
// both ends. Used only for the existence pre-check, never for offsets.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Locate finds the first document-order occurrence of anchorText in the
// span sequence. It returns a NotFoundError when the anchor is absent even
// after whitespace normalization, or physically present but fragmented
// across more spans than the window cap allows. With FailOnAmbiguous set,
// an anchor occurring more than once returns an AmbiguousError.
func Locate(spans []extract.Span, anchorText string, opts Options) (Location, error) {
	full := extract.Text(spans)

	// Existence pre-check: exact first, then whitespace-normalized.
	if !strings.Contains(full, anchorText) {
		if !strings.Contains(collapseWhitespace(full), collapseWhitespace(anchorText)) {
			return Location{}, errors.NewNotFound("anchor", anchorText)
		}
	}

	if opts.FailOnAmbiguous {
		if n := countOccurrences(full, anchorText); n > 1 {
			return Location{}, &errors.AmbiguousError{Anchor: anchorText, Occurrences: n}
		}
	}

	// Single-span pass: first span whose own text contains the anchor.
	for i := range spans {
		if idx := strings.Index(spans[i].Text, anchorText); idx >= 0 {
			return Location{
				Start:       i,
				StartOffset: idx,
				End:         i,
				EndOffset:   idx + len(anchorText),
			}, nil
		}
	}

	// Multi-span pass: bounded window of consecutive spans per start index.
	limit := opts.windowCap()
	for start := range spans {
		var window strings.Builder
		for w := 0; w < limit && start+w < len(spans); w++ {
			window.WriteString(spans[start+w].Text)
			idx := strings.Index(window.String(), anchorText)
			if idx < 0 {
				continue
			}
			// Only accept a match beginning inside the starting span; a
			// match starting later is found again at its proper start
			// index, keeping the scan first-occurrence in document order.
			if idx >= len(spans[start].Text) {
				break
			}
			return mapToSpans(spans, start, idx, idx+len(anchorText)), nil
		}
	}

	// Present after normalization only, or fragmented past the window cap.
	return Location{}, errors.NewNotFound("anchor", anchorText)
}

// mapToSpans converts offsets within the concatenated window back to span
// indices and per-span offsets.
func mapToSpans(spans []extract.Span, start, matchStart, matchEnd int) Location {
	loc := Location{Start: start, StartOffset: matchStart}

	consumed := 0
	for i := start; i < len(spans); i++ {
		next := consumed + len(spans[i].Text)
		if matchEnd <= next {
			loc.End = i
			loc.EndOffset = matchEnd - consumed
			return loc
		}
		consumed = next
	}
	// Unreachable for locations produced by Locate: matchEnd always falls
	// within the accumulated window.
	loc.End = len(spans) - 1
	loc.EndOffset = len(spans[loc.End].Text)
	return loc
}

// countOccurrences counts non-overlapping occurrences of anchorText in the
// full reading text.
func countOccurrences(full, anchorText string) int {
	if anchorText == "" {
		return 0
	}
	return strings.Count(full, anchorText)
}
