// Package redline runs one conversion pass: flatten the document once,
// resolve and apply each edit operation sequentially, and report a
// per-operation outcome record.
//
// A pass owns its document tree and allocator and shares no mutable state
// with other passes; documents may be converted concurrently by
// independent passes.
package redline

import (
	"log/slog"
	"time"

	"github.com/FocuswithJustin/Redline/core/anchor"
	"github.com/FocuswithJustin/Redline/core/edits"
	"github.com/FocuswithJustin/Redline/core/errors"
	"github.com/FocuswithJustin/Redline/core/extract"
	"github.com/FocuswithJustin/Redline/core/markup"
	"github.com/FocuswithJustin/Redline/core/mutate"
	"github.com/FocuswithJustin/Redline/core/revision"
)

// Reason explains a per-operation outcome.
type Reason string

const (
	// ReasonOK marks a successfully applied operation.
	ReasonOK Reason = "OK"
	// ReasonNotFound marks an anchor absent from the reading text, or
	// fragmented past the resolver's window cap.
	ReasonNotFound Reason = "NOT_FOUND"
	// ReasonStructural marks an anchor that resolved but whose runs
	// cannot be rewritten (missing run/paragraph ancestry).
	ReasonStructural Reason = "STRUCTURAL_FAILURE"
	// ReasonValidation marks an operation rejected at the input boundary
	// before resolution.
	ReasonValidation Reason = "VALIDATION_REJECTED"
	// ReasonAmbiguous marks an anchor with multiple occurrences under the
	// fail-on-ambiguous policy.
	ReasonAmbiguous Reason = "AMBIGUOUS"
)

// Outcome is the per-operation result record.
type Outcome struct {
	Index   int        `json:"index"`
	Anchor  string     `json:"anchor"`
	Kind    edits.Kind `json:"kind"`
	Applied bool       `json:"applied"`
	Reason  Reason     `json:"reason"`
	Detail  string     `json:"detail,omitempty"`
}

// Result summarizes one pass.
type Result struct {
	PassID   string    `json:"pass_id"`
	Author   string    `json:"author"`
	Date     string    `json:"date"`
	Outcomes []Outcome `json:"outcomes"`
	Applied  int       `json:"applied"`
	Skipped  int       `json:"skipped"`

	// SettingsPatched reports whether the tracking flag was ensured.
	// Settings failures never abort applied content edits.
	SettingsPatched bool   `json:"settings_patched"`
	SettingsError   string `json:"settings_error,omitempty"`
}

// Options configures one pass.
type Options struct {
	// Author labels every marker; empty uses revision.DefaultAuthor.
	Author string
	// Timestamp is shared by every marker; zero uses the current time.
	Timestamp time.Time
	// FailOnAmbiguous rejects anchors occurring more than once.
	FailOnAmbiguous bool
	// WindowCap overrides the resolver's span window when positive.
	WindowCap int
	// Logger receives pass progress; nil uses slog.Default.
	Logger *slog.Logger
}

// Pass is one conversion pass. Construct with NewPass per document; a
// pass must not be reused.
type Pass struct {
	alloc *revision.Allocator
	mut   *mutate.Mutator
	opts  Options
	log   *slog.Logger
}

// NewPass creates a pass with a fresh allocator.
func NewPass(opts Options) *Pass {
	alloc := revision.NewAllocator(opts.Author, opts.Timestamp)
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Pass{
		alloc: alloc,
		mut:   mutate.New(alloc),
		opts:  opts,
		log:   log.With("pass_id", alloc.PassID().String()),
	}
}

// Allocator exposes the pass allocator for provenance reporting.
func (p *Pass) Allocator() *revision.Allocator { return p.alloc }

// Run applies the operations to the document tree in the order supplied.
// The span sequence is flattened once and treated as a snapshot:
// operations must target disjoint anchors, and nothing is re-extracted
// between operations. Per-operation failures are recorded and skipped;
// Run itself never fails.
func (p *Pass) Run(doc *markup.Document, ops []edits.Operation) *Result {
	result := &Result{
		PassID: p.alloc.PassID().String(),
		Author: p.alloc.Author(),
		Date:   p.alloc.Date(),
	}

	spans := extract.Flatten(doc)
	p.log.Info("pass_start", "operations", len(ops), "spans", len(spans))

	for i, op := range ops {
		outcome := p.applyOne(spans, i, op)
		result.Outcomes = append(result.Outcomes, outcome)
		if outcome.Applied {
			result.Applied++
		} else {
			result.Skipped++
		}
		p.log.Info("operation_outcome",
			"index", i,
			"kind", string(op.Kind),
			"applied", outcome.Applied,
			"reason", string(outcome.Reason),
		)
	}

	p.log.Info("pass_complete", "applied", result.Applied, "skipped", result.Skipped)
	return result
}

func (p *Pass) applyOne(spans []extract.Span, index int, op edits.Operation) Outcome {
	outcome := Outcome{Index: index, Anchor: op.Anchor, Kind: op.Kind}

	if err := op.Validate(); err != nil {
		outcome.Reason = ReasonValidation
		outcome.Detail = err.Error()
		return outcome
	}

	loc, err := anchor.Locate(spans, op.Anchor, anchor.Options{
		WindowCap:       p.opts.WindowCap,
		FailOnAmbiguous: p.opts.FailOnAmbiguous,
	})
	if err != nil {
		switch {
		case errors.Is(err, errors.ErrAmbiguous):
			outcome.Reason = ReasonAmbiguous
		default:
			outcome.Reason = ReasonNotFound
		}
		outcome.Detail = err.Error()
		return outcome
	}

	if err := p.mut.Apply(spans, loc, op); err != nil {
		outcome.Reason = ReasonStructural
		outcome.Detail = err.Error()
		return outcome
	}

	outcome.Applied = true
	outcome.Reason = ReasonOK
	return outcome
}
