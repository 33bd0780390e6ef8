package redline

import (
	"strings"
	"testing"
	"time"

	"github.com/FocuswithJustin/Redline/core/edits"
	"github.com/FocuswithJustin/Redline/core/markup"
)

const contractDoc = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
	`<w:p><w:r><w:t>The Agreement shall </w:t></w:r><w:r><w:t>terminate in 30 days.</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t>Governing law: Texas.</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t>This clause is obsolete.</w:t></w:r></w:p>` +
	`</w:body></w:document>`

func parse(t *testing.T, xml string) *markup.Document {
	t.Helper()
	doc, err := markup.Parse([]byte(xml))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func TestRunAppliesOperationsInOrder(t *testing.T) {
	doc := parse(t, contractDoc)
	pass := NewPass(Options{Author: "reviewer", Timestamp: time.Now()})

	result := pass.Run(doc, []edits.Operation{
		{Anchor: "terminate in 30 days.", Replacement: "terminate in 60 days.", Kind: edits.Replace},
		{Anchor: "Texas", Replacement: "Delaware", Kind: edits.Replace},
		{Anchor: "This clause is obsolete.", Kind: edits.Delete},
	})

	if result.Applied != 3 || result.Skipped != 0 {
		t.Fatalf("applied/skipped = %d/%d; want 3/0", result.Applied, result.Skipped)
	}
	for i, o := range result.Outcomes {
		if !o.Applied || o.Reason != ReasonOK {
			t.Errorf("outcome %d = %+v; want applied OK", i, o)
		}
	}

	out := string(doc.Serialize())
	for _, want := range []string{
		"terminate in 60 days.",
		"<w:delText",
		"Delaware",
		`w:author="reviewer"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunMixedOutcomes(t *testing.T) {
	doc := parse(t, contractDoc)
	pass := NewPass(Options{})

	result := pass.Run(doc, []edits.Operation{
		{Anchor: "Texas", Replacement: "Delaware", Kind: edits.Replace},
		{Anchor: "no such text anywhere", Replacement: "x", Kind: edits.Replace},
		{Anchor: "Governing", Replacement: "x", Kind: edits.Delete}, // delete with replacement
	})

	wantReasons := []Reason{ReasonOK, ReasonNotFound, ReasonValidation}
	if len(result.Outcomes) != len(wantReasons) {
		t.Fatalf("outcomes = %d; want %d", len(result.Outcomes), len(wantReasons))
	}
	for i, want := range wantReasons {
		if result.Outcomes[i].Reason != want {
			t.Errorf("outcome %d reason = %s; want %s", i, result.Outcomes[i].Reason, want)
		}
	}
	if result.Applied != 1 || result.Skipped != 2 {
		t.Errorf("applied/skipped = %d/%d; want 1/2", result.Applied, result.Skipped)
	}
}

func TestRunNeverFailsWholePass(t *testing.T) {
	doc := parse(t, contractDoc)
	pass := NewPass(Options{})

	// All operations fail; the pass still completes and the document's
	// reading text is untouched.
	result := pass.Run(doc, []edits.Operation{
		{Anchor: "missing one", Replacement: "x", Kind: edits.Replace},
		{Anchor: "missing two", Replacement: "x", Kind: edits.Replace},
	})
	if result.Applied != 0 || result.Skipped != 2 {
		t.Errorf("applied/skipped = %d/%d; want 0/2", result.Applied, result.Skipped)
	}
	if out := string(doc.Serialize()); !strings.Contains(out, "terminate in 30 days.") {
		t.Error("document changed despite zero applied operations")
	}
}

func TestRunAmbiguousPolicy(t *testing.T) {
	dup := `<w:document xmlns:w="x"><w:body>` +
		`<w:p><w:r><w:t>the Party agrees.</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>the Party signs.</w:t></w:r></w:p>` +
		`</w:body></w:document>`

	strict := NewPass(Options{FailOnAmbiguous: true})
	result := strict.Run(parse(t, dup), []edits.Operation{
		{Anchor: "the Party", Replacement: "the Buyer", Kind: edits.Replace},
	})
	if result.Outcomes[0].Reason != ReasonAmbiguous {
		t.Errorf("strict reason = %s; want AMBIGUOUS", result.Outcomes[0].Reason)
	}

	lenient := NewPass(Options{})
	doc := parse(t, dup)
	result = lenient.Run(doc, []edits.Operation{
		{Anchor: "the Party", Replacement: "the Buyer", Kind: edits.Replace},
	})
	if result.Outcomes[0].Reason != ReasonOK {
		t.Errorf("lenient reason = %s; want OK", result.Outcomes[0].Reason)
	}
	out := string(doc.Serialize())
	if !strings.Contains(out, `<w:p><w:r><w:t>the Party signs.</w:t></w:r></w:p>`) {
		t.Errorf("second occurrence should be untouched under accept-first:\n%s", out)
	}
}

func TestDistinctPassIDs(t *testing.T) {
	a := NewPass(Options{})
	b := NewPass(Options{})
	if a.Allocator().PassID() == b.Allocator().PassID() {
		t.Error("independent passes share a pass id")
	}
}

func TestApplyPartsFatalOnMissingDocument(t *testing.T) {
	if _, _, _, err := ApplyParts(nil, nil, nil, Options{}); err == nil {
		t.Error("missing content part should be fatal")
	}
	if _, _, _, err := ApplyParts([]byte("<w:document"), nil, nil, Options{}); err == nil {
		t.Error("malformed content part should be fatal")
	}
}

func TestApplyPartsPatchesSettings(t *testing.T) {
	outDoc, outSettings, result, err := ApplyParts([]byte(contractDoc), nil, []edits.Operation{
		{Anchor: "Texas", Replacement: "Delaware", Kind: edits.Replace},
	}, Options{})
	if err != nil {
		t.Fatalf("ApplyParts: %v", err)
	}
	if !result.SettingsPatched {
		t.Error("settings should be synthesized and patched")
	}
	if !strings.Contains(string(outSettings), "<w:trackChanges/>") {
		t.Errorf("settings missing tracking flag: %s", outSettings)
	}
	if !strings.Contains(string(outDoc), "Delaware") {
		t.Error("content edit missing from output document")
	}
}

func TestApplyPartsSettingsFailureDoesNotAbort(t *testing.T) {
	outDoc, outSettings, result, err := ApplyParts([]byte(contractDoc), []byte("<not-settings"), []edits.Operation{
		{Anchor: "Texas", Replacement: "Delaware", Kind: edits.Replace},
	}, Options{})
	if err != nil {
		t.Fatalf("ApplyParts: %v", err)
	}
	if result.SettingsPatched || result.SettingsError == "" {
		t.Errorf("settings failure not reported: %+v", result)
	}
	if result.Applied != 1 {
		t.Errorf("applied = %d; want content edit to take effect", result.Applied)
	}
	if !strings.Contains(string(outDoc), "Delaware") {
		t.Error("content edit missing despite settings failure")
	}
	if string(outSettings) != "<not-settings" {
		t.Errorf("original settings bytes should pass through on failure, got %q", outSettings)
	}
}
