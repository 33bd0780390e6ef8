package mutate

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/FocuswithJustin/Redline/core/anchor"
	"github.com/FocuswithJustin/Redline/core/edits"
	"github.com/FocuswithJustin/Redline/core/errors"
	"github.com/FocuswithJustin/Redline/core/extract"
	"github.com/FocuswithJustin/Redline/core/markup"
	"github.com/FocuswithJustin/Redline/core/revision"
)

func parse(t *testing.T, xml string) *markup.Document {
	t.Helper()
	doc, err := markup.Parse([]byte(xml))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func paragraphDoc(runs ...string) string {
	var sb strings.Builder
	sb.WriteString(`<w:document xmlns:w="x"><w:body><w:p>`)
	for _, r := range runs {
		fmt.Fprintf(&sb, `<w:r><w:t xml:space="preserve">%s</w:t></w:r>`, r)
	}
	sb.WriteString(`</w:p></w:body></w:document>`)
	return sb.String()
}

func testAllocator() *revision.Allocator {
	return revision.NewAllocator("reviewer", time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC))
}

// applyOp resolves and applies one operation against the document.
func applyOp(t *testing.T, doc *markup.Document, m *Mutator, op edits.Operation) error {
	t.Helper()
	spans := extract.Flatten(doc)
	loc, err := anchor.Locate(spans, op.Anchor, anchor.Options{})
	if err != nil {
		t.Fatalf("Locate(%q): %v", op.Anchor, err)
	}
	return m.Apply(spans, loc, op)
}

func firstParagraph(t *testing.T, doc *markup.Document) *markup.Node {
	t.Helper()
	var para *markup.Node
	doc.Root.Walk(func(n *markup.Node, _ []*markup.Node) {
		if para == nil && n.Kind == markup.KindParagraph {
			para = n
		}
	})
	if para == nil {
		t.Fatal("document has no paragraph")
	}
	return para
}

func TestExactSingleRunReplace(t *testing.T) {
	doc := parse(t, paragraphDoc("The Agreement shall ", "terminate in 30 days."))
	m := New(testAllocator())

	err := applyOp(t, doc, m, edits.Operation{
		Anchor:      "terminate in 30 days.",
		Replacement: "terminate in 60 days.",
		Kind:        edits.Replace,
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	para := firstParagraph(t, doc)
	if len(para.Children) != 3 {
		t.Fatalf("paragraph children = %d; want 3", len(para.Children))
	}
	if para.Children[0].Kind != markup.KindRun || para.Children[0].InnerText() != "The Agreement shall " {
		t.Errorf("child 0 = %s %q; want untouched leading run", para.Children[0].Kind, para.Children[0].InnerText())
	}
	del, ins := para.Children[1], para.Children[2]
	if del.Kind != markup.KindRevision || del.Local != "del" {
		t.Fatalf("child 1 = %s; want w:del", del.Name())
	}
	if ins.Kind != markup.KindRevision || ins.Local != "ins" {
		t.Fatalf("child 2 = %s; want w:ins", ins.Name())
	}
	if got := del.InnerText(); got != "terminate in 30 days." {
		t.Errorf("deletion text = %q; want original anchor text", got)
	}
	if got := ins.InnerText(); got != "terminate in 60 days." {
		t.Errorf("insertion text = %q; want replacement text", got)
	}
}

func TestMarkerAttributesAndShape(t *testing.T) {
	doc := parse(t, paragraphDoc("terminate in 30 days."))
	m := New(testAllocator())

	err := applyOp(t, doc, m, edits.Operation{
		Anchor:      "terminate in 30 days.",
		Replacement: "terminate in 60 days.",
		Kind:        edits.Replace,
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	out := string(doc.Serialize())
	wantDel := `<w:del w:id="1" w:author="reviewer" w:date="2026-03-14T09:26:53Z"><w:r><w:delText xml:space="preserve">terminate in 30 days.</w:delText></w:r></w:del>`
	wantIns := `<w:ins w:id="2" w:author="reviewer" w:date="2026-03-14T09:26:53Z"><w:r><w:t xml:space="preserve">terminate in 60 days.</w:t></w:r></w:ins>`
	if !strings.Contains(out, wantDel) {
		t.Errorf("serialized output missing deletion markup:\n%s", out)
	}
	if !strings.Contains(out, wantIns) {
		t.Errorf("serialized output missing insertion markup:\n%s", out)
	}
}

func TestPartialSingleRunSplit(t *testing.T) {
	doc := parse(t, paragraphDoc("Governing law: Texas."))
	m := New(testAllocator())

	err := applyOp(t, doc, m, edits.Operation{
		Anchor:      "Texas",
		Replacement: "Delaware",
		Kind:        edits.Replace,
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	para := firstParagraph(t, doc)
	if len(para.Children) != 4 {
		t.Fatalf("paragraph children = %d; want 4", len(para.Children))
	}
	wantTexts := []string{"Governing law: ", "Texas", "Delaware", "."}
	for i, want := range wantTexts {
		if got := para.Children[i].InnerText(); got != want {
			t.Errorf("child %d text = %q; want %q", i, got, want)
		}
	}
	if para.Children[1].Local != "del" || para.Children[2].Local != "ins" {
		t.Errorf("children 1,2 = %s,%s; want w:del,w:ins",
			para.Children[1].Name(), para.Children[2].Name())
	}
	// Trailing remainder stays in a plain retained run.
	if para.Children[3].Kind != markup.KindRun {
		t.Errorf("child 3 = %s; want retained run", para.Children[3].Kind)
	}
}

func TestSingleRunMatchBetweenUntouchedRuns(t *testing.T) {
	doc := parse(t, paragraphDoc("This Agreement ", "will terminate", " upon breach."))
	m := New(testAllocator())

	err := applyOp(t, doc, m, edits.Operation{
		Anchor:      "will terminate",
		Replacement: "shall terminate immediately",
		Kind:        edits.Replace,
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	para := firstParagraph(t, doc)
	if len(para.Children) != 4 {
		t.Fatalf("paragraph children = %d; want 4", len(para.Children))
	}
	if got := para.Children[0].InnerText(); got != "This Agreement " {
		t.Errorf("leading run = %q; want unchanged", got)
	}
	if got := para.Children[1].InnerText(); got != "will terminate" {
		t.Errorf("deletion text = %q; want %q", got, "will terminate")
	}
	if got := para.Children[2].InnerText(); got != "shall terminate immediately" {
		t.Errorf("insertion text = %q; want replacement", got)
	}
	if got := para.Children[3].InnerText(); got != " upon breach." {
		t.Errorf("trailing run = %q; want unchanged", got)
	}
}

func TestMultiRunSpan(t *testing.T) {
	doc := parse(t, paragraphDoc("This Agreement ", "will terminate", " upon breach."))
	m := New(testAllocator())

	// "Agreement will" starts mid-run 0 and ends mid-run 1.
	err := applyOp(t, doc, m, edits.Operation{
		Anchor:      "Agreement will",
		Replacement: "Contract shall",
		Kind:        edits.Replace,
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	para := firstParagraph(t, doc)
	wantTexts := []string{"This ", "Agreement will", "Contract shall", " terminate", " upon breach."}
	if len(para.Children) != len(wantTexts) {
		t.Fatalf("paragraph children = %d; want %d", len(para.Children), len(wantTexts))
	}
	for i, want := range wantTexts {
		if got := para.Children[i].InnerText(); got != want {
			t.Errorf("child %d text = %q; want %q", i, got, want)
		}
	}
	if para.Children[1].Local != "del" || para.Children[2].Local != "ins" {
		t.Errorf("children 1,2 = %s,%s; want w:del,w:ins",
			para.Children[1].Name(), para.Children[2].Name())
	}

	// Reading text reflects both the struck and the inserted text.
	want := "This Agreement willContract shall terminate upon breach."
	if got := extract.Text(extract.Flatten(doc)); got != want {
		t.Errorf("reading text = %q; want %q", got, want)
	}
}

func TestFormattingClonedVerbatim(t *testing.T) {
	doc := parse(t, `<w:document xmlns:w="x"><w:body><w:p>`+
		`<w:r><w:rPr><w:b/><w:color w:val="FF0000"/></w:rPr><w:t>Governing law: Texas.</w:t></w:r>`+
		`</w:p></w:body></w:document>`)
	m := New(testAllocator())

	err := applyOp(t, doc, m, edits.Operation{
		Anchor:      "Texas",
		Replacement: "Delaware",
		Kind:        edits.Replace,
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	para := firstParagraph(t, doc)
	for i := 0; i < 4; i++ {
		var run *markup.Node
		child := para.Children[i]
		if child.Kind == markup.KindRun {
			run = child
		} else {
			run = child.Children[0]
		}
		props := run.RunProps()
		if props == nil {
			t.Errorf("child %d: formatting properties not cloned", i)
			continue
		}
		found := false
		for _, p := range props.Children {
			if p.Local == "color" && p.Attr("val") == "FF0000" {
				found = true
			}
		}
		if !found {
			t.Errorf("child %d: color property lost", i)
		}
	}
}

func TestDeleteOmitsInsertionMarker(t *testing.T) {
	doc := parse(t, paragraphDoc("Keep this. ", "Strike that.", " Keep this too."))
	m := New(testAllocator())

	err := applyOp(t, doc, m, edits.Operation{
		Anchor: "Strike that.",
		Kind:   edits.Delete,
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	para := firstParagraph(t, doc)
	if len(para.Children) != 3 {
		t.Fatalf("paragraph children = %d; want 3", len(para.Children))
	}
	if para.Children[1].Local != "del" {
		t.Errorf("child 1 = %s; want w:del", para.Children[1].Name())
	}
	for _, child := range para.Children {
		if child.Local == "ins" {
			t.Error("delete operation must not produce an insertion marker")
		}
	}
}

func TestUnrelatedParagraphUntouched(t *testing.T) {
	doc := parse(t, `<w:document xmlns:w="x"><w:body>`+
		`<w:p><w:r><w:t>Governing law: Texas.</w:t></w:r></w:p>`+
		`<w:p><w:r><w:t>Venue: Austin.</w:t></w:r></w:p>`+
		`</w:body></w:document>`)
	m := New(testAllocator())

	err := applyOp(t, doc, m, edits.Operation{
		Anchor:      "Texas",
		Replacement: "Delaware",
		Kind:        edits.Replace,
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	out := string(doc.Serialize())
	if !strings.Contains(out, `<w:p><w:r><w:t>Venue: Austin.</w:t></w:r></w:p>`) {
		t.Errorf("unrelated paragraph was disturbed:\n%s", out)
	}
}

func TestStructuralFailureNoRun(t *testing.T) {
	doc := parse(t, `<w:document xmlns:w="x"><w:body><w:t>stray text</w:t></w:body></w:document>`)
	m := New(testAllocator())

	spans := extract.Flatten(doc)
	loc, err := anchor.Locate(spans, "stray", anchor.Options{})
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	err = m.Apply(spans, loc, edits.Operation{Anchor: "stray", Replacement: "x", Kind: edits.Replace})
	if !errors.Is(err, errors.ErrStructural) {
		t.Errorf("err = %v; want ErrStructural", err)
	}
}

func TestStructuralFailureParagraphBoundary(t *testing.T) {
	doc := parse(t, `<w:document xmlns:w="x"><w:body>`+
		`<w:p><w:r><w:t>first half</w:t></w:r></w:p>`+
		`<w:p><w:r><w:t> second half</w:t></w:r></w:p>`+
		`</w:body></w:document>`)
	m := New(testAllocator())

	spans := extract.Flatten(doc)
	loc, err := anchor.Locate(spans, "half second", anchor.Options{})
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	err = m.Apply(spans, loc, edits.Operation{Anchor: "half second", Replacement: "x", Kind: edits.Replace})
	if !errors.Is(err, errors.ErrStructural) {
		t.Errorf("err = %v; want ErrStructural", err)
	}
}

func TestIdsUniqueAndMonotonic(t *testing.T) {
	doc := parse(t, paragraphDoc("alpha. ", "bravo. ", "charlie. ", "delta."))
	m := New(testAllocator())

	for _, op := range []edits.Operation{
		{Anchor: "alpha", Replacement: "ALPHA", Kind: edits.Replace},
		{Anchor: "bravo", Replacement: "BRAVO", Kind: edits.Insert},
		{Anchor: "charlie", Kind: edits.Delete},
	} {
		if err := applyOp(t, doc, m, op); err != nil {
			t.Fatalf("Apply(%q): %v", op.Anchor, err)
		}
	}

	var ids []int
	doc.Root.Walk(func(n *markup.Node, _ []*markup.Node) {
		if n.Kind == markup.KindRevision {
			var id int
			fmt.Sscanf(n.Attr("id"), "%d", &id)
			ids = append(ids, id)
		}
	})

	if len(ids) != 5 { // 2 + 2 + 1 (delete has no insertion marker)
		t.Fatalf("marker count = %d; want 5", len(ids))
	}
	seen := map[int]bool{}
	last := 0
	for _, id := range ids {
		if seen[id] {
			t.Errorf("id %d emitted twice", id)
		}
		seen[id] = true
		if id <= last {
			t.Errorf("ids not increasing in application order: %v", ids)
		}
		last = id
	}
}
