// Command redline applies anchor-based edit scripts to WordprocessingML
// documents as native tracked changes.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/FocuswithJustin/Redline/core/edits"
	"github.com/FocuswithJustin/Redline/core/extract"
	"github.com/FocuswithJustin/Redline/core/markup"
	"github.com/FocuswithJustin/Redline/core/redline"
	"github.com/FocuswithJustin/Redline/core/sqlite"
	"github.com/FocuswithJustin/Redline/internal/audit"
	"github.com/FocuswithJustin/Redline/internal/bundle"
	"github.com/FocuswithJustin/Redline/internal/docx"
	"github.com/FocuswithJustin/Redline/internal/logging"
)

const version = "0.2.0"

// CLI defines the command-line interface for redline.
var CLI struct {
	// Global flags
	Verbose   bool   `short:"v" help:"Enable debug logging"`
	LogFormat string `enum:"json,text" default:"text" help:"Log output format"`

	Apply   ApplyCmd   `cmd:"" help:"Apply an edit script to a document as tracked changes"`
	Batch   BatchCmd   `cmd:"" help:"Apply an edit script to every document in a bundle"`
	Extract ExtractCmd `cmd:"" help:"Print a document's visible text"`
	Preview PreviewCmd `cmd:"" help:"Show the text diff an edit script would produce"`
	Edits   EditsGroup `cmd:"" help:"Edit script operations"`
	History HistoryCmd `cmd:"" help:"Show recorded passes from an audit database"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// EditsGroup contains edit script operations.
type EditsGroup struct {
	Validate EditsValidateCmd `cmd:"" help:"Parse and validate an edit script"`
}

// passFlags are the options shared by commands that run a pass.
type passFlags struct {
	Author          string `help:"Revision author recorded on every marker" default:"Redline"`
	FailOnAmbiguous bool   `help:"Reject anchors that occur more than once"`
	WindowCap       int    `help:"Maximum spans one anchor may cross" default:"0"`
}

func (f *passFlags) options() redline.Options {
	return redline.Options{
		Author:          f.Author,
		FailOnAmbiguous: f.FailOnAmbiguous,
		WindowCap:       f.WindowCap,
	}
}

// ApplyCmd applies an edit script to a single document.
type ApplyCmd struct {
	passFlags
	Doc     string `arg:"" help:"Path to input document" type:"existingfile"`
	Edits   string `required:"" short:"e" help:"Path to edit script (.json, .yaml, or .edits)" type:"existingfile"`
	Out     string `short:"o" help:"Output path (default: edit in place)" type:"path"`
	Audit   string `help:"Record the pass in this audit database" type:"path"`
	Summary bool   `help:"Print the pass result as JSON"`
}

func (c *ApplyCmd) Run() error {
	ops, err := edits.Load(c.Edits)
	if err != nil {
		return err
	}

	outPath := c.Out
	if outPath == "" {
		outPath = c.Doc
	}

	report, err := docx.ApplyFile(c.Doc, outPath, ops, c.options())
	if err != nil {
		return err
	}

	if c.Audit != "" {
		recordPass(c.Audit, report, c.Doc, outPath)
	}

	if c.Summary {
		return printJSON(report)
	}

	fmt.Printf("Pass %s (%s)\n", report.PassID, report.Author)
	fmt.Printf("  Document: %s\n", c.Doc)
	fmt.Printf("  Output:   %s\n", outPath)
	printOutcomes(report.Result)
	if report.SettingsError != "" {
		fmt.Printf("  Settings: FAILED (%s)\n", report.SettingsError)
	}
	return nil
}

// recordPass stores a pass in the audit database. Failures are logged
// and never fail the conversion.
func recordPass(path string, report *docx.Report, inPath, outPath string) {
	store, err := audit.Open(path)
	if err != nil {
		logging.AuditError("open", err)
		return
	}
	defer store.Close()
	err = store.RecordPass(context.Background(), report.Result,
		inPath, outPath, report.MainPart, report.InputDigest, report.OutputDigest)
	if err != nil {
		logging.AuditError("record", err)
	}
}

// printOutcomes prints one line per operation.
func printOutcomes(result *redline.Result) {
	fmt.Printf("  Applied: %d, skipped: %d\n", result.Applied, result.Skipped)
	for _, o := range result.Outcomes {
		status := "SKIP"
		if o.Applied {
			status = "OK"
		}
		line := fmt.Sprintf("  [%s] #%d %s %q (%s)", status, o.Index, o.Kind, truncate(o.Anchor, 40), o.Reason)
		if o.Detail != "" {
			line += ": " + o.Detail
		}
		fmt.Println(line)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// BatchCmd applies an edit script to every document in a bundle.
type BatchCmd struct {
	passFlags
	Bundle  string `arg:"" help:"Path to input bundle (.tar.gz or .tar.xz)" type:"existingfile"`
	Edits   string `required:"" short:"e" help:"Path to edit script" type:"existingfile"`
	Out     string `required:"" short:"o" help:"Output bundle path" type:"path"`
	Summary bool   `help:"Print per-document results as JSON"`
}

func (c *BatchCmd) Run() error {
	ops, err := edits.Load(c.Edits)
	if err != nil {
		return err
	}

	results, err := bundle.Apply(c.Bundle, c.Out, ops, c.options())
	if err != nil {
		return err
	}

	if c.Summary {
		return printJSON(results)
	}

	failed := 0
	for _, r := range results {
		if r.Err != "" {
			fmt.Printf("  [FAIL] %s: %s\n", r.Name, r.Err)
			failed++
			continue
		}
		fmt.Printf("  [OK]   %s: %d applied, %d skipped\n", r.Name, r.Report.Applied, r.Report.Skipped)
	}
	fmt.Printf("\nDocuments: %d converted, %d failed\n", len(results)-failed, failed)
	fmt.Printf("Output: %s\n", c.Out)
	return nil
}

// ExtractCmd prints a document's visible text, one paragraph per line.
type ExtractCmd struct {
	Doc string `arg:"" help:"Path to document" type:"existingfile"`
}

func (c *ExtractCmd) Run() error {
	doc, err := loadMainPart(c.Doc)
	if err != nil {
		return err
	}
	spans := extract.Flatten(doc)

	var prev *markup.Node
	var line strings.Builder
	for _, span := range spans {
		if prev != nil && span.Paragraph != prev {
			fmt.Println(line.String())
			line.Reset()
		}
		line.WriteString(span.Text)
		prev = span.Paragraph
	}
	if line.Len() > 0 {
		fmt.Println(line.String())
	}
	return nil
}

// PreviewCmd shows the accepted-changes diff an edit script would
// produce, without writing anything.
type PreviewCmd struct {
	passFlags
	Doc     string `arg:"" help:"Path to document" type:"existingfile"`
	Edits   string `required:"" short:"e" help:"Path to edit script" type:"existingfile"`
	NoColor bool   `help:"Disable colored output"`
}

func (c *PreviewCmd) Run() error {
	ops, err := edits.Load(c.Edits)
	if err != nil {
		return err
	}
	doc, err := loadMainPart(c.Doc)
	if err != nil {
		return err
	}

	before := extract.Text(extract.Flatten(doc))

	pass := redline.NewPass(c.options())
	result := pass.Run(doc, ops)
	after := acceptedText(doc)

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	if c.NoColor {
		color.NoColor = true
	}
	del := color.New(color.FgRed, color.CrossedOut)
	ins := color.New(color.FgGreen)
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			del.Print(d.Text)
		case diffmatchpatch.DiffInsert:
			ins.Print(d.Text)
		default:
			fmt.Print(d.Text)
		}
	}
	fmt.Println()
	fmt.Printf("\n%d of %d operations would apply\n", result.Applied, len(ops))
	return nil
}

// acceptedText is the visible text with every deletion accepted: leaves
// inside deletion markers are dropped, inserted leaves are kept.
func acceptedText(doc *markup.Document) string {
	var b strings.Builder
	doc.Root.Walk(func(n *markup.Node, parents []*markup.Node) {
		if n.Kind != markup.KindText {
			return
		}
		for _, p := range parents {
			if p.Kind == markup.KindRevision && p.Local == "del" {
				return
			}
		}
		b.WriteString(n.Text)
	})
	return b.String()
}

// loadMainPart opens a packaged document and parses its main content
// part.
func loadMainPart(path string) (*markup.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pkg, err := docx.Read(data)
	if err != nil {
		return nil, err
	}
	content, ok := pkg.Part(pkg.MainPartName())
	if !ok {
		return nil, fmt.Errorf("no content part in %s", path)
	}
	return markup.Parse(content)
}

// EditsValidateCmd parses and validates an edit script.
type EditsValidateCmd struct {
	Path    string `arg:"" help:"Path to edit script" type:"existingfile"`
	Summary bool   `help:"Print parsed operations as JSON"`
}

func (c *EditsValidateCmd) Run() error {
	ops, err := edits.Load(c.Path)
	if err != nil {
		return err
	}
	if _, err := edits.ValidateAll(ops); err != nil {
		return err
	}
	if c.Summary {
		return printJSON(ops)
	}
	fmt.Printf("%s: %d operation(s), all valid\n", c.Path, len(ops))
	for i, op := range ops {
		fmt.Printf("  #%d %s %q\n", i, op.Kind, truncate(op.Anchor, 60))
	}
	return nil
}

// HistoryCmd shows recorded passes from an audit database.
type HistoryCmd struct {
	Audit string `arg:"" help:"Path to audit database" type:"existingfile"`
	Pass  string `help:"Show full outcomes for one pass ID"`
	Limit int    `help:"Maximum passes to list" default:"20"`
}

func (c *HistoryCmd) Run() error {
	store, err := audit.Open(c.Audit)
	if err != nil {
		return err
	}
	defer store.Close()
	ctx := context.Background()

	if c.Pass != "" {
		rec, err := store.Pass(ctx, c.Pass)
		if err != nil {
			return err
		}
		outcomes, err := store.Outcomes(ctx, c.Pass)
		if err != nil {
			return err
		}
		fmt.Printf("Pass %s\n", rec.PassID)
		fmt.Printf("  Author: %s\n", rec.Author)
		fmt.Printf("  Date: %s\n", rec.Date)
		fmt.Printf("  Input: %s (%s)\n", rec.InputPath, rec.InputDigest[:16]+"...")
		fmt.Printf("  Output: %s (%s)\n", rec.OutputPath, rec.OutputDigest[:16]+"...")
		printOutcomes(&redline.Result{
			Applied:  rec.Applied,
			Skipped:  rec.Skipped,
			Outcomes: outcomes,
		})
		return nil
	}

	recs, err := store.RecentPasses(ctx, c.Limit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("No passes recorded.")
		return nil
	}
	for _, rec := range recs {
		fmt.Printf("  %s  %s  %s  %d applied, %d skipped\n",
			rec.RecordedAt, rec.PassID, rec.InputPath, rec.Applied, rec.Skipped)
	}
	fmt.Printf("\nTotal: %d pass(es)\n", len(recs))
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("redline %s\n", version)
	fmt.Printf("  sqlite driver: %s (%s)\n", sqlite.DriverName(), sqlite.DriverType())
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("redline"),
		kong.Description("Redline - anchor-based tracked changes for WordprocessingML documents"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	level := logging.LevelInfo
	if CLI.Verbose {
		level = logging.LevelDebug
	}
	format := logging.FormatText
	if CLI.LogFormat == "json" {
		format = logging.FormatJSON
	}
	logging.InitLogger(level, format)

	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
