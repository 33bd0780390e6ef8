package edits

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/Redline/core/errors"
)

// The .edits DSL is a human-writable edit list, one operation per line:
//
//	# strike and rewrite
//	replace "terminate in 30 days." with "terminate in 60 days."
//	insert "Governing law: Texas." with "Governing law: Delaware."
//	delete "This clause is obsolete."
//
// Lines starting with # are comments. Anchors and replacements are
// double-quoted strings with backslash escapes.

type editScript struct {
	Lines []editLine `parser:"@@*"`
}

type editLine struct {
	Kind        string  `parser:"@('replace' | 'insert' | 'delete')"`
	Anchor      string  `parser:"@String"`
	Replacement *string `parser:"('with' @String)?"`
}

// dslLexer tokenizes the edit-list format.
var dslLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(\\.|[^"\\])*"`},
	{Name: "Ident", Pattern: `[a-z]+`},
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// dslParser is the participle parser for edit scripts.
var dslParser = participle.MustBuild[editScript](
	participle.Lexer(dslLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.Unquote("String"),
)

// DecodeDSL parses the plain-text edit-list format into operations. The
// result passes through the same validation as every other input format.
func DecodeDSL(data []byte) ([]Operation, error) {
	script, err := dslParser.ParseBytes("", data)
	if err != nil {
		return nil, errors.NewParse("edits DSL", "", err.Error())
	}

	ops := make([]Operation, 0, len(script.Lines))
	for _, line := range script.Lines {
		op := Operation{
			Anchor: line.Anchor,
			Kind:   Kind(line.Kind),
		}
		if line.Replacement != nil {
			op.Replacement = *line.Replacement
		}
		ops = append(ops, op)
	}
	return ops, nil
}
