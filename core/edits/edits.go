// Package edits defines the edit-operation records produced by the
// external edit-generating collaborator, together with the input-boundary
// validation every operation passes before it reaches the resolver.
package edits

import (
	"fmt"

	"github.com/FocuswithJustin/Redline/core/errors"
)

// Kind is the operation kind.
type Kind string

const (
	// Replace strikes the anchor text and inserts the replacement.
	Replace Kind = "replace"
	// Insert is executed identically to Replace: it strikes the anchor
	// and inserts the replacement. There is no pure append-after-anchor
	// behavior; the name is kept for compatibility with the collaborator
	// contract.
	Insert Kind = "insert"
	// Delete strikes the anchor text and inserts nothing.
	Delete Kind = "delete"
)

// Input limits enforced at the boundary.
const (
	// MaxAnchorLen is the maximum anchor text length in bytes.
	MaxAnchorLen = 500
	// MaxReplacementLen is the maximum replacement text length in bytes.
	MaxReplacementLen = 2000
)

// Operation is one requested edit. Operations are immutable once decoded.
type Operation struct {
	// Anchor is the exact substring targeted in the document's reading
	// text. Required, 1-500 characters.
	Anchor string `json:"anchorText" yaml:"anchorText"`
	// Replacement is the text visually inserted in place of the anchor.
	// Required for replace/insert, forbidden for delete.
	Replacement string `json:"replacementText,omitempty" yaml:"replacementText,omitempty"`
	// Kind selects the operation semantics.
	Kind Kind `json:"kind" yaml:"kind"`
}

// Validate checks one operation against the input contract. Violations are
// rejected here, before resolution, and are distinguishable from
// structural failures in outcome reporting.
func (op Operation) Validate() error {
	if op.Anchor == "" {
		return errors.NewValidation("anchorText", "required")
	}
	if len(op.Anchor) > MaxAnchorLen {
		return errors.NewValidation("anchorText",
			fmt.Sprintf("exceeds %d bytes", MaxAnchorLen))
	}

	switch op.Kind {
	case Replace, Insert:
		if op.Replacement == "" {
			return errors.NewValidation("replacementText",
				fmt.Sprintf("required for %s operations", op.Kind))
		}
		if len(op.Replacement) > MaxReplacementLen {
			return errors.NewValidation("replacementText",
				fmt.Sprintf("exceeds %d bytes", MaxReplacementLen))
		}
	case Delete:
		if op.Replacement != "" {
			return errors.NewValidation("replacementText",
				"forbidden for delete operations")
		}
	case "":
		return errors.NewValidation("kind", "required")
	default:
		return errors.NewValidation("kind",
			fmt.Sprintf("unknown kind %q", op.Kind))
	}
	return nil
}

// ValidateAll validates a whole batch, returning the index and error of
// the first violation.
func ValidateAll(ops []Operation) (int, error) {
	for i, op := range ops {
		if err := op.Validate(); err != nil {
			return i, errors.Wrapf(err, "operation %d", i)
		}
	}
	return -1, nil
}
