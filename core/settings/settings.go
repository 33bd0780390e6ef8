// Package settings ensures the document-level change-tracking flag is
// present in the settings part exactly once.
//
// Presence of the flag is what makes the host reviewing application treat
// inserted and deleted runs as reviewable changes rather than plain
// content.
package settings

import (
	"github.com/FocuswithJustin/Redline/core/errors"
	"github.com/FocuswithJustin/Redline/core/markup"
)

// minimalSettings is synthesized when the document has no settings part.
const minimalSettings = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><w:settings xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:trackChanges/></w:settings>`

// flagLocal is the tracking-enabled flag's local tag name.
const flagLocal = "trackChanges"

// EnsureTracking returns a settings part that contains the tracking flag
// as a direct child of its root. A nil or empty part is synthesized from
// scratch; an existing part passes through with every other setting
// untouched, gaining the flag only if absent. The operation is idempotent:
// re-applying to an already-patched part yields byte-identical output.
func EnsureTracking(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return []byte(minimalSettings), nil
	}

	doc, err := markup.Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, "parsing settings part")
	}
	root := doc.Root
	if root.Local != "settings" {
		return nil, errors.NewParse("XML", "settings",
			"unexpected root element "+root.Name())
	}

	// Tag identity among direct children only; the flag must not be
	// satisfied by a nested occurrence.
	for _, child := range root.Children {
		if child.Local == flagLocal && child.Space == root.Space {
			return doc.Serialize(), nil
		}
	}

	root.Append(markup.NewElement(root.Space, flagLocal))
	return doc.Serialize(), nil
}
