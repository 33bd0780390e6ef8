package redline

import (
	"github.com/FocuswithJustin/Redline/core/edits"
	"github.com/FocuswithJustin/Redline/core/errors"
	"github.com/FocuswithJustin/Redline/core/markup"
	"github.com/FocuswithJustin/Redline/core/settings"
)

// ApplyParts runs one full pass at the part level: parse the primary
// content part, apply the operations, and ensure the tracking flag in the
// settings part.
//
// A missing or malformed content part is the only fatal failure and
// aborts before any edit is attempted. A settings failure is recorded in
// the Result and leaves the original settings bytes in place; the content
// edits still take effect.
func ApplyParts(documentXML, settingsXML []byte, ops []edits.Operation, opts Options) (outDoc, outSettings []byte, result *Result, err error) {
	if len(documentXML) == 0 {
		return nil, nil, nil, errors.NewNotFound("primary content part", "")
	}
	doc, err := markup.Parse(documentXML)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "parsing primary content part")
	}

	pass := NewPass(opts)
	result = pass.Run(doc, ops)

	outDoc = doc.Serialize()

	outSettings, serr := settings.EnsureTracking(settingsXML)
	if serr != nil {
		result.SettingsError = serr.Error()
		outSettings = settingsXML
	} else {
		result.SettingsPatched = true
	}
	return outDoc, outSettings, result, nil
}
