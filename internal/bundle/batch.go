package bundle

import (
	"archive/tar"
	"io"
	"strings"

	"github.com/FocuswithJustin/Redline/core/edits"
	"github.com/FocuswithJustin/Redline/core/redline"
	"github.com/FocuswithJustin/Redline/internal/docx"
	"github.com/FocuswithJustin/Redline/internal/logging"
	"github.com/FocuswithJustin/Redline/internal/validation"
)

// DocumentResult reports one bundle entry's conversion.
type DocumentResult struct {
	// Name is the entry path inside the bundle.
	Name string `json:"name"`
	// Report is present when the entry was converted.
	Report *docx.Report `json:"report,omitempty"`
	// Err is set when the entry failed; the original bytes are copied
	// through in that case.
	Err string `json:"error,omitempty"`
}

// Apply runs one conversion pass per packaged document in the bundle at
// inPath and writes a new bundle to outPath. Each document gets its own
// pass identity. Entries that are not packaged documents, and documents
// that fail to convert, are copied through unchanged; a per-document
// failure never aborts the batch.
func Apply(inPath, outPath string, ops []edits.Operation, opts redline.Options) ([]DocumentResult, error) {
	w, err := NewWriter(outPath)
	if err != nil {
		return nil, err
	}

	var results []DocumentResult
	err = IterateBundle(inPath, func(header *tar.Header, content io.Reader) (bool, error) {
		if header.Typeflag != tar.TypeReg {
			return false, nil
		}
		if err := validation.CheckPackageSize(header.Size); err != nil {
			return false, err
		}
		data, err := io.ReadAll(io.LimitReader(content, validation.MaxDocumentSize+1))
		if err != nil {
			return false, err
		}

		if !strings.HasSuffix(header.Name, ".docx") {
			return false, w.AddEntry(header.Name, data)
		}

		out, result := applyOne(header.Name, data, ops, opts)
		results = append(results, result)
		return false, w.AddEntry(header.Name, out)
	})
	if err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return results, nil
}

// applyOne converts a single document's bytes, falling back to the
// original bytes on failure.
func applyOne(name string, data []byte, ops []edits.Operation, opts redline.Options) ([]byte, DocumentResult) {
	result := DocumentResult{Name: name}

	pkg, err := docx.Read(data)
	if err != nil {
		result.Err = err.Error()
		logging.Warn("batch_entry_failed", "entry", name, "error", err.Error())
		return data, result
	}
	report, err := docx.Apply(pkg, ops, opts)
	if err != nil {
		result.Err = err.Error()
		logging.Warn("batch_entry_failed", "entry", name, "error", err.Error())
		return data, result
	}
	out, err := pkg.Bytes()
	if err != nil {
		result.Err = err.Error()
		logging.Warn("batch_entry_failed", "entry", name, "error", err.Error())
		return data, result
	}
	result.Report = report
	return out, result
}
