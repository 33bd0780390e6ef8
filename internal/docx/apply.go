package docx

import (
	"os"
	"path/filepath"
	"time"

	"github.com/FocuswithJustin/Redline/core/edits"
	"github.com/FocuswithJustin/Redline/core/errors"
	"github.com/FocuswithJustin/Redline/core/redline"
	"github.com/FocuswithJustin/Redline/internal/logging"
)

// Report describes one pass over a package, including container-level
// fingerprints around the part-level result.
type Report struct {
	*redline.Result

	// MainPart is the content part the pass edited.
	MainPart string `json:"main_part"`
	// InputDigest and OutputDigest are blake3 fingerprints of the whole
	// package before and after the pass.
	InputDigest  string `json:"input_digest"`
	OutputDigest string `json:"output_digest"`
}

// Apply runs one pass over an opened package in place. The main content
// part and settings part are replaced; every other part keeps its
// original bytes.
func Apply(pkg *Package, ops []edits.Operation, opts redline.Options) (*Report, error) {
	report := &Report{
		MainPart:    pkg.MainPartName(),
		InputDigest: pkg.Digest(),
	}

	docXML, ok := pkg.Part(report.MainPart)
	if !ok {
		return nil, errors.NewNotFound("content part", report.MainPart)
	}
	settingsXML, hadSettings := pkg.Part(SettingsPart)
	if !hadSettings {
		settingsXML = nil
	}

	outDoc, outSettings, result, err := redline.ApplyParts(docXML, settingsXML, ops, opts)
	if err != nil {
		return nil, err
	}
	report.Result = result

	pkg.SetPart(report.MainPart, outDoc)
	logging.PartEvent("replace", report.MainPart, len(outDoc))
	if result.SettingsPatched {
		pkg.SetPart(SettingsPart, outSettings)
		logging.PartEvent("replace", SettingsPart, len(outSettings))
		if !hadSettings {
			if derr := pkg.ensureSettingsDeclared(); derr != nil {
				result.SettingsError = derr.Error()
			}
		}
	}

	report.OutputDigest = pkg.Digest()
	return report, nil
}

// ApplyFile reads a packaged document from disk, runs one pass, and
// writes the result to outPath. The output is written to a temporary
// file in the destination directory and renamed into place, so a failed
// pass never leaves a truncated document behind. inPath and outPath may
// be the same file.
func ApplyFile(inPath, outPath string, ops []edits.Operation, opts redline.Options) (*Report, error) {
	start := time.Now()
	data, err := os.ReadFile(inPath)
	if err != nil {
		return nil, errors.NewIO("read package", inPath, err)
	}
	pkg, err := Read(data)
	if err != nil {
		return nil, err
	}

	report, err := Apply(pkg, ops, opts)
	if err != nil {
		return nil, err
	}

	out, err := pkg.Bytes()
	if err != nil {
		return nil, err
	}
	if err := writeAtomic(outPath, out); err != nil {
		return nil, err
	}

	logging.Conversion(report.PassID, inPath, outPath,
		report.Applied, report.Skipped, time.Since(start))
	return report, nil
}

// writeAtomic writes data to path via a temp file and rename.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".redline-*")
	if err != nil {
		return errors.NewIO("create temp file", dir, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.NewIO("write package", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.NewIO("close package", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.NewIO("replace package", path, err)
	}
	return nil
}
