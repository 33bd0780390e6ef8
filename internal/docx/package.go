// Package docx reads and writes packaged WordprocessingML documents.
//
// A package is a zip archive of named parts. The reader keeps every part's
// bytes and order; the writer re-emits them unchanged except for the parts
// a conversion pass replaces, so unrelated content survives byte-identical.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/hex"
	"io"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/Redline/core/errors"
	"github.com/FocuswithJustin/Redline/internal/validation"
)

// Well-known part names.
const (
	// DefaultDocumentPart is the conventional primary content part.
	DefaultDocumentPart = "word/document.xml"
	// SettingsPart holds document-level settings, including the
	// change-tracking flag.
	SettingsPart = "word/settings.xml"
	// ContentTypesPart declares the content type of every part.
	ContentTypesPart = "[Content_Types].xml"
)

type part struct {
	name string
	data []byte
}

// Package is one opened document package. Parts keep archive order.
type Package struct {
	parts []part
	index map[string]int
}

// Read opens a packaged document from bytes, enforcing the resource
// limits for untrusted input.
func Read(data []byte) (*Package, error) {
	if err := validation.CheckZipMagic(data); err != nil {
		return nil, errors.NewParse("package", "", err.Error())
	}
	if err := validation.CheckPackageSize(int64(len(data))); err != nil {
		return nil, errors.NewValidation("package", err.Error())
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.NewParse("package", "", err.Error())
	}
	if err := validation.CheckPartCount(len(zr.File)); err != nil {
		return nil, errors.NewValidation("package", err.Error())
	}

	pkg := &Package{index: make(map[string]int)}
	for _, f := range zr.File {
		if err := validation.CheckPartName(f.Name); err != nil {
			return nil, errors.NewValidation("part name", err.Error())
		}
		if err := validation.CheckPartSize(f.Name, int64(f.UncompressedSize64)); err != nil {
			return nil, errors.NewValidation("part size", err.Error())
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.NewIO("open part", f.Name, err)
		}
		content, err := io.ReadAll(io.LimitReader(rc, validation.MaxPartSize+1))
		rc.Close()
		if err != nil {
			return nil, errors.NewIO("read part", f.Name, err)
		}
		if err := validation.CheckPartSize(f.Name, int64(len(content))); err != nil {
			return nil, errors.NewValidation("part size", err.Error())
		}
		pkg.index[f.Name] = len(pkg.parts)
		pkg.parts = append(pkg.parts, part{name: f.Name, data: content})
	}
	return pkg, nil
}

// Part returns a part's bytes by name.
func (p *Package) Part(name string) ([]byte, bool) {
	i, ok := p.index[name]
	if !ok {
		return nil, false
	}
	return p.parts[i].data, true
}

// SetPart replaces a part's bytes, or appends a new part at the end of
// the archive order.
func (p *Package) SetPart(name string, data []byte) {
	if i, ok := p.index[name]; ok {
		p.parts[i].data = data
		return
	}
	p.index[name] = len(p.parts)
	p.parts = append(p.parts, part{name: name, data: data})
}

// PartNames returns all part names in archive order.
func (p *Package) PartNames() []string {
	names := make([]string, len(p.parts))
	for i, pt := range p.parts {
		names[i] = pt.name
	}
	return names
}

// Bytes serializes the package back to a zip archive, preserving part
// order.
func (p *Package) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, pt := range p.parts {
		w, err := zw.Create(pt.name)
		if err != nil {
			return nil, errors.NewIO("create part", pt.name, err)
		}
		if _, err := w.Write(pt.data); err != nil {
			return nil, errors.NewIO("write part", pt.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, errors.NewIO("close package", "", err)
	}
	return buf.Bytes(), nil
}

// Digest returns a hex blake3 fingerprint over all part names and bytes
// in order, used for before/after integrity reporting.
func (p *Package) Digest() string {
	h := blake3.New()
	for _, pt := range p.parts {
		h.Write([]byte(pt.name))
		h.Write([]byte{0})
		h.Write(pt.data)
	}
	return hex.EncodeToString(h.Sum(nil))
}
