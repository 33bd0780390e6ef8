// Package bundle reads and writes compressed tar bundles of packaged
// documents, used for batch conversion. It supports tar.gz and tar.xz.
package bundle

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/Redline/core/errors"
)

// Reader wraps a tar.Reader with automatic decompression handling.
type Reader struct {
	*tar.Reader
	file         *os.File
	decompressor io.Closer
}

// NewReader opens a bundle for reading. Compression is detected from the
// path suffix.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open bundle", path, err)
	}

	var reader io.Reader = f
	var decompressor io.Closer

	switch {
	case strings.HasSuffix(path, ".tar.xz"):
		xzr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, errors.NewParse(path, "", err.Error())
		}
		reader = xzr
		decompressor = nil // xz reader doesn't need closing
	case strings.HasSuffix(path, ".tar.gz"):
		gzr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, errors.NewParse(path, "", err.Error())
		}
		reader = gzr
		decompressor = gzr
	default:
		f.Close()
		return nil, errors.NewValidation("bundle path",
			"unsupported bundle format, want .tar.gz or .tar.xz")
	}

	return &Reader{
		Reader:       tar.NewReader(reader),
		file:         f,
		decompressor: decompressor,
	}, nil
}

// Close closes the reader and any underlying decompressor.
func (r *Reader) Close() error {
	var errs []error
	if r.decompressor != nil {
		if err := r.decompressor.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.file.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Visitor is a callback for iterating bundle entries.
// Return true to stop iteration, false to continue.
type Visitor func(header *tar.Header, content io.Reader) (stop bool, err error)

// Iterate walks all entries in the bundle, calling the visitor for each.
func (r *Reader) Iterate(visitor Visitor) error {
	for {
		header, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.NewParse("bundle entry", "", err.Error())
		}

		stop, err := visitor(header, r)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// IterateBundle opens a bundle and iterates through its entries.
func IterateBundle(path string, visitor Visitor) error {
	r, err := NewReader(path)
	if err != nil {
		return err
	}
	defer r.Close()
	return r.Iterate(visitor)
}

// Writer wraps a tar.Writer with automatic compression handling.
type Writer struct {
	*tar.Writer
	file       *os.File
	compressor io.Closer
	modTime    time.Time
}

// NewWriter creates a bundle at path. Compression is chosen from the
// path suffix, matching NewReader.
func NewWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.NewIO("create bundle", path, err)
	}

	var writer io.Writer = f
	var compressor io.Closer

	switch {
	case strings.HasSuffix(path, ".tar.xz"):
		xzw, err := xz.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, errors.NewIO("xz writer", path, err)
		}
		writer = xzw
		compressor = xzw
	case strings.HasSuffix(path, ".tar.gz"):
		gzw := gzip.NewWriter(f)
		writer = gzw
		compressor = gzw
	default:
		f.Close()
		return nil, errors.NewValidation("bundle path",
			"unsupported bundle format, want .tar.gz or .tar.xz")
	}

	return &Writer{
		Writer:     tar.NewWriter(writer),
		file:       f,
		compressor: compressor,
		modTime:    time.Now(),
	}, nil
}

// AddEntry writes one regular file entry.
func (w *Writer) AddEntry(name string, data []byte) error {
	header := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    int64(len(data)),
		ModTime: w.modTime,
	}
	if err := w.WriteHeader(header); err != nil {
		return errors.NewIO("write bundle header", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return errors.NewIO("write bundle entry", name, err)
	}
	return nil
}

// Close flushes the tar stream, the compressor, and the file.
func (w *Writer) Close() error {
	var errs []error
	if err := w.Writer.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := w.compressor.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := w.file.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
