// Package validation provides input validation and sanitization functions
// to prevent common security vulnerabilities like path traversal, zip
// bombs, and resource exhaustion.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Resource limits for untrusted document packages (CWE-400).
const (
	// MaxDocumentSize is the maximum allowed packaged document size (128 MB).
	MaxDocumentSize = 128 << 20
	// MaxPartSize is the maximum allowed size of a single decompressed part (64 MB).
	MaxPartSize = 64 << 20
	// MaxParts is the maximum number of parts in one package.
	MaxParts = 10000
	// MaxPathLength is the maximum allowed part path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrPathTraversal = errors.New("path traversal detected")
	ErrPathTooLong   = errors.New("path too long")
	ErrEmptyPath     = errors.New("path cannot be empty")
	ErrTooLarge      = errors.New("exceeds size limit")
	ErrTooManyParts  = errors.New("too many parts")
	ErrNotZip        = errors.New("not a zip archive")
)

// zipMagic is the local-file-header signature every zip package starts with.
var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// CheckPartName validates a part path from an untrusted package. Part
// names are zip-internal and always slash-separated and relative.
func CheckPartName(name string) error {
	if name == "" {
		return ErrEmptyPath
	}
	if len(name) > MaxPathLength {
		return ErrPathTooLong
	}
	clean := filepath.ToSlash(filepath.Clean(name))
	if strings.HasPrefix(clean, "../") || clean == ".." || strings.Contains(clean, "/../") {
		return ErrPathTraversal
	}
	if strings.HasPrefix(clean, "/") || filepath.IsAbs(name) {
		return fmt.Errorf("%w: absolute part path %q", ErrPathTraversal, name)
	}
	return nil
}

// CheckPackageSize validates the total packaged document size.
func CheckPackageSize(size int64) error {
	if size > MaxDocumentSize {
		return fmt.Errorf("%w: package is %d bytes (max %d)", ErrTooLarge, size, MaxDocumentSize)
	}
	return nil
}

// CheckPartSize validates one part's decompressed size.
func CheckPartSize(name string, size int64) error {
	if size > MaxPartSize {
		return fmt.Errorf("%w: part %s is %d bytes (max %d)", ErrTooLarge, name, size, MaxPartSize)
	}
	return nil
}

// CheckPartCount validates the number of parts in a package.
func CheckPartCount(n int) error {
	if n > MaxParts {
		return fmt.Errorf("%w: %d parts (max %d)", ErrTooManyParts, n, MaxParts)
	}
	return nil
}

// CheckZipMagic verifies the data begins with the zip signature.
func CheckZipMagic(data []byte) error {
	if len(data) < len(zipMagic) || !bytes.Equal(data[:len(zipMagic)], zipMagic) {
		return ErrNotZip
	}
	return nil
}
