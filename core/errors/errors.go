// Package errors provides standardized error types and helpers for the Redline codebase.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates an anchor or resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrAmbiguous indicates an anchor occurs more than once in the document
	ErrAmbiguous = errors.New("ambiguous anchor")
	// ErrStructural indicates the document structure cannot support an edit
	ErrStructural = errors.New("structural failure")
	// ErrInternal indicates an internal system error
	ErrInternal = errors.New("internal error")
)

// NotFoundError represents an anchor or resource that could not be located
type NotFoundError struct {
	Resource string // Type of resource (e.g., "anchor", "part", "paragraph")
	ID       string // Identifier of the resource (e.g., the anchor text)
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Value   string // Value that failed validation (may be redacted)
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// StructuralError represents a document structure that cannot support the
// requested rewrite (e.g., a text leaf with no enclosing run or paragraph).
type StructuralError struct {
	Operation string // Operation that was attempted
	Detail    string // What was missing or malformed
	Err       error  // Underlying error, if any
}

func (e *StructuralError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("structural failure during %s: %s", e.Operation, e.Detail)
	}
	return fmt.Sprintf("structural failure: %s", e.Detail)
}

func (e *StructuralError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrStructural
}

// AmbiguousError reports an anchor with more than one occurrence when the
// resolver is configured to reject ambiguity.
type AmbiguousError struct {
	Anchor      string // The anchor text
	Occurrences int    // How many occurrences were found (at least 2)
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("anchor occurs %d times: %s", e.Occurrences, e.Anchor)
}

func (e *AmbiguousError) Unwrap() error {
	return ErrAmbiguous
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents a parsing or deserialization error
type ParseError struct {
	Format  string // Format being parsed (e.g., "JSON", "XML", "edits DSL")
	Path    string // File path or part name, if applicable
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// Helper functions for creating common errors

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewStructural creates a StructuralError
func NewStructural(operation, detail string) *StructuralError {
	return &StructuralError{
		Operation: operation,
		Detail:    detail,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewParse creates a ParseError
func NewParse(format, path, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
		Message: message,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
