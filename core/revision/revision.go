// Package revision issues revision identifiers and provenance metadata for
// one conversion pass.
//
// An Allocator is constructed fresh per pass and threaded explicitly; a
// process-wide counter would collide ids across concurrent conversions.
package revision

import (
	"time"

	"github.com/google/uuid"
)

// Pair holds the ids for one edit: the deletion marker and the insertion
// marker never collide within a document because ids advance by two.
type Pair struct {
	DeletionID  int
	InsertionID int
}

// Allocator issues unique, increasing revision ids plus the shared
// author/timestamp pair carried by every marker of a pass. Not safe for
// concurrent use; a pass is single-threaded by design.
type Allocator struct {
	passID uuid.UUID
	author string
	date   string
	next   int
}

// DefaultAuthor labels markers when the caller supplies no author.
const DefaultAuthor = "Redline"

// NewAllocator creates an allocator scoped to one pass. The timestamp is
// captured once so all markers in the pass carry identical provenance.
func NewAllocator(author string, at time.Time) *Allocator {
	if author == "" {
		author = DefaultAuthor
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return &Allocator{
		passID: uuid.New(),
		author: author,
		date:   at.UTC().Format(time.RFC3339),
		next:   1,
	}
}

// NextPair returns the next deletion/insertion id pair.
func (a *Allocator) NextPair() Pair {
	p := Pair{DeletionID: a.next, InsertionID: a.next + 1}
	a.next += 2
	return p
}

// Author returns the shared author label for the pass.
func (a *Allocator) Author() string { return a.author }

// Date returns the shared RFC 3339 timestamp for the pass.
func (a *Allocator) Date() string { return a.date }

// PassID returns the unique id of this conversion pass, used for
// provenance in logs and the audit store.
func (a *Allocator) PassID() uuid.UUID { return a.passID }
