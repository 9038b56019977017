// Package index implements the dual (forward + inverted) full-text index:
// string↔ID interning tables, the per-file and per-word projections, and the
// Manager that keeps them consistent under a single reader/writer lock.
package index

// FileID and WordID are interned identifiers. 0 is reserved as
// "absent/unknown" and is never assigned.
type (
	FileID uint32
	WordID uint32
)

// Position is the 1-based ordinal word index within a file.
type Position uint32

// Posting records one occurrence of a word: which file, and at which word
// position inside it.
type Posting struct {
	FileID   FileID
	Position Position
}
