package index

import (
	"errors"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// ErrUnknownWord means the word ID has no inverted-index entry.
var ErrUnknownWord = errors.New("index: unknown word")

// Inverted maps each word ID to its postings and, redundantly, to the set of
// files containing it. The file-set projection is the fast path for
// conjunctive intersection; both mappings are mutated together so that at all
// observable moments
//
//	files[w] == { f : ∃p · (f,p) ∈ postings[w] }.
//
// Unsafe forms skip the inner lock for callers serialised by the Manager's
// outer lock.
type Inverted struct {
	mu       sync.RWMutex
	postings map[WordID]mapset.Set[Posting]
	files    map[WordID]mapset.Set[FileID]
}

// NewInverted constructs an empty inverted index.
func NewInverted() *Inverted {
	return &Inverted{
		postings: make(map[WordID]mapset.Set[Posting]),
		files:    make(map[WordID]mapset.Set[FileID]),
	}
}

// AddPosting records one occurrence of wordID, updating both projections.
func (inv *Inverted) AddPosting(wordID WordID, p Posting) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.AddPostingUnsafe(wordID, p)
}

// AddPostingUnsafe is AddPosting without the inner lock.
func (inv *Inverted) AddPostingUnsafe(wordID WordID, p Posting) {
	hits, ok := inv.postings[wordID]
	if !ok {
		hits = mapset.NewThreadUnsafeSet[Posting]()
		inv.postings[wordID] = hits
	}
	hits.Add(p)

	fset, ok := inv.files[wordID]
	if !ok {
		fset = mapset.NewThreadUnsafeSet[FileID]()
		inv.files[wordID] = fset
	}
	fset.Add(p.FileID)
}

// ClearForWordAndFile removes every posting of fileID from wordID's hit set
// and drops fileID from the file-set projection.
func (inv *Inverted) ClearForWordAndFile(wordID WordID, fileID FileID) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.ClearForWordAndFileUnsafe(wordID, fileID)
}

// ClearForWordAndFileUnsafe is ClearForWordAndFile without the inner lock.
func (inv *Inverted) ClearForWordAndFileUnsafe(wordID WordID, fileID FileID) error {
	hits, ok := inv.postings[wordID]
	if !ok {
		return ErrUnknownWord
	}

	var stale []Posting
	hits.Each(func(p Posting) bool {
		if p.FileID == fileID {
			stale = append(stale, p)
		}
		return false
	})
	for _, p := range stale {
		hits.Remove(p)
	}

	if fset, ok := inv.files[wordID]; ok {
		fset.Remove(fileID)
	}
	return nil
}

// PostingSet returns a copy of wordID's hit set.
func (inv *Inverted) PostingSet(wordID WordID) (mapset.Set[Posting], error) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	hits, err := inv.PostingSetUnsafe(wordID)
	if err != nil {
		return nil, err
	}
	return hits.Clone(), nil
}

// PostingSetUnsafe returns the live hit set. The caller must hold the
// Manager's outer lock for the duration of use.
func (inv *Inverted) PostingSetUnsafe(wordID WordID) (mapset.Set[Posting], error) {
	hits, ok := inv.postings[wordID]
	if !ok {
		return nil, ErrUnknownWord
	}
	return hits, nil
}

// FileSet returns a copy of wordID's file-set projection.
func (inv *Inverted) FileSet(wordID WordID) (mapset.Set[FileID], error) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	fset, err := inv.FileSetUnsafe(wordID)
	if err != nil {
		return nil, err
	}
	return fset.Clone(), nil
}

// FileSetUnsafe returns the live file-set projection. The caller must hold
// the Manager's outer lock for the duration of use.
func (inv *Inverted) FileSetUnsafe(wordID WordID) (mapset.Set[FileID], error) {
	fset, ok := inv.files[wordID]
	if !ok {
		return nil, ErrUnknownWord
	}
	return fset, nil
}

// HasID reports whether the word ID has an entry.
func (inv *Inverted) HasID(wordID WordID) bool {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	_, ok := inv.postings[wordID]
	return ok
}

// Clear drops every entry in both projections.
func (inv *Inverted) Clear() {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.ClearUnsafe()
}

// ClearUnsafe is Clear without the inner lock.
func (inv *Inverted) ClearUnsafe() {
	clear(inv.postings)
	clear(inv.files)
}
