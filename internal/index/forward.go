package index

import (
	"errors"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// ErrUnknownFile means the file ID has no forward-index entry.
var ErrUnknownFile = errors.New("index: unknown file")

// Forward maps each file ID to the set of word IDs occurring in it.
//
// ClearFile empties a file's set but keeps the key, so a removed file's slot
// participates in future rebuilds without rehashing the ID; DeleteFile drops
// the key entirely.
//
// Unsafe forms skip the inner lock for callers serialised by the Manager's
// outer lock.
type Forward struct {
	mu    sync.RWMutex
	files map[FileID]mapset.Set[WordID]
}

// NewForward constructs an empty forward index.
func NewForward() *Forward {
	return &Forward{files: make(map[FileID]mapset.Set[WordID])}
}

// AddWordID records a single word occurrence for the file.
func (f *Forward) AddWordID(fileID FileID, wordID WordID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AddWordIDUnsafe(fileID, wordID)
}

// AddWordIDUnsafe is AddWordID without the inner lock.
func (f *Forward) AddWordIDUnsafe(fileID FileID, wordID WordID) {
	set, ok := f.files[fileID]
	if !ok {
		set = mapset.NewThreadUnsafeSet[WordID]()
		f.files[fileID] = set
	}
	set.Add(wordID)
}

// AddWordIDSet merges a set of word IDs into the file's entry.
func (f *Forward) AddWordIDSet(fileID FileID, wordIDs mapset.Set[WordID]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AddWordIDSetUnsafe(fileID, wordIDs)
}

// AddWordIDSetUnsafe is AddWordIDSet without the inner lock.
func (f *Forward) AddWordIDSetUnsafe(fileID FileID, wordIDs mapset.Set[WordID]) {
	set, ok := f.files[fileID]
	if !ok {
		f.files[fileID] = wordIDs
		return
	}
	wordIDs.Each(func(w WordID) bool {
		set.Add(w)
		return false
	})
}

// DeleteFile erases the file's key entirely.
func (f *Forward) DeleteFile(fileID FileID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, fileID)
}

// ClearFile empties the file's word set but keeps the key.
func (f *Forward) ClearFile(fileID FileID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ClearFileUnsafe(fileID)
}

// ClearFileUnsafe is ClearFile without the inner lock.
func (f *Forward) ClearFileUnsafe(fileID FileID) {
	if _, ok := f.files[fileID]; ok {
		f.files[fileID] = mapset.NewThreadUnsafeSet[WordID]()
	}
}

// WordIDSet returns a copy of the file's word-ID set.
func (f *Forward) WordIDSet(fileID FileID) (mapset.Set[WordID], error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	set, err := f.WordIDSetUnsafe(fileID)
	if err != nil {
		return nil, err
	}
	return set.Clone(), nil
}

// WordIDSetUnsafe returns the live set for fileID. The caller must hold the
// Manager's outer lock for the duration of use.
func (f *Forward) WordIDSetUnsafe(fileID FileID) (mapset.Set[WordID], error) {
	set, ok := f.files[fileID]
	if !ok {
		return nil, ErrUnknownFile
	}
	return set, nil
}

// HasID reports whether the file ID has an entry (possibly empty).
func (f *Forward) HasID(fileID FileID) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.files[fileID]
	return ok
}

// Len returns the number of keyed files, tombstoned ones included.
func (f *Forward) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.files)
}

// Clear drops every entry.
func (f *Forward) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ClearUnsafe()
}

// ClearUnsafe is Clear without the inner lock.
func (f *Forward) ClearUnsafe() {
	clear(f.files)
}
