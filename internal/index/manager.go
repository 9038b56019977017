package index

import (
	"errors"
	"fmt"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"

	"github.com/edirooss/searchd/internal/storage"
	"github.com/edirooss/searchd/internal/textnorm"
)

var (
	// ErrAlreadyIndexed means the file path is already present in the index.
	ErrAlreadyIndexed = errors.New("index: file already indexed")
	// ErrNoMatch means a search produced no satisfying files.
	ErrNoMatch = errors.New("index: no match")
)

// Manager composes the interning tables, the forward index and the inverted
// index under a single outer reader/writer lock.
//
// Concurrency model:
//   - The outer lock is the sole correctness gate for the composite
//     invariants; every mutation runs under the outer write lock and uses the
//     components' Unsafe accessors.
//   - Readers take the outer read lock and observe one consistent snapshot
//     per operation; borrowed inner sets are only touched while it is held.
//   - The presence and files tables advance their ID counters in lockstep:
//     every fresh path interning is paired with a presence insert, and both
//     are cleared together, so a path's FileID keys both tables.
//
// Lifecycle:
//   - File paths and words are interned in lower-case canonical form on
//     first sight and keep their IDs until ClearAll.
//   - Removing a file tombstones it (presence flips to false, forward set is
//     emptied but keyed); re-adding the same path reuses its FileID.
//   - Word IDs are never garbage-collected.
//
// File bodies live in the storage collaborator; the index never holds
// content, only word occurrences.
type Manager struct {
	log   *zap.Logger
	store *storage.Store

	mu sync.RWMutex

	inverted *Inverted
	forward  *Forward

	words   *Table[WordID, string]
	files   *Table[FileID, string]
	present *Table[FileID, bool]

	presentCount int
}

// NewManager constructs an empty index over the given blob store.
func NewManager(log *zap.Logger, store *storage.Store) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		log:      log.Named("index"),
		store:    store,
		inverted: NewInverted(),
		forward:  NewForward(),
		words:    NewTable[WordID, string](),
		files:    NewTable[FileID, string](),
		present:  NewOneWayTable[FileID, bool](),
	}
}

// HasFile reports whether the path is currently indexed, together with its
// FileID. A tombstoned path yields (false, id); an unknown one (false, 0).
func (m *Manager) HasFile(filePath string) (bool, FileID) {
	lowered := textnorm.Lower(filePath)

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hasFileLowered(lowered)
}

// hasFileLowered is the lock-free core of HasFile. Caller holds the outer lock.
func (m *Manager) hasFileLowered(lowered string) (bool, FileID) {
	id := m.files.IDOfOrZeroUnsafe(lowered)
	if id == 0 {
		return false, 0
	}
	present, err := m.present.ValueUnsafe(id)
	return err == nil && present, id
}

// FileContent reads the file body from storage verbatim. The index lock is
// never consulted: content lives on disk, membership in memory.
func (m *Manager) FileContent(filePath string) ([]byte, error) {
	return m.store.Read(filePath)
}

// AddFile reads, tokenises and indexes an existing on-disk file.
func (m *Manager) AddFile(filePath string) error {
	lowered := textnorm.Lower(filePath)

	m.mu.RLock()
	present, _ := m.hasFileLowered(lowered)
	m.mu.RUnlock()
	if present {
		return fmt.Errorf("%w: %s", ErrAlreadyIndexed, lowered)
	}

	body, err := m.store.Read(lowered)
	if err != nil {
		return fmt.Errorf("index: add %q: %w", lowered, err)
	}

	return m.indexTokens(lowered, textnorm.Tokenize(string(body)))
}

// AddCreateFile writes body to storage at the (lowered) path, then indexes it
// from the in-memory body directly. Fails if the path is indexed or the file
// already exists on disk; nothing is committed on failure.
func (m *Manager) AddCreateFile(filePath string, body []byte) error {
	lowered := textnorm.Lower(filePath)

	m.mu.RLock()
	present, _ := m.hasFileLowered(lowered)
	m.mu.RUnlock()
	if present {
		return fmt.Errorf("%w: %s", ErrAlreadyIndexed, lowered)
	}

	if err := m.store.Create(lowered, body); err != nil {
		return fmt.Errorf("index: add-create %q: %w", lowered, err)
	}

	return m.indexTokens(lowered, textnorm.Tokenize(string(body)))
}

// indexTokens interns the path if needed and walks the token stream,
// assigning positions 1..N in document order. One write critical section.
func (m *Manager) indexTokens(lowered string, tokens []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Re-check under the write lock: a concurrent writer may have won.
	present, fileID := m.hasFileLowered(lowered)
	if present {
		return fmt.Errorf("%w: %s", ErrAlreadyIndexed, lowered)
	}

	if fileID == 0 {
		var err error
		fileID, err = m.files.AddUnsafe(lowered)
		if err != nil {
			return err
		}
		// Lockstep counters: this insert lands under the same ID.
		if _, err := m.present.AddUnsafe(true); err != nil {
			return err
		}
	} else {
		if err := m.present.ModifyByIDUnsafe(fileID, true); err != nil {
			return err
		}
	}

	m.addTokensLocked(fileID, tokens)
	m.presentCount++
	return nil
}

// addTokensLocked interns each token and records postings. Caller holds the
// outer write lock.
func (m *Manager) addTokensLocked(fileID FileID, tokens []string) {
	wordIDs := mapset.NewThreadUnsafeSet[WordID]()

	pos := Position(1)
	for _, tok := range tokens {
		wordID := m.words.IDOfOrZeroUnsafe(tok)
		if wordID == 0 {
			wordID, _ = m.words.AddUnsafe(tok)
		}
		m.inverted.AddPostingUnsafe(wordID, Posting{FileID: fileID, Position: pos})
		wordIDs.Add(wordID)
		pos++
	}

	m.forward.AddWordIDSetUnsafe(fileID, wordIDs)
}

// RemoveFile tombstones the file: postings and forward entries are cleared,
// but the path keeps its FileID for future re-adds.
func (m *Manager) RemoveFile(filePath string) error {
	lowered := textnorm.Lower(filePath)

	m.mu.Lock()
	defer m.mu.Unlock()

	present, fileID := m.hasFileLowered(lowered)
	if !present {
		return fmt.Errorf("%w: %s", ErrUnknownFile, lowered)
	}

	if err := m.clearFileLocked(fileID); err != nil {
		return err
	}
	if err := m.present.ModifyByIDUnsafe(fileID, false); err != nil {
		return err
	}
	m.presentCount--
	return nil
}

// clearFileLocked removes the file's postings from every word it contains and
// empties its forward set. Caller holds the outer write lock.
func (m *Manager) clearFileLocked(fileID FileID) error {
	wordIDs, err := m.forward.WordIDSetUnsafe(fileID)
	if err != nil {
		return fmt.Errorf("index: clear file %d: %w", fileID, err)
	}

	var clearErr error
	wordIDs.Each(func(w WordID) bool {
		if err := m.inverted.ClearForWordAndFileUnsafe(w, fileID); err != nil {
			clearErr = err
			return true
		}
		return false
	})
	if clearErr != nil {
		return clearErr
	}

	m.forward.ClearFileUnsafe(fileID)
	return nil
}

// ModifyFile re-reads the file from storage and atomically replaces its
// postings: the removal of the old word set and the indexing of the new
// tokens happen in one write critical section.
func (m *Manager) ModifyFile(filePath string) error {
	lowered := textnorm.Lower(filePath)

	m.mu.RLock()
	present, _ := m.hasFileLowered(lowered)
	m.mu.RUnlock()
	if !present {
		return fmt.Errorf("%w: %s", ErrUnknownFile, lowered)
	}

	body, err := m.store.Read(lowered)
	if err != nil {
		return fmt.Errorf("index: modify %q: %w", lowered, err)
	}
	tokens := textnorm.Tokenize(string(body))

	m.mu.Lock()
	defer m.mu.Unlock()

	present, fileID := m.hasFileLowered(lowered)
	if !present {
		return fmt.Errorf("%w: %s", ErrUnknownFile, lowered)
	}

	if err := m.clearFileLocked(fileID); err != nil {
		return err
	}
	m.addTokensLocked(fileID, tokens)
	return nil
}

// ClearAll resets the whole index: every table, both projections, every
// counter. Interned IDs do not survive this.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.inverted.ClearUnsafe()
	m.forward.ClearUnsafe()
	m.words.ClearUnsafe()
	m.files.ClearUnsafe()
	m.present.ClearUnsafe()
	m.presentCount = 0
}

// Rebuild walks the storage base directory and indexes every regular file.
// Unreadable files are logged and skipped. Returns the number indexed.
func (m *Manager) Rebuild() (int, error) {
	added := 0
	err := m.store.WalkBase(func(p string) error {
		if err := m.AddFile(p); err != nil {
			m.log.Warn("rebuild: skipping file", zap.String("path", p), zap.Error(err))
			return nil
		}
		added++
		return nil
	})
	return added, err
}

// SearchFiles resolves a conjunctive files-only query: the returned map holds
// every file containing ALL of the query words. Words are lowered and
// de-duplicated first. ErrNoMatch when any word is unknown or no file
// satisfies the conjunction.
func (m *Manager) SearchFiles(queryWords []string) (map[FileID]string, error) {
	words := lowerDedupe(queryWords)
	if len(words) == 0 {
		return nil, ErrNoMatch
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(words) == 1 {
		fset, err := m.fileSetForWord(words[0])
		if err != nil {
			return nil, err
		}
		return m.pathsFor(fset), nil
	}

	counts := make(map[FileID]int)
	for _, w := range words {
		fset, err := m.fileSetForWord(w)
		if err != nil {
			return nil, err
		}
		fset.Each(func(f FileID) bool {
			counts[f]++
			return false
		})
	}

	out := make(map[FileID]string)
	for fileID, n := range counts {
		if n == len(words) {
			out[fileID] = m.pathOf(fileID)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoMatch
	}
	return out, nil
}

// SearchHits resolves a conjunctive positional query: the file map as in
// SearchFiles plus every satisfying file's postings for the query words.
func (m *Manager) SearchHits(queryWords []string) (map[FileID]string, []Posting, error) {
	words := lowerDedupe(queryWords)
	if len(words) == 0 {
		return nil, nil, ErrNoMatch
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(words) == 1 {
		w := words[0]
		fset, err := m.fileSetForWord(w)
		if err != nil {
			return nil, nil, err
		}
		wordID := m.words.IDOfOrZeroUnsafe(w)
		hits, err := m.inverted.PostingSetUnsafe(wordID)
		if err != nil {
			return nil, nil, ErrNoMatch
		}
		return m.pathsFor(fset), hits.ToSlice(), nil
	}

	counts := make(map[FileID]int)
	hitsByFile := make(map[FileID][]Posting)
	for _, w := range words {
		fset, err := m.fileSetForWord(w)
		if err != nil {
			return nil, nil, err
		}
		fset.Each(func(f FileID) bool {
			counts[f]++
			return false
		})

		wordID := m.words.IDOfOrZeroUnsafe(w)
		hits, err := m.inverted.PostingSetUnsafe(wordID)
		if err != nil {
			return nil, nil, ErrNoMatch
		}
		hits.Each(func(p Posting) bool {
			hitsByFile[p.FileID] = append(hitsByFile[p.FileID], p)
			return false
		})
	}

	outFiles := make(map[FileID]string)
	var outHits []Posting
	for fileID, n := range counts {
		if n == len(words) {
			outFiles[fileID] = m.pathOf(fileID)
			outHits = append(outHits, hitsByFile[fileID]...)
		}
	}
	if len(outFiles) == 0 {
		return nil, nil, ErrNoMatch
	}
	return outFiles, outHits, nil
}

// fileSetForWord resolves one lowered word to its live file-set projection.
// Caller holds the outer read lock. ErrNoMatch when the word is unknown or
// its file set is empty.
func (m *Manager) fileSetForWord(w string) (mapset.Set[FileID], error) {
	wordID := m.words.IDOfOrZeroUnsafe(w)
	if wordID == 0 {
		return nil, ErrNoMatch
	}
	fset, err := m.inverted.FileSetUnsafe(wordID)
	if err != nil || fset.Cardinality() == 0 {
		return nil, ErrNoMatch
	}
	return fset, nil
}

// pathsFor materialises the FileID → path map for a file set. Caller holds
// the outer read lock.
func (m *Manager) pathsFor(fset mapset.Set[FileID]) map[FileID]string {
	out := make(map[FileID]string, fset.Cardinality())
	fset.Each(func(f FileID) bool {
		out[f] = m.pathOf(f)
		return false
	})
	return out
}

// pathOf returns the interned path for a known FileID. Caller holds the
// outer read lock; IDs reaching here came from the projections, so a miss is
// an invariant violation worth surfacing loudly in logs, not a user error.
func (m *Manager) pathOf(fileID FileID) string {
	p, err := m.files.ValueUnsafe(fileID)
	if err != nil {
		m.log.Error("invariant violation: projection references unknown file id",
			zap.Uint32("file_id", uint32(fileID)))
		return ""
	}
	return p
}

// Stats is a point-in-time snapshot for diagnostics.
type Stats struct {
	Files int `json:"files"` // currently present (tombstones excluded)
	Words int `json:"words"` // interned words, never garbage-collected
}

// Snapshot returns current index counters.
func (m *Manager) Snapshot() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{Files: m.presentCount, Words: m.words.Len()}
}

// lowerDedupe lowers every query word and drops duplicates, preserving first
// appearance order. The conjunction count k is the deduped length.
func lowerDedupe(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		lw := textnorm.Lower(w)
		if _, dup := seen[lw]; dup {
			continue
		}
		seen[lw] = struct{}{}
		out = append(out, lw)
	}
	return out
}
