package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edirooss/searchd/internal/storage"
	"github.com/edirooss/searchd/internal/textnorm"
)

// newTestManager chdirs into a fresh temp dir with a text_files/ corpus root
// and returns a manager over it. Index paths are relative (text_files/...),
// matching how the server addresses the corpus.
func newTestManager(t *testing.T) *Manager {
	t.Helper()
	t.Chdir(t.TempDir())
	require.NoError(t, os.Mkdir("text_files", 0o755))

	store, err := storage.New(nil, "text_files")
	require.NoError(t, err)
	return NewManager(nil, store)
}

func writeCorpusFile(t *testing.T, rel, content string) string {
	t.Helper()
	p := filepath.Join("text_files", filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return "text_files/" + rel
}

func pathsOf(files map[FileID]string) []string {
	out := make([]string, 0, len(files))
	for _, p := range files {
		out = append(out, p)
	}
	return out
}

func TestAddFileAndSearch(t *testing.T) {
	m := newTestManager(t)
	a := writeCorpusFile(t, "a.txt", "Hello world")
	b := writeCorpusFile(t, "b.txt", "hello there")

	require.NoError(t, m.AddFile(a))
	require.NoError(t, m.AddFile(b))

	files, err := m.SearchFiles([]string{"hello"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a, b}, pathsOf(files))

	files, err = m.SearchFiles([]string{"hello", "world"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a}, pathsOf(files))
}

func TestSearchHitsPositions(t *testing.T) {
	m := newTestManager(t)
	a := writeCorpusFile(t, "a.txt", "Hello world")
	require.NoError(t, m.AddFile(a))
	require.NoError(t, m.AddFile(writeCorpusFile(t, "b.txt", "hello there")))

	files, hits, err := m.SearchHits([]string{"hello", "world"})
	require.NoError(t, err)
	require.Len(t, files, 1)

	var fileID FileID
	for id := range files {
		fileID = id
	}
	assert.Equal(t, a, files[fileID])
	assert.ElementsMatch(t, []Posting{
		{FileID: fileID, Position: 1},
		{FileID: fileID, Position: 2},
	}, hits)
}

func TestAddFileAlreadyIndexed(t *testing.T) {
	m := newTestManager(t)
	a := writeCorpusFile(t, "a.txt", "one")
	require.NoError(t, m.AddFile(a))
	assert.ErrorIs(t, m.AddFile(a), ErrAlreadyIndexed)
}

func TestAddFileMissingOnDisk(t *testing.T) {
	m := newTestManager(t)
	assert.ErrorIs(t, m.AddFile("text_files/ghost.txt"), storage.ErrNotFound)
}

func TestRemoveTombstonesAndReAddReusesID(t *testing.T) {
	m := newTestManager(t)
	a := writeCorpusFile(t, "a.txt", "hello world")
	require.NoError(t, m.AddFile(a))

	_, idBefore := m.HasFile(a)
	require.NotZero(t, idBefore)

	require.NoError(t, m.RemoveFile(a))

	present, idAfter := m.HasFile(a)
	assert.False(t, present)
	assert.Equal(t, idBefore, idAfter, "tombstone keeps the interned id")

	_, err := m.SearchFiles([]string{"hello"})
	assert.ErrorIs(t, err, ErrNoMatch)

	require.NoError(t, m.AddFile(a))
	present, idReadded := m.HasFile(a)
	assert.True(t, present)
	assert.Equal(t, idBefore, idReadded, "re-add reuses the tombstoned id")
}

func TestRemoveUnknownFile(t *testing.T) {
	m := newTestManager(t)
	assert.ErrorIs(t, m.RemoveFile("text_files/ghost.txt"), ErrUnknownFile)
}

func TestModifyFileReassignsPositions(t *testing.T) {
	m := newTestManager(t)
	a := writeCorpusFile(t, "a.txt", "Hello world")
	require.NoError(t, m.AddFile(a))

	writeCorpusFile(t, "a.txt", "world hello")
	require.NoError(t, m.ModifyFile(a))

	_, hits, err := m.SearchHits([]string{"hello"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, Position(2), hits[0].Position)
}

func TestModifyUnknownFile(t *testing.T) {
	m := newTestManager(t)
	assert.ErrorIs(t, m.ModifyFile("text_files/ghost.txt"), ErrUnknownFile)
}

func TestAddCreateFile(t *testing.T) {
	m := newTestManager(t)

	require.NoError(t, m.AddCreateFile("text_files/new.txt", []byte("fresh content")))

	body, err := os.ReadFile(filepath.Join("text_files", "new.txt"))
	require.NoError(t, err)
	assert.Equal(t, "fresh content", string(body))

	files, err := m.SearchFiles([]string{"fresh"})
	require.NoError(t, err)
	assert.Len(t, files, 1)

	assert.ErrorIs(t, m.AddCreateFile("text_files/new.txt", []byte("again")), ErrAlreadyIndexed)

	// Tombstoned in the index but still on disk: create must refuse.
	require.NoError(t, m.RemoveFile("text_files/new.txt"))
	assert.ErrorIs(t, m.AddCreateFile("text_files/new.txt", []byte("again")), storage.ErrAlreadyOnDisk)
}

func TestAddCreateFileCreatesParents(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.AddCreateFile("text_files/sub/dir/deep.txt", []byte("nested words")))

	files, err := m.SearchFiles([]string{"nested"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"text_files/sub/dir/deep.txt"}, pathsOf(files))
}

func TestCaseInsensitiveSearch(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.AddFile(writeCorpusFile(t, "a.txt", "Hello World")))

	upper, err := m.SearchFiles([]string{"HELLO", "WORLD"})
	require.NoError(t, err)
	lower, err := m.SearchFiles([]string{"hello", "world"})
	require.NoError(t, err)
	assert.Equal(t, lower, upper)
}

func TestHasFileLowersPath(t *testing.T) {
	m := newTestManager(t)
	a := writeCorpusFile(t, "a.txt", "hello")
	require.NoError(t, m.AddFile(a))

	present, _ := m.HasFile("TEXT_FILES/A.TXT")
	assert.True(t, present)
}

func TestEmptyFile(t *testing.T) {
	m := newTestManager(t)
	empty := writeCorpusFile(t, "empty.txt", "")
	other := writeCorpusFile(t, "other.txt", "hello")

	require.NoError(t, m.AddFile(empty))
	require.NoError(t, m.AddFile(other))

	present, _ := m.HasFile(empty)
	assert.True(t, present)

	files, err := m.SearchFiles([]string{"hello"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{other}, pathsOf(files))
}

func TestSingleWordFilePositionOne(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.AddFile(writeCorpusFile(t, "one.txt", "solitary")))

	_, hits, err := m.SearchHits([]string{"solitary"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, Position(1), hits[0].Position)
}

func TestSearchEmptyQuery(t *testing.T) {
	m := newTestManager(t)
	_, err := m.SearchFiles(nil)
	assert.ErrorIs(t, err, ErrNoMatch)
	_, _, err = m.SearchHits(nil)
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestSearchUnknownWord(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.AddFile(writeCorpusFile(t, "a.txt", "hello")))

	_, err := m.SearchFiles([]string{"absent"})
	assert.ErrorIs(t, err, ErrNoMatch)

	// One unknown word empties the whole conjunction.
	_, err = m.SearchFiles([]string{"hello", "absent"})
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestSearchDuplicateQueryWords(t *testing.T) {
	m := newTestManager(t)
	a := writeCorpusFile(t, "a.txt", "hello world")
	require.NoError(t, m.AddFile(a))

	// Duplicates collapse; "hello hello" is the single-word query.
	files, err := m.SearchFiles([]string{"hello", "HELLO"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a}, pathsOf(files))
}

func TestPositionsDense(t *testing.T) {
	m := newTestManager(t)
	a := writeCorpusFile(t, "a.txt", "one two three two one")
	require.NoError(t, m.AddFile(a))

	positions := make(map[Position]bool)
	for _, w := range []string{"one", "two", "three"} {
		_, hits, err := m.SearchHits([]string{w})
		require.NoError(t, err)
		for _, h := range hits {
			positions[h.Position] = true
		}
	}

	assert.Len(t, positions, 5)
	for p := Position(1); p <= 5; p++ {
		assert.True(t, positions[p], "position %d missing", p)
	}
}

func TestConjunctiveCorrectness(t *testing.T) {
	m := newTestManager(t)

	corpus := map[string]string{
		"a.txt": "red green blue",
		"b.txt": "red green",
		"c.txt": "red",
		"d.txt": "green blue yellow",
	}
	paths := make(map[string]string, len(corpus))
	for name, content := range corpus {
		p := writeCorpusFile(t, name, content)
		paths[name] = p
		require.NoError(t, m.AddFile(p))
	}

	tests := []struct {
		query []string
		want  []string
	}{
		{[]string{"red"}, []string{paths["a.txt"], paths["b.txt"], paths["c.txt"]}},
		{[]string{"red", "green"}, []string{paths["a.txt"], paths["b.txt"]}},
		{[]string{"red", "green", "blue"}, []string{paths["a.txt"]}},
		{[]string{"green", "yellow"}, []string{paths["d.txt"]}},
	}
	for _, tt := range tests {
		files, err := m.SearchFiles(tt.query)
		require.NoError(t, err, "query %v", tt.query)
		assert.ElementsMatch(t, tt.want, pathsOf(files), "query %v", tt.query)
	}

	_, err := m.SearchFiles([]string{"red", "yellow"})
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestRebuildWalksBaseDir(t *testing.T) {
	m := newTestManager(t)
	writeCorpusFile(t, "a.txt", "alpha")
	writeCorpusFile(t, "nested/b.txt", "beta")

	added, err := m.Rebuild()
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	files, err := m.SearchFiles([]string{"beta"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"text_files/nested/b.txt"}, pathsOf(files))
}

func TestClearAllResetsIDs(t *testing.T) {
	m := newTestManager(t)
	a := writeCorpusFile(t, "a.txt", "hello")
	require.NoError(t, m.AddFile(a))
	_, idBefore := m.HasFile(a)
	require.NotZero(t, idBefore)

	m.ClearAll()

	present, id := m.HasFile(a)
	assert.False(t, present)
	assert.Zero(t, id)
	assert.Zero(t, m.Snapshot().Files)
	assert.Zero(t, m.Snapshot().Words)

	require.NoError(t, m.AddFile(a))
	_, idAfter := m.HasFile(a)
	assert.Equal(t, FileID(1), idAfter)
}

func TestSnapshotCounts(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.AddFile(writeCorpusFile(t, "a.txt", "one two three")))
	require.NoError(t, m.AddFile(writeCorpusFile(t, "b.txt", "one")))

	st := m.Snapshot()
	assert.Equal(t, 2, st.Files)
	assert.Equal(t, 3, st.Words)

	require.NoError(t, m.RemoveFile("text_files/b.txt"))
	st = m.Snapshot()
	assert.Equal(t, 1, st.Files)
	assert.Equal(t, 3, st.Words, "word ids are never garbage-collected")
}

// Tokeniser and index agree: any indexed word is findable verbatim.
func TestIndexAndQueryShareTokenizer(t *testing.T) {
	m := newTestManager(t)
	content := "Café déjà-vu Привіт 42"
	a := writeCorpusFile(t, "u.txt", content)
	require.NoError(t, m.AddFile(a))

	for _, w := range textnorm.Tokenize(content) {
		files, err := m.SearchFiles([]string{w})
		require.NoError(t, err, "word %q", w)
		assert.ElementsMatch(t, []string{a}, pathsOf(files), "word %q", w)
	}
}
