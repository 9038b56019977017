// Package storage is the blob-storage collaborator of the index: it owns the
// raw file bodies on the filesystem, while the index owns membership and the
// in-memory projections. Bodies are written and read verbatim; path
// canonicalisation (lower-casing) is the index's concern, not ours.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"
)

var (
	// ErrNotFound means the path does not exist on disk.
	ErrNotFound = errors.New("storage: file not found")
	// ErrAlreadyOnDisk means Create was asked to overwrite an existing file.
	ErrAlreadyOnDisk = errors.New("storage: file already on disk")
)

// Store reads and writes file bodies by slash-separated path, relative to
// the process working directory. Client-supplied bodies land under BaseDir;
// the startup rebuild walks BaseDir recursively.
//
// The store is stateless between calls and safe for concurrent use; write
// serialisation against the index is the caller's job (the worker pool runs
// mutations under the index manager's write lock).
type Store struct {
	log     *zap.Logger
	baseDir string
}

// New validates that baseDir exists and is a directory.
func New(log *zap.Logger, baseDir string) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if baseDir == "" {
		return nil, errors.New("storage: empty base dir")
	}

	info, err := os.Stat(filepath.FromSlash(baseDir))
	if err != nil {
		return nil, fmt.Errorf("storage: stat base dir %q: %w", baseDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: base dir %q is not a directory", baseDir)
	}

	return &Store{log: log.Named("storage"), baseDir: path.Clean(filepath.ToSlash(baseDir))}, nil
}

// BaseDir returns the configured base directory (slash-separated).
func (s *Store) BaseDir() string { return s.baseDir }

// JoinBase prefixes the base directory onto a client-supplied relative path.
func (s *Store) JoinBase(rel string) string { return path.Join(s.baseDir, rel) }

// Read returns the file body verbatim.
func (s *Store) Read(p string) ([]byte, error) {
	body, err := os.ReadFile(filepath.FromSlash(p))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return nil, fmt.Errorf("storage: read %q: %w", p, err)
	}
	return body, nil
}

// Create writes body to a new file at p, creating parent directories as
// needed. An existing file is never overwritten.
func (s *Store) Create(p string, body []byte) error {
	osPath := filepath.FromSlash(p)

	if _, err := os.Stat(osPath); err == nil {
		return fmt.Errorf("%w: %s", ErrAlreadyOnDisk, p)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: stat %q: %w", p, err)
	}

	if dir := filepath.Dir(osPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("storage: mkdir %q: %w", dir, err)
		}
	}

	if err := os.WriteFile(osPath, body, 0o644); err != nil {
		return fmt.Errorf("storage: write %q: %w", p, err)
	}

	s.log.Debug("created file", zap.String("path", p), zap.Int("bytes", len(body)))
	return nil
}

// WalkBase calls fn for every regular file under the base directory,
// depth-first, with the file's slash-separated path prefixed by BaseDir. A
// non-nil error from fn aborts the walk.
func (s *Store) WalkBase(fn func(p string) error) error {
	root := filepath.FromSlash(s.baseDir)

	return filepath.WalkDir(root, func(osPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, osPath)
		if err != nil {
			return err
		}
		return fn(path.Join(s.baseDir, filepath.ToSlash(rel)))
	})
}
