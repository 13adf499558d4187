// Package snapshot persists the ranked list and never regresses it to empty.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/SHSHJW/top10-daily/internal/logger"
	"github.com/SHSHJW/top10-daily/internal/models"
	"github.com/SHSHJW/top10-daily/internal/validator"
	"github.com/SHSHJW/top10-daily/pkg/digest"
)

// ErrInvalidPrevious marks a previous file that exists but breaks the contract.
var ErrInvalidPrevious = errors.New("previous snapshot is invalid")

// PersistenceError is a filesystem failure while writing the snapshot.
type PersistenceError struct {
	Err  error
	Op   string
	Path string
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Store reads and writes one snapshot file.
type Store struct {
	log    *logger.Logger
	now    func() time.Time
	path   string
	backup bool
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the clock used for updatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithBackup keeps a copy of the previous file at <path>.bak.
func WithBackup(enabled bool) Option {
	return func(s *Store) { s.backup = enabled }
}

// WithLogger sets the store logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

// NewStore creates a store for the given path.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{path: path, now: time.Now, log: logger.Nop()}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Path returns the snapshot file path.
func (s *Store) Path() string {
	return s.path
}

// CommitResult describes what Commit wrote.
type CommitResult struct {
	Snapshot  *models.Snapshot
	Previous  *models.Snapshot
	Hash      string
	Preserved bool // items carried over from the previous file
	Changed   bool // items differ from the previous file
}

// Read loads the current snapshot. A missing file yields (nil, nil); a
// malformed or invalid one yields (nil, error wrapping ErrInvalidPrevious).
func (s *Store) Read() (*models.Snapshot, error) {
	snap, _, err := s.read()

	return snap, err
}

func (s *Store) read() (*models.Snapshot, []byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil
	}

	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidPrevious, err)
	}

	snap, result := validator.ParseSnapshot(data)
	if !result.IsValid {
		return nil, data, fmt.Errorf("%w: %w", ErrInvalidPrevious, result.Err())
	}

	return snap, data, nil
}

// Commit writes {updatedAt: now, items}. When items is empty the previous
// items are kept and only the timestamp advances. The write replaces the
// file atomically; any filesystem failure is a *PersistenceError.
func (s *Store) Commit(items []models.CanonicalItem) (*CommitResult, error) {
	prev, prevData, err := s.read()
	if err != nil {
		s.log.Warn("⚠️ Ignoring previous snapshot", "path", s.path, "error", err)
		prev = nil
	}

	result := &CommitResult{Previous: prev}

	next := items
	if len(items) == 0 && prev != nil {
		next = prev.Items
		result.Preserved = true
	}

	result.Snapshot = models.NewSnapshot(s.now(), next)
	result.Hash = digest.ItemsHash(result.Snapshot.Items)

	if prev == nil {
		result.Changed = len(result.Snapshot.Items) > 0
	} else {
		result.Changed = digest.ItemsHash(prev.Items) != result.Hash
	}

	data, err := Encode(result.Snapshot)
	if err != nil {
		return nil, &PersistenceError{Op: "encode", Path: s.path, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, &PersistenceError{Op: "mkdir", Path: s.path, Err: err}
	}

	if s.backup && prevData != nil {
		backupPath := s.path + ".bak"
		if err := WriteFileAtomic(backupPath, prevData, 0o644); err != nil {
			s.log.Warn("⚠️ Could not create backup", "path", backupPath, "error", err)
		} else {
			s.log.Debug("💾 Backed up existing file", "path", backupPath)
		}
	}

	if err := WriteFileAtomic(s.path, data, 0o644); err != nil {
		return nil, err
	}

	s.log.Info("💾 Snapshot written",
		"path", s.path,
		"items", len(result.Snapshot.Items),
		"preserved", result.Preserved,
		"changed", result.Changed,
		"hash", digest.Short(result.Hash),
	)

	return result, nil
}

// Encode renders a snapshot as indented JSON with a trailing newline.
func Encode(snap *models.Snapshot) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if err := enc.Encode(snap); err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteFileAtomic writes data to a temporary file in the target directory,
// syncs it and renames it over path.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &PersistenceError{Op: "create", Path: path, Err: err}
	}

	tmpPath := tmp.Name()

	fail := func(op string, err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)

		return &PersistenceError{Op: op, Path: path, Err: err}
	}

	if _, err := tmp.Write(data); err != nil {
		return fail("write", err)
	}

	if err := tmp.Sync(); err != nil {
		return fail("sync", err)
	}

	if err := tmp.Chmod(perm); err != nil {
		return fail("chmod", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)

		return &PersistenceError{Op: "close", Path: path, Err: err}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)

		return &PersistenceError{Op: "rename", Path: path, Err: err}
	}

	return nil
}
