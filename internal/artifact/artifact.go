// Package artifact stores downloadable CSV files on disk under opaque,
// regexp-constrained identifiers.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an artifact id is unknown, unreadable, or
// fails the identifier pattern.
var ErrNotFound = errors.New("artifact not found")

// idPattern constrains artifact identifiers to a single safe filename.
// Anything else (slashes, "..", empty) is rejected before touching the
// filesystem.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]+\.csv$`)

// Store writes and serves CSV artifacts from a single directory.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes the CSV bytes under a fresh identifier and returns it.
func (s *Store) Save(data []byte) (string, error) {
	id := uuid.NewString() + ".csv"
	if err := os.WriteFile(filepath.Join(s.dir, id), data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return id, nil
}

// Open returns the artifact bytes for id. Identifiers that do not match the
// filename pattern are treated as absent, never as paths.
func (s *Store) Open(id string) ([]byte, error) {
	if !idPattern.MatchString(id) {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(filepath.Join(s.dir, id))
	if err != nil {
		return nil, ErrNotFound
	}
	return data, nil
}
