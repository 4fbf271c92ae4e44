// Package history persists reorg descriptors so a planned operation can be
// listed, inspected and replayed later.
//
// Each record is one JSON file named after its id in the history directory.
// Writes go through fsops.FS so a crash never leaves a half written record.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danieljhkim/reorg/internal/clock"
	"github.com/danieljhkim/reorg/internal/fsops"
)

var (
	// ErrNotFound indicates no record matches the requested id.
	ErrNotFound = errors.New("history record not found")

	// ErrAmbiguous indicates an id prefix matches more than one record.
	ErrAmbiguous = errors.New("ambiguous history id")
)

// Record is a saved descriptor.
type Record struct {
	ID        string            `json:"id"`
	Policy    string            `json:"policy"`
	Label     string            `json:"label,omitempty"`
	Model     string            `json:"model,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	Arguments map[string]string `json:"arguments"`
}

// Store saves and loads records.
type Store interface {
	// Save assigns an id and timestamp when missing and writes the record.
	Save(r *Record) error

	// Load returns the record with the given id or unique id prefix.
	Load(id string) (*Record, error)

	// List returns all records, oldest first.
	List() ([]*Record, error)

	// Delete removes the record with the given id or unique id prefix.
	Delete(id string) error
}

// FileStore implements Store using JSON files on disk.
type FileStore struct {
	fs    fsops.FS
	dir   string
	clock clock.Clock
	newID func() string
}

// NewFileStore creates a FileStore writing below dir.
func NewFileStore(fs fsops.FS, dir string, clk clock.Clock) *FileStore {
	return &FileStore{
		fs:    fs,
		dir:   dir,
		clock: clk,
		newID: uuid.NewString,
	}
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Save writes the record atomically.
func (s *FileStore) Save(r *Record) error {
	if r.ID == "" {
		r.ID = s.newID()
	}
	if err := s.fs.ValidateIdentifier(r.ID); err != nil {
		return fmt.Errorf("invalid history id: %w", err)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.clock.Now()
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history record: %w", err)
	}
	if err := s.fs.AtomicWrite(s.path(r.ID), data, 0644); err != nil {
		return fmt.Errorf("failed to write history record: %w", err)
	}
	return nil
}

// Load reads a record by id or unique id prefix.
func (s *FileStore) Load(id string) (*Record, error) {
	full, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	return s.read(full)
}

func (s *FileStore) read(id string) (*Record, error) {
	data, err := s.fs.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to read history record: %w", err)
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history record %s: %w", id, err)
	}
	return &r, nil
}

// List returns every record sorted by creation time, then id.
func (s *FileStore) List() ([]*Record, error) {
	ids, err := s.ids()
	if err != nil {
		return nil, err
	}
	records := make([]*Record, 0, len(ids))
	for _, id := range ids {
		r, err := s.read(id)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}

// Delete removes a record.
func (s *FileStore) Delete(id string) error {
	full, err := s.resolve(id)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(s.path(full)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete history record: %w", err)
	}
	return nil
}

func (s *FileStore) ids() ([]string, error) {
	names, err := s.fs.ListFiles(s.dir, ".json")
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	ids := make([]string, 0, len(names))
	for _, name := range names {
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}

// resolve expands an id prefix to the one id it matches.
func (s *FileStore) resolve(prefix string) (string, error) {
	if err := s.fs.ValidateIdentifier(prefix); err != nil {
		return "", fmt.Errorf("invalid history id: %w", err)
	}
	ids, err := s.ids()
	if err != nil {
		return "", err
	}
	var matches []string
	for _, id := range ids {
		if id == prefix {
			return id, nil
		}
		if strings.HasPrefix(id, prefix) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrNotFound, prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %s matches %d records", ErrAmbiguous, prefix, len(matches))
	}
}
