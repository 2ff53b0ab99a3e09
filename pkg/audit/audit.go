package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/polyguard-ai/polyguard/pkg/types"
)

// Entry is one appended run record.
type Entry struct {
	Timestamp time.Time     `json:"timestamp"`
	Identity  string        `json:"identity"`
	InputText string        `json:"input_text"`
	Verdict   types.Verdict `json:"verdict"`
}

// Store persists run verdicts, one collection per identity per calendar day.
type Store interface {
	Append(identity string, entry Entry) error
	ReadAll(identity string, day time.Time) ([]Entry, error)
}

// FileStore keeps each day's collection as a JSON array in
// {identity}_{YYYY-MM-DD}.json under its directory. Appends rewrite the
// whole file; concurrent runs for the same identity may race on this and
// that is accepted.
type FileStore struct {
	dir    string
	logger *logrus.Logger
}

func NewFileStore(dir string, logger *logrus.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

func (s *FileStore) path(identity string, day time.Time) string {
	name := fmt.Sprintf("%s_%s.json", identity, day.Format("2006-01-02"))
	return filepath.Join(s.dir, name)
}

func (s *FileStore) Append(identity string, entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	entry.Identity = identity

	entries, err := s.ReadAll(identity, entry.Timestamp)
	if err != nil {
		return err
	}
	entries = append(entries, entry)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode audit entries: %w", err)
	}

	path := s.path(identity, entry.Timestamp)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write audit file %s: %w", path, err)
	}

	s.logger.WithFields(logrus.Fields{
		"identity": identity,
		"file":     filepath.Base(path),
		"entries":  len(entries),
	}).Debug("audit entry appended")
	return nil
}

// ReadAll returns the day's ordered collection. A missing or corrupt file
// yields an empty collection, never an error.
func (s *FileStore) ReadAll(identity string, day time.Time) ([]Entry, error) {
	data, err := os.ReadFile(s.path(identity, day))
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read audit file: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.WithError(err).WithField("identity", identity).
			Warn("corrupt audit file, starting fresh")
		return []Entry{}, nil
	}
	return entries, nil
}
