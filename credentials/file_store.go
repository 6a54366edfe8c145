package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/careerlink/session-gate/internal/errors"
	"github.com/rs/zerolog/log"
)

// DefaultFileName is the record file created inside the data folder.
const DefaultFileName = "credentials.json"

var _ Store = (*FileStore)(nil)

// FileStore persists the record as a flat JSON object. Writes go through a
// temp file and rename so a crash never leaves a half-written record.
type FileStore struct {
	path string
	mu   sync.RWMutex
}

// NewFileStore creates the data folder if needed. The file itself is created
// on first write.
func NewFileStore(folder string) (*FileStore, error) {
	if err := os.MkdirAll(folder, 0o700); err != nil {
		return nil, fmt.Errorf("[NewFileStore] create data folder: %w", err)
	}
	return &FileStore{path: filepath.Join(folder, DefaultFileName)}, nil
}

// Path is the location of the record file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values, err := s.load()
	if err != nil {
		return "", err
	}
	value, ok := values[key]
	if !ok {
		return "", errors.ErrNotFound
	}
	return value, nil
}

// Set overwrites key. A corrupt record is discarded and replaced by one
// holding only this key.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if errors.Is(err, errors.ErrCorruptRecord) {
		log.Warn().Err(err).Msg("discarding corrupt credential record")
		values, err = make(map[string]string), nil
	}
	if err != nil {
		return err
	}
	values[key] = value
	return s.save(values)
}

// Remove deletes key. A corrupt record cannot be trusted for any key, so the
// whole file is deleted.
func (s *FileStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if errors.Is(err, errors.ErrCorruptRecord) {
		log.Warn().Err(err).Msg("removing corrupt credential record")
		return s.removeFile()
	}
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	if len(values) == 0 {
		return s.removeFile()
	}
	return s.save(values)
}

func (s *FileStore) removeFile() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) load() (map[string]string, error) {
	values := make(map[string]string)
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, errors.Wrapf(errors.ErrCorruptRecord, "decode %s: %v", s.path, err)
	}
	return values, nil
}

func (s *FileStore) save(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
