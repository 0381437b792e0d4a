package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"trainbook/internal/models"

	"github.com/rs/zerolog"
)

// FileStore persists the booking sequence as a single JSON file — the durable
// key of the storage contract. Unparsable content is treated as an empty
// store rather than an error: the history is lost, which is a documented
// risk, not a crash.
type FileStore struct {
	path   string
	mu     sync.Mutex
	logger *zerolog.Logger
}

func NewFileStore(path string, logger *zerolog.Logger) (*FileStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{path: path, logger: logger}, nil
}

func (s *FileStore) Load(ctx context.Context) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) load() ([]models.Booking, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []models.Booking{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	var bookings []models.Booking
	if err := json.Unmarshal(data, &bookings); err != nil {
		if s.logger != nil {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("store file is corrupt, treating as empty")
		}
		return []models.Booking{}, nil
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}

// Append performs the read-modify-append cycle: the whole sequence is read,
// the record appended, and the full sequence written back atomically.
func (s *FileStore) Append(ctx context.Context, booking models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookings, err := s.load()
	if err != nil {
		return err
	}
	bookings = append(bookings, booking)

	data, err := json.Marshal(bookings)
	if err != nil {
		return fmt.Errorf("failed to marshal bookings: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}

// Path returns the location of the durable key, for backups.
func (s *FileStore) Path() string {
	return s.path
}
