package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

var ErrInvalidUserID = errors.New("user id is empty")

// Store is the persistence contract for conversation records.
//
// Get is lookup-or-default: a missing key yields a fresh default record and
// no error. Upsert replaces any record with the same id and is idempotent.
//
// The Get/mutate/Upsert sequence around one turn is not atomic: two
// concurrent turns for the same user can race and the last Upsert wins. Turn
// delivery is human-paced one-at-a-time per user, so this is an accepted
// limitation rather than something a store implementation papers over.
type Store interface {
	Get(ctx context.Context, userID string) (ConversationRecord, error)
	Upsert(ctx context.Context, rec ConversationRecord) error
}

// FileStore keeps the whole record collection in a single JSON file. Every
// operation reads the full file; every Upsert rewrites it via a temp file
// and rename. A missing, empty, or unparseable file degrades to the empty
// collection instead of surfacing corruption.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) (*FileStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("file store path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Get(ctx context.Context, userID string) (ConversationRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ConversationRecord{}, ErrInvalidUserID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.readAll() {
		if rec.ID == userID {
			return rec, nil
		}
	}
	return NewConversationRecord(userID), nil
}

func (s *FileStore) Upsert(ctx context.Context, rec ConversationRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.readAll()
	replaced := false
	for i := range records {
		if records[i].ID == rec.ID {
			records[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, rec)
	}

	return s.writeAll(records)
}

// readAll loads the entire collection. Any unreadable or malformed content
// is treated as zero records so a corrupt file never blocks the dialogue.
func (s *FileStore) readAll() []ConversationRecord {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("path", s.path).Msg("record file unreadable, treating as empty")
		}
		return nil
	}

	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil
	}

	var records []ConversationRecord
	if err := json.Unmarshal([]byte(trimmed), &records); err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("record file corrupt, treating as empty")
		return nil
	}
	return records
}

func (s *FileStore) writeAll(records []ConversationRecord) error {
	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".records-*.json")
	if err != nil {
		return fmt.Errorf("create temp record file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write records: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp record file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace record file: %w", err)
	}
	return nil
}
