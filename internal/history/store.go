// Package history is the local record of past generations, newest first.
// It is a convenience cache: loading tolerates missing or corrupt data, and
// the full list is rewritten after every mutation.
package history

import (
	"encoding/json"
	"fmt"

	"github.com/manash/lumina/pkg/models"
)

type Store struct {
	storage Storage
	entries []models.GeneratedImage
}

func NewStore(storage Storage) *Store {
	return &Store{storage: storage}
}

// Load reads the persisted history. Missing or unparseable data yields an
// empty store; entries without an id or image payload are dropped.
func (s *Store) Load() {
	s.entries = nil

	data, err := s.storage.Load()
	if err != nil || len(data) == 0 {
		return
	}

	var entries []models.GeneratedImage
	if err := json.Unmarshal(data, &entries); err != nil {
		return
	}

	for _, e := range entries {
		if e.ID == "" || !models.IsDataURI(e.URL) {
			continue
		}
		s.entries = append(s.entries, e)
	}
}

// Persist serializes the whole list and writes it back under the fixed key.
func (s *Store) Persist() error {
	entries := s.entries
	if entries == nil {
		entries = []models.GeneratedImage{}
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to serialize history: %w", err)
	}

	if err := s.storage.Save(data); err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}
	return nil
}

// InsertFront prepends a new entry and re-persists.
func (s *Store) InsertFront(entry models.GeneratedImage) error {
	s.entries = append([]models.GeneratedImage{entry}, s.entries...)
	return s.Persist()
}

// Remove deletes the entry with the given id and re-persists. A missing id
// is a no-op.
func (s *Store) Remove(id string) error {
	kept := s.entries[:0:0]
	for _, e := range s.entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(s.entries) {
		return nil
	}
	s.entries = kept
	return s.Persist()
}

// Clear drops every entry and re-persists.
func (s *Store) Clear() error {
	s.entries = nil
	return s.Persist()
}

// Entries returns the history newest first.
func (s *Store) Entries() []models.GeneratedImage {
	out := make([]models.GeneratedImage, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Store) Len() int {
	return len(s.entries)
}

// Get looks up an entry by id.
func (s *Store) Get(id string) (models.GeneratedImage, bool) {
	for _, e := range s.entries {
		if e.ID == id {
			return e, true
		}
	}
	return models.GeneratedImage{}, false
}
