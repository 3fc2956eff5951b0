// Package storage keeps descriptive records in memory for the web API.
package storage

import (
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/lehigh-university-libraries/marc2iiif/internal/iiif"
)

// ErrNotFound is returned when no record is stored under an id
var ErrNotFound = errors.New("record not found")

type RecordStore struct {
	records map[string]*iiif.DescriptiveRecord
	mu      sync.RWMutex
}

func New() *RecordStore {
	return &RecordStore{
		records: make(map[string]*iiif.DescriptiveRecord),
	}
}

// Add stores record under its identifier, replacing any record already held
// there. Records without an identifier get a random key. The key is returned.
func (s *RecordStore) Add(record *iiif.DescriptiveRecord) string {
	id := record.Identifier()
	if id == "" {
		id = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = record
	return id
}

func (s *RecordStore) Get(id string) (*iiif.DescriptiveRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, exists := s.records[id]
	return record, exists
}

// Manifest renders the stored record while holding the read lock, so the
// snapshot never observes a half-applied update.
func (s *RecordStore) Manifest(id string) (iiif.Manifest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, exists := s.records[id]
	if !exists {
		return iiif.Manifest{}, false
	}
	return record.ToManifest(), true
}

// Entry is a listing row
type Entry struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// List returns every stored record, ordered by id
func (s *RecordStore) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Entry, 0, len(s.records))
	for id, record := range s.records {
		result = append(result, Entry{ID: id, Label: record.Label()})
	}
	slices.SortFunc(result, func(a, b Entry) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return result
}

// Update applies fn to the record stored under id. Updates are serialized
// with each other and with readers.
func (s *RecordStore) Update(id string, fn func(*iiif.DescriptiveRecord) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.records[id]
	if !exists {
		return ErrNotFound
	}
	return fn(record)
}

func (s *RecordStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.records[id]
	delete(s.records, id)
	return exists
}

func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
