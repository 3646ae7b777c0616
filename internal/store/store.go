// Package store persists the event list as a single JSON document on disk.
// All reads are served from memory; every mutation rewrites the file
// atomically (temp file + rename, 0600 perms).
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"agendapro/internal/model"
)

// ErrNotFound is returned when the requested event does not exist.
var ErrNotFound = errors.New("event not found")

// document is the on-disk file shape.
type document struct {
	Events []model.Event `json:"events"`
}

// Store is a file-backed event collection, safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	path   string
	events map[string]model.Event
}

// Open loads the event document at path, creating an empty store (and the
// parent directory) on first run.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("store path is empty")
	}

	s := &Store{
		path:   path,
		events: make(map[string]model.Event),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
				return nil, err
			}
			return s, nil
		}
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("store: corrupt event document %s: %w", path, err)
	}
	for _, evt := range doc.Events {
		s.events[evt.ID] = evt
	}
	return s, nil
}

// List returns all events sorted by date, time, then ID.
func (s *Store) List() ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Event, 0, len(s.events))
	for _, evt := range s.events {
		out = append(out, evt)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Get looks up one event by ID.
func (s *Store) Get(id string) (model.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	evt, ok := s.events[id]
	return evt, ok
}

// Create validates and persists a new event, assigning an ID and creation
// timestamp when absent.
func (s *Store) Create(evt model.Event) (model.Event, error) {
	if _, _, err := model.ParseClock(evt.Time); err != nil {
		return model.Event{}, err
	}
	if !evt.Status.Valid() {
		return model.Event{}, fmt.Errorf("invalid status %q", evt.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if evt.ID == "" {
		evt.ID = uuid.New().String()
	}
	if _, exists := s.events[evt.ID]; exists {
		return model.Event{}, fmt.Errorf("event %s already exists", evt.ID)
	}
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = time.Now().UTC()
	}

	s.events[evt.ID] = evt
	if err := s.save(); err != nil {
		delete(s.events, evt.ID)
		return model.Event{}, err
	}
	return evt, nil
}

// Update replaces an existing event wholesale.
func (s *Store) Update(evt model.Event) error {
	if _, _, err := model.ParseClock(evt.Time); err != nil {
		return err
	}
	if !evt.Status.Valid() {
		return fmt.Errorf("invalid status %q", evt.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.events[evt.ID]
	if !ok {
		return ErrNotFound
	}
	s.events[evt.ID] = evt
	if err := s.save(); err != nil {
		s.events[evt.ID] = prev
		return err
	}
	return nil
}

// SetStatus changes one event's scheduling status.
func (s *Store) SetStatus(id string, status model.Status) (model.Event, error) {
	if !status.Valid() {
		return model.Event{}, fmt.Errorf("invalid status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	evt, ok := s.events[id]
	if !ok {
		return model.Event{}, ErrNotFound
	}
	prev := evt
	evt.Status = status
	s.events[id] = evt
	if err := s.save(); err != nil {
		s.events[id] = prev
		return model.Event{}, err
	}
	return evt, nil
}

// Delete removes one event by ID.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	evt, ok := s.events[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.events, id)
	if err := s.save(); err != nil {
		s.events[id] = evt
		return err
	}
	return nil
}

// save writes the document atomically. Caller must hold the write lock.
func (s *Store) save() error {
	doc := document{Events: make([]model.Event, 0, len(s.events))}
	for _, evt := range s.events {
		doc.Events = append(doc.Events, evt)
	}
	sort.Slice(doc.Events, func(i, j int) bool {
		return doc.Events[i].ID < doc.Events[j].ID
	})

	data, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".agendapro-events-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}
