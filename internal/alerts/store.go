package alerts

import (
	"sort"
	"sync"
)

// Store holds the currently visible alerts, de-duplicated by ID.
//
// Dismissal is sticky for as long as the alert's rule keeps matching: a
// dismissed ID is suppressed on subsequent merges until a scan pass no
// longer produces it, after which a genuinely new match may fire it again.
type Store struct {
	mu        sync.RWMutex
	byID      map[string]Alert
	dismissed map[string]bool
}

func NewStore() *Store {
	return &Store{
		byID:      make(map[string]Alert),
		dismissed: make(map[string]bool),
	}
}

// Merge folds one scan pass into the held set and returns the number of
// alerts added. Alerts already held are left untouched; dismissed IDs are
// skipped. Held alerts absent from the pass are kept: only dismissal
// removes them.
func (s *Store) Merge(scanned []Alert) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(scanned))
	added := 0

	for _, a := range scanned {
		seen[a.ID] = true
		if s.dismissed[a.ID] {
			continue
		}
		if _, ok := s.byID[a.ID]; ok {
			continue
		}
		s.byID[a.ID] = a
		added++
	}

	// An ID no longer produced by the scan has left its time window; its
	// dismissal no longer applies.
	for id := range s.dismissed {
		if !seen[id] {
			delete(s.dismissed, id)
		}
	}

	return added
}

// Dismiss removes exactly one alert by ID, reporting whether it was held.
func (s *Store) Dismiss(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	s.dismissed[id] = true
	return true
}

// List returns the held alerts sorted by ID for stable output.
func (s *Store) List() []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Alert, 0, len(s.byID))
	for _, a := range s.byID {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}
