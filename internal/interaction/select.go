// Package interaction implements the selection and drag collaborators that
// move overlay features and ask the overlay to resync.
package interaction

import (
	"sync"

	"github.com/kiesman99/mapimage/internal/overlay"
)

// Select tracks the selected features
type Select struct {
	mu       sync.RWMutex
	features []*overlay.Feature
}

func NewSelect() *Select {
	return &Select{}
}

// Add selects f unless it already is
func (s *Select) Add(f *overlay.Feature) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.features {
		if existing == f {
			return
		}
	}
	s.features = append(s.features, f)
}

func (s *Select) Clear() {
	s.mu.Lock()
	s.features = nil
	s.mu.Unlock()
}

// Features returns a snapshot of the selection
func (s *Select) Features() []*overlay.Feature {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*overlay.Feature(nil), s.features...)
}
