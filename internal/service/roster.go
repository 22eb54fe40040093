package service

import (
	"slices"
	"sync"
)

// Roster is the ordered list of camera IDs shown on the grid. Safe for
// concurrent use; readers always get a copy.
type Roster struct {
	mu  sync.RWMutex
	ids []string
	gen uint64
}

func NewRoster(ids []string) *Roster {
	return &Roster{ids: slices.Clone(ids), gen: 1}
}

func (r *Roster) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.ids)
}

// Gen increments on every effective Set.
func (r *Roster) Gen() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gen
}

// Load returns the IDs together with the generation they belong to.
func (r *Roster) Load() ([]string, uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.ids), r.gen
}

// Contains reports whether id is on the roster.
func (r *Roster) Contains(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Contains(r.ids, id)
}

// Set replaces the roster; it reports false when ids equal the current list.
func (r *Roster) Set(ids []string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slices.Equal(r.ids, ids) {
		return false
	}
	r.ids = slices.Clone(ids)
	r.gen++
	return true
}
