// internal/models/registry.go
package models

import (
	"sync"

	"kinschat/internal/config"
)

// Registry holds all available models. Models are registered once at startup
// and never removed during a session; only their Selected flag changes.
type Registry struct {
	mu     sync.RWMutex
	models map[string]*Descriptor
	order  []string // Preserve order for consistent display
}

// NewRegistry creates a registry from config.
func NewRegistry(cfg *config.Config) *Registry {
	r := &Registry{
		models: make(map[string]*Descriptor),
		order:  []string{},
	}

	for _, mc := range cfg.Models {
		if mc.ID == "" {
			continue
		}
		if _, exists := r.models[mc.ID]; exists {
			continue
		}
		r.models[mc.ID] = &Descriptor{
			ID:          mc.ID,
			Name:        mc.Name,
			Description: mc.Description,
			Selected:    mc.Selected,
		}
		r.order = append(r.order, mc.ID)
	}

	return r
}

// Get returns a copy of the descriptor for id, or false if unknown.
func (r *Registry) Get(id string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.models[id]
	if !ok {
		return Descriptor{}, false
	}
	return *d, true
}

// Name returns the display name for id, falling back to the id itself.
func (r *Registry) Name(id string) string {
	if d, ok := r.Get(id); ok && d.Name != "" {
		return d.Name
	}
	return id
}

// All returns all descriptors in registration order.
func (r *Registry) All() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		if d, ok := r.models[id]; ok {
			result = append(result, *d)
		}
	}
	return result
}

// Selected returns ids of all currently selected models, in order.
func (r *Registry) Selected() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for _, id := range r.order {
		if d, ok := r.models[id]; ok && d.Selected {
			ids = append(ids, id)
		}
	}
	return ids
}

// Toggle flips the selection state of id. Unknown ids are ignored.
func (r *Registry) Toggle(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.models[id]; ok {
		d.Selected = !d.Selected
	}
}

// Count returns the number of registered models.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// SelectedCount returns the number of currently selected models.
func (r *Registry) SelectedCount() int {
	return len(r.Selected())
}
