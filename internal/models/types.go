// internal/models/types.go
package models

// Descriptor is the immutable identity of one conversational backend.
// Only Selected changes after startup, and only through Registry.Toggle.
type Descriptor struct {
	ID          string // stable kin id, e.g. "claude-3-7-sonnet-latest"
	Name        string // display name
	Description string
	Selected    bool
}
