// internal/chat/store.go
// The chat store holds one conversation per registered model and exposes
// atomic, id-keyed update operations. The original interface ran on a
// single-threaded event loop; here a store-level mutex gives the same
// guarantee that no two updates ever overlap.
package chat

import (
	"sync"

	"kinschat/internal/models"
)

// Conversation is the per-model chat state for the current session.
type Conversation struct {
	Messages   []Message
	InputValue string   // current draft text
	ImageData  []string // pending-upload image payloads, cleared on send
	IsLoading  bool     // true from send start until terminal response/error

	// UI-only flags, irrelevant to correctness
	ShowInput bool
	MenuOpen  bool
}

// Store maps model id -> Conversation. Every registered model has exactly one
// conversation entry; entries for deselected models are retained so
// re-selection resumes prior history.
type Store struct {
	mu    sync.Mutex
	convs map[string]*Conversation
	order []string
}

func NewStore() *Store {
	return &Store{
		convs: make(map[string]*Conversation),
	}
}

// Initialize creates an empty conversation for each model not already
// present. Existing conversations are never reset.
func (s *Store) Initialize(descriptors []models.Descriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range descriptors {
		if _, exists := s.convs[d.ID]; exists {
			continue
		}
		s.convs[d.ID] = &Conversation{}
		s.order = append(s.order, d.ID)
	}
}

// Update applies mutator to the conversation at modelID under the store
// lock. Unknown ids are a silent no-op: an in-flight response may target a
// model deselected meanwhile, and late writes must die harmlessly.
func (s *Store) Update(modelID string, mutator func(*Conversation)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[modelID]
	if !ok {
		return
	}
	mutator(conv)
}

// Append adds msg to the end of modelID's message log.
func (s *Store) Append(modelID string, msg Message) {
	s.Update(modelID, func(c *Conversation) {
		c.Messages = append(c.Messages, msg)
	})
}

// Replace removes the message with oldID and appends msg in its stead.
// Calling it twice with the same oldID is a no-op the second time, since
// oldID no longer exists.
func (s *Store) Replace(modelID, oldID string, msg Message) {
	s.Update(modelID, func(c *Conversation) {
		for i, m := range c.Messages {
			if m.ID == oldID {
				c.Messages = append(c.Messages[:i], c.Messages[i+1:]...)
				c.Messages = append(c.Messages, msg)
				return
			}
		}
	})
}

// RemoveMatching deletes every message for which pred returns true.
func (s *Store) RemoveMatching(modelID string, pred func(Message) bool) {
	s.Update(modelID, func(c *Conversation) {
		kept := c.Messages[:0]
		for _, m := range c.Messages {
			if !pred(m) {
				kept = append(kept, m)
			}
		}
		c.Messages = kept
	})
}

// AttachImageURL sets the generated illustration URL on an existing message.
func (s *Store) AttachImageURL(modelID, msgID, url string) {
	s.Update(modelID, func(c *Conversation) {
		for i := range c.Messages {
			if c.Messages[i].ID == msgID {
				c.Messages[i].ImageURL = url
				return
			}
		}
	})
}

// SetLoading sets the loading flag for modelID.
func (s *Store) SetLoading(modelID string, loading bool) {
	s.Update(modelID, func(c *Conversation) {
		c.IsLoading = loading
	})
}

// SetInput replaces the draft input for modelID.
func (s *Store) SetInput(modelID, value string) {
	s.Update(modelID, func(c *Conversation) {
		c.InputValue = value
	})
}

// AddImage buffers a pending image payload for modelID.
func (s *Store) AddImage(modelID, data string) {
	s.Update(modelID, func(c *Conversation) {
		c.ImageData = append(c.ImageData, data)
	})
}

// RemoveImage drops the pending image at index, ignoring out-of-range indexes.
func (s *Store) RemoveImage(modelID string, index int) {
	s.Update(modelID, func(c *Conversation) {
		if index < 0 || index >= len(c.ImageData) {
			return
		}
		c.ImageData = append(c.ImageData[:index], c.ImageData[index+1:]...)
	})
}

// Snapshot returns a deep copy of modelID's conversation, or false if the
// model is unknown. Callers may read the copy without holding the lock.
func (s *Store) Snapshot(modelID string) (Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[modelID]
	if !ok {
		return Conversation{}, false
	}
	return copyConversation(conv), true
}

// IDs returns the conversation keys in insertion order.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids
}

// Len returns the number of conversations.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.convs)
}

func copyConversation(c *Conversation) Conversation {
	out := *c
	out.Messages = make([]Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	out.ImageData = make([]string, len(c.ImageData))
	copy(out.ImageData, c.ImageData)
	return out
}
