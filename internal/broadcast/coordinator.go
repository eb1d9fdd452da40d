// internal/broadcast/coordinator.go
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"kinschat/internal/chat"
	"kinschat/internal/dispatcher"
	"kinschat/internal/kinos"
	"kinschat/internal/models"
)

var ErrNoModelsSelected = errors.New("no models selected")

// Result is the settled outcome of one model's primary send.
type Result struct {
	ModelID string
	Reply   kinos.SendResult
	Err     error
}

// Deliverer executes the placeholder/network/terminal cycle for one model.
type Deliverer interface {
	Deliver(ctx context.Context, modelID string, del dispatcher.Delivery) (kinos.SendResult, error)
}

// Forwarder mirrors a reply to other kins, fire-and-forget.
type Forwarder interface {
	Forward(targets []string, label, originModel, originMessageID string)
}

// Coordinator fans one user message out to every selected model and
// cross-propagates each reply to the other selected conversations.
type Coordinator struct {
	store     *chat.Store
	registry  *models.Registry
	deliverer Deliverer
	forwarder Forwarder
}

func New(store *chat.Store, registry *models.Registry, deliverer Deliverer, forwarder Forwarder) *Coordinator {
	return &Coordinator{
		store:     store,
		registry:  registry,
		deliverer: deliverer,
		forwarder: forwarder,
	}
}

// Broadcast sends content to every selected model concurrently. It returns
// once every primary send has settled; context mirroring continues in the
// background and is never awaited. One model's failure does not cancel or
// block any other model's call.
func (b *Coordinator) Broadcast(ctx context.Context, content string, images []string) ([]Result, error) {
	if content == "" && len(images) == 0 {
		return nil, nil
	}

	selected := b.registry.Selected()
	if len(selected) == 0 {
		return nil, ErrNoModelsSelected
	}

	// One user message, duplicated into every selected conversation with a
	// shared id and timestamp. Copies, not a shared reference.
	userID := chat.NewUserID()
	now := time.Now()
	for _, modelID := range selected {
		imgs := make([]string, len(images))
		copy(imgs, images)
		if len(imgs) == 0 {
			imgs = nil
		}
		b.store.Update(modelID, func(c *chat.Conversation) {
			c.Messages = append(c.Messages, chat.Message{
				ID:        userID,
				Content:   content,
				Role:      chat.RoleUser,
				Timestamp: now,
				Images:    imgs,
			})
			c.IsLoading = true
			c.ShowInput = false
		})
	}

	results := make([]Result, len(selected))

	var wg sync.WaitGroup
	for i, modelID := range selected {
		wg.Add(1)
		go func(idx int, id string) {
			defer wg.Done()

			reply, err := b.deliverer.Deliver(ctx, id, dispatcher.Delivery{
				Content: content,
				Images:  images,
			})
			results[idx] = Result{ModelID: id, Reply: reply, Err: err}
			if err != nil {
				return
			}

			b.propagate(id, reply, selected)
		}(i, modelID)
	}
	wg.Wait()

	return results, nil
}

// propagate cross-posts one model's reply to every other selected
// conversation: a best-effort add-message mirror on the API side, and an
// unconditional local forwarded row so the UI shows the exchange even when
// the mirror call silently fails.
func (b *Coordinator) propagate(originID string, reply kinos.SendResult, selected []string) {
	others := make([]string, 0, len(selected)-1)
	for _, id := range selected {
		if id != originID {
			others = append(others, id)
		}
	}
	if len(others) == 0 {
		return
	}

	label := ForwardLabel(b.registry.Name(originID), time.Now(), reply.Content)

	b.forwarder.Forward(others, label, originID, reply.ID)

	originName := b.registry.Name(originID)
	for _, other := range others {
		b.store.Append(other, chat.Message{
			ID:        chat.NewForwardedID(originID, other),
			Content:   label,
			Role:      chat.RoleAssistant,
			Timestamp: time.Now(),
			Model:     originID,
			ModelName: originName,
			Forwarded: true,
		})
	}
}

// ForwardLabel formats the cross-model attribution line.
func ForwardLabel(modelName string, at time.Time, content string) string {
	return fmt.Sprintf("[Message sent by %s in the conversation at %s]: %s",
		modelName, at.Format("1/2/2006, 3:04:05 PM"), content)
}
