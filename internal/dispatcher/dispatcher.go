// internal/dispatcher/dispatcher.go
// The dispatcher runs one model's send-and-receive cycle end to end:
// optimistic user append, thinking placeholder, bounded network call, then
// placeholder replacement with either the reply or a synthesized error row.
// Every path resets the loading flag; no conversation is ever left stuck.
package dispatcher

import (
	"context"
	"log/slog"
	"time"

	"kinschat/internal/chat"
	"kinschat/internal/config"
	"kinschat/internal/kinos"
	"kinschat/internal/models"
)

// Fixed request parameters matching the hosted blueprint.
const (
	sendMode = "creative"
	minFiles = 5
	maxFiles = 15
)

// contextDocs are server-side document references attached to single-model
// sends so the kin answers with the protocol spec in scope.
var contextDocs = []string{"docs/SPEC.md"}

// API is the slice of the kins client the dispatcher needs.
type API interface {
	FetchHistory(ctx context.Context, kinID string, limit int) ([]kinos.HistoryMessage, error)
	SendMessage(ctx context.Context, kinID string, req kinos.SendRequest) (kinos.SendResult, error)
}

type Dispatcher struct {
	store    *chat.Store
	registry *models.Registry
	api      API
	logger   *slog.Logger

	systemPrompt  string
	historyLimit  int
	historyLength int
	timeout       time.Duration
}

func New(store *chat.Store, registry *models.Registry, api API, cfg *config.Config, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store:         store,
		registry:      registry,
		api:           api,
		logger:        logger,
		systemPrompt:  cfg.API.SystemPrompt,
		historyLimit:  cfg.Defaults.HistoryLimit,
		historyLength: cfg.Defaults.HistoryLength,
		timeout:       time.Duration(cfg.Defaults.SendTimeout) * time.Second,
	}
}

// InitializeHistory populates modelID's conversation from the history
// endpoint. Any failure degrades to a single synthesized welcome message;
// the caller never sees an error.
func (d *Dispatcher) InitializeHistory(ctx context.Context, modelID string) {
	name := d.registry.Name(modelID)
	d.store.SetLoading(modelID, true)

	fetchCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	records, err := d.api.FetchHistory(fetchCtx, modelID, d.historyLimit)
	if err != nil {
		d.logger.Warn("history fetch failed, using welcome fallback", "model", modelID, "error", err)
		d.store.Update(modelID, func(c *chat.Conversation) {
			c.Messages = []chat.Message{{
				ID:        chat.WelcomeID(modelID),
				Content:   "Welcome to the Persistence Protocol interface. I'm " + name + ". How can I assist you today?",
				Role:      chat.RoleAssistant,
				Timestamp: time.Now(),
				Model:     modelID,
				ModelName: name,
			}}
			c.IsLoading = false
		})
		return
	}

	msgs := make([]chat.Message, 0, len(records))
	for _, r := range records {
		role := chat.Role(r.Role)
		if role != chat.RoleUser {
			role = chat.RoleAssistant
		}
		msgs = append(msgs, chat.Message{
			ID:        r.ID,
			Content:   r.Content,
			Role:      role,
			Timestamp: r.Timestamp,
			Model:     modelID,
			ModelName: name,
		})
	}
	d.store.Update(modelID, func(c *chat.Conversation) {
		c.Messages = msgs
		c.IsLoading = false
	})
}

// InitializeAll fetches history for every selected model concurrently and
// returns once all have settled.
func (d *Dispatcher) InitializeAll(ctx context.Context) {
	done := make(chan struct{})
	ids := d.registry.Selected()
	for _, id := range ids {
		go func(modelID string) {
			defer func() { done <- struct{}{} }()
			d.InitializeHistory(ctx, modelID)
		}(id)
	}
	for range ids {
		<-done
	}
}

// Send runs one user-initiated send for one model. Empty input (no content,
// no images) is a no-op: no network call, no state change. Returns when the
// conversation has reached its terminal state for this send.
func (d *Dispatcher) Send(ctx context.Context, modelID, content string, images []string) {
	if content == "" && len(images) == 0 {
		return
	}

	// Optimistic insert; draft and pending images are consumed by the send
	d.store.Update(modelID, func(c *chat.Conversation) {
		c.Messages = append(c.Messages, chat.Message{
			ID:        chat.NewUserID(),
			Content:   content,
			Role:      chat.RoleUser,
			Timestamp: time.Now(),
			Images:    images,
		})
		c.InputValue = ""
		c.ImageData = nil
		c.IsLoading = true
	})

	d.Deliver(ctx, modelID, Delivery{
		Content:            content,
		Images:             images,
		IncludeContextDocs: true,
	})
}

// Delivery describes one primary send about to be executed.
type Delivery struct {
	Content string
	Images  []string
	// IncludeContextDocs attaches the fixed document references; set on
	// single-model sends, not on broadcast fan-out.
	IncludeContextDocs bool
}

// Deliver executes the placeholder/network/terminal portion of a send. The
// user message must already be in the conversation and IsLoading set. On
// success the reply is returned so the caller can mirror it; on failure the
// error has already been rendered into the conversation.
func (d *Dispatcher) Deliver(ctx context.Context, modelID string, del Delivery) (kinos.SendResult, error) {
	name := d.registry.Name(modelID)

	thinkingID := chat.NewThinkingID(modelID)
	d.store.Append(modelID, chat.Message{
		ID:        thinkingID,
		Content:   name + " is thinking...",
		Role:      chat.RoleAssistant,
		Timestamp: time.Now(),
		Model:     modelID,
		ModelName: name,
	})

	req := kinos.SendRequest{
		Content:       del.Content,
		Model:         modelID,
		Mode:          sendMode,
		HistoryLength: d.historyLength,
		AddSystem:     d.systemPrompt,
		Images:        del.Images,
	}
	if del.IncludeContextDocs {
		req.AddContext = contextDocs
		req.MinFiles = minFiles
		req.MaxFiles = maxFiles
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	result, err := d.api.SendMessage(sendCtx, modelID, req)
	if err != nil {
		d.logger.Warn("send failed", "model", modelID, "error", err)
		d.store.Update(modelID, func(c *chat.Conversation) {
			kept := c.Messages[:0]
			for _, m := range c.Messages {
				if m.ID != thinkingID {
					kept = append(kept, m)
				}
			}
			c.Messages = append(kept, chat.Message{
				ID:        chat.NewErrorID(modelID),
				Content:   "Failed to get a response: " + err.Error(),
				Role:      chat.RoleAssistant,
				Timestamp: time.Now(),
				Model:     modelID,
				ModelName: name,
			})
			c.IsLoading = false
		})
		return kinos.SendResult{}, err
	}

	terminalID := result.ID
	if terminalID == "" {
		terminalID = chat.NewResponseID(modelID)
	}
	timestamp := result.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	d.store.Update(modelID, func(c *chat.Conversation) {
		for i, m := range c.Messages {
			if m.ID == thinkingID {
				c.Messages = append(c.Messages[:i], c.Messages[i+1:]...)
				c.Messages = append(c.Messages, chat.Message{
					ID:        terminalID,
					Content:   result.Content,
					Role:      chat.RoleAssistant,
					Timestamp: timestamp,
					Model:     modelID,
					ModelName: name,
				})
				break
			}
		}
		c.IsLoading = false
	})

	result.ID = terminalID
	return result, nil
}
