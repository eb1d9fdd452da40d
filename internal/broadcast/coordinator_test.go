// internal/broadcast/coordinator_test.go
package broadcast

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"kinschat/internal/chat"
	"kinschat/internal/config"
	"kinschat/internal/dispatcher"
	"kinschat/internal/kinos"
	"kinschat/internal/models"
)

// mockDeliverer simulates the dispatcher's deliver cycle: placeholder-free,
// it just applies the terminal state the real one would.
type mockDeliverer struct {
	store      *chat.Store
	mu         sync.Mutex
	delivered  []string
	deliverFns map[string]func() (kinos.SendResult, error)
}

func (m *mockDeliverer) Deliver(ctx context.Context, modelID string, del dispatcher.Delivery) (kinos.SendResult, error) {
	m.mu.Lock()
	m.delivered = append(m.delivered, modelID)
	fn := m.deliverFns[modelID]
	m.mu.Unlock()

	var result kinos.SendResult
	var err error
	if fn != nil {
		result, err = fn()
	} else {
		result = kinos.SendResult{ID: "srv_" + modelID, Content: "reply from " + modelID}
	}

	if err != nil {
		m.store.Append(modelID, chat.Message{
			ID:      chat.NewErrorID(modelID),
			Content: "Failed to get a response: " + err.Error(),
			Role:    chat.RoleAssistant,
		})
	} else {
		m.store.Append(modelID, chat.Message{
			ID:      result.ID,
			Content: result.Content,
			Role:    chat.RoleAssistant,
			Model:   modelID,
		})
	}
	m.store.SetLoading(modelID, false)
	return result, err
}

func (m *mockDeliverer) deliveredTo() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.delivered))
	copy(out, m.delivered)
	return out
}

// mockForwarder records Forward calls.
type mockForwarder struct {
	mu    sync.Mutex
	calls []struct {
		targets []string
		label   string
		origin  string
		msgID   string
	}
}

func (f *mockForwarder) Forward(targets []string, label, originModel, originMessageID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, struct {
		targets []string
		label   string
		origin  string
		msgID   string
	}{targets, label, originModel, originMessageID})
}

func (f *mockForwarder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func setup(selected map[string]bool) (*Coordinator, *chat.Store, *mockDeliverer, *mockForwarder) {
	cfg := &config.Config{}
	cfg.Models = []config.ModelConfig{
		{ID: "alpha", Name: "Alpha", Selected: selected["alpha"]},
		{ID: "beta", Name: "Beta", Selected: selected["beta"]},
		{ID: "gamma", Name: "Gamma", Selected: selected["gamma"]},
	}
	registry := models.NewRegistry(cfg)
	store := chat.NewStore()
	store.Initialize(registry.All())

	deliverer := &mockDeliverer{store: store, deliverFns: map[string]func() (kinos.SendResult, error){}}
	forwarder := &mockForwarder{}
	return New(store, registry, deliverer, forwarder), store, deliverer, forwarder
}

func TestBroadcastEmptyInputIsNoOp(t *testing.T) {
	c, store, deliverer, _ := setup(map[string]bool{"alpha": true, "beta": true})

	results, err := c.Broadcast(context.Background(), "", nil)
	if err != nil || results != nil {
		t.Fatalf("empty broadcast should be a silent no-op, got %v %v", results, err)
	}
	if len(deliverer.deliveredTo()) != 0 {
		t.Error("empty broadcast must not deliver")
	}
	conv, _ := store.Snapshot("alpha")
	if len(conv.Messages) != 0 {
		t.Error("empty broadcast must not mutate state")
	}
}

func TestBroadcastNoSelectionFails(t *testing.T) {
	c, _, deliverer, _ := setup(map[string]bool{})

	_, err := c.Broadcast(context.Background(), "hello", nil)
	if !errors.Is(err, ErrNoModelsSelected) {
		t.Fatalf("expected ErrNoModelsSelected, got %v", err)
	}
	if len(deliverer.deliveredTo()) != 0 {
		t.Error("validation failure must not trigger network activity")
	}
}

func TestBroadcastFanOut(t *testing.T) {
	c, store, _, _ := setup(map[string]bool{"alpha": true, "beta": true})

	results, err := c.Broadcast(context.Background(), "hello", nil)
	if err != nil {
		t.Fatalf("Broadcast failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	// Each selected conversation gets exactly one user copy with shared id
	// and timestamp, then its own reply, then N-1 forwarded rows.
	alpha, _ := store.Snapshot("alpha")
	beta, _ := store.Snapshot("beta")

	var userIDs []string
	var userTimes []time.Time
	for _, conv := range []chat.Conversation{alpha, beta} {
		users := 0
		for _, m := range conv.Messages {
			if m.Role == chat.RoleUser {
				users++
				userIDs = append(userIDs, m.ID)
				userTimes = append(userTimes, m.Timestamp)
				if m.Content != "hello" {
					t.Errorf("wrong user content: %q", m.Content)
				}
			}
		}
		if users != 1 {
			t.Errorf("expected exactly 1 user message, got %d", users)
		}
	}
	if userIDs[0] != userIDs[1] {
		t.Error("user copies must share one id")
	}
	if !userTimes[0].Equal(userTimes[1]) {
		t.Error("user copies must share one timestamp")
	}

	countForwarded := func(conv chat.Conversation) int {
		n := 0
		for _, m := range conv.Messages {
			if m.Forwarded {
				n++
			}
		}
		return n
	}
	if countForwarded(alpha) != 1 || countForwarded(beta) != 1 {
		t.Errorf("each conversation should get N-1 forwarded rows, got alpha=%d beta=%d",
			countForwarded(alpha), countForwarded(beta))
	}

	// Unselected model untouched
	gamma, _ := store.Snapshot("gamma")
	if len(gamma.Messages) != 0 {
		t.Errorf("unselected conversation mutated: %d messages", len(gamma.Messages))
	}
}

func TestBroadcastForwardLabelsAttribution(t *testing.T) {
	c, store, deliverer, forwarder := setup(map[string]bool{"alpha": true, "beta": true})
	deliverer.deliverFns["alpha"] = func() (kinos.SendResult, error) {
		return kinos.SendResult{ID: "srv_alpha", Content: "hi"}, nil
	}

	if _, err := c.Broadcast(context.Background(), "hello", nil); err != nil {
		t.Fatal(err)
	}

	beta, _ := store.Snapshot("beta")
	var forwarded *chat.Message
	for i, m := range beta.Messages {
		if m.Forwarded && m.Model == "alpha" {
			forwarded = &beta.Messages[i]
		}
	}
	if forwarded == nil {
		t.Fatal("beta should have a forwarded row from alpha")
	}
	if !strings.Contains(forwarded.Content, "Message sent by Alpha") || !strings.Contains(forwarded.Content, "hi") {
		t.Errorf("forwarded label wrong: %q", forwarded.Content)
	}
	if forwarded.Role != chat.RoleAssistant {
		t.Errorf("forwarded row should be assistant role, got %s", forwarded.Role)
	}

	if forwarder.callCount() != 2 {
		t.Fatalf("expected one mirror call per reply, got %d", forwarder.callCount())
	}
	for _, call := range forwarder.calls {
		if len(call.targets) != 1 {
			t.Errorf("mirror targets should exclude the origin: %v", call.targets)
		}
		if call.targets[0] == call.origin {
			t.Error("origin mirrored to itself")
		}
	}
}

func TestBroadcastOneModelFails(t *testing.T) {
	c, store, deliverer, forwarder := setup(map[string]bool{"alpha": true, "beta": true, "gamma": true})
	deliverer.deliverFns["beta"] = func() (kinos.SendResult, error) {
		return kinos.SendResult{}, errors.New("timeout")
	}

	results, err := c.Broadcast(context.Background(), "hello", nil)
	if err != nil {
		t.Fatalf("one model's failure must not fail the broadcast: %v", err)
	}

	var failed, succeeded int
	for _, r := range results {
		if r.Err != nil {
			failed++
			if r.ModelID != "beta" {
				t.Errorf("wrong model failed: %s", r.ModelID)
			}
		} else {
			succeeded++
		}
	}
	if failed != 1 || succeeded != 2 {
		t.Errorf("expected 1 failure and 2 successes, got %d/%d", failed, succeeded)
	}

	// Failed model propagates nothing; the two successes each mirror to the
	// other two selected models.
	if forwarder.callCount() != 2 {
		t.Errorf("expected 2 mirror calls, got %d", forwarder.callCount())
	}

	// beta still shows the user message and an error row
	beta, _ := store.Snapshot("beta")
	hasError := false
	for _, m := range beta.Messages {
		if strings.Contains(m.Content, "Failed to get a response") {
			hasError = true
		}
	}
	if !hasError {
		t.Error("failed model should show an error row")
	}
	if beta.IsLoading {
		t.Error("failed model left loading")
	}
}

func TestForwardLabelFormat(t *testing.T) {
	at := time.Date(2025, 4, 1, 15, 4, 5, 0, time.UTC)
	label := ForwardLabel("Claude 3.7 Sonnet", at, "the reply")
	if !strings.HasPrefix(label, "[Message sent by Claude 3.7 Sonnet in the conversation at ") {
		t.Errorf("bad label prefix: %q", label)
	}
	if !strings.HasSuffix(label, "]: the reply") {
		t.Errorf("bad label suffix: %q", label)
	}
	if !strings.Contains(label, "4/1/2025") {
		t.Errorf("label should contain the date: %q", label)
	}
}
