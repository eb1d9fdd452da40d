// internal/kinos/client.go
// HTTP client for the hosted kins API. One blueprint, one kin per model id,
// one channel per kin. All calls are single-shot: primary sends are never
// retried, and every request is bounded by the caller's context.
package kinos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"kinschat/internal/config"
)

// Client talks to one blueprint on the kins API.
type Client struct {
	baseURL   string
	blueprint string
	channel   string
	client    *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:   cfg.API.BaseURL,
		blueprint: cfg.API.Blueprint,
		channel:   cfg.API.Channel,
		client: &http.Client{
			// No client-level timeout: every call carries a context deadline
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
				IdleConnTimeout:       90 * time.Second,
				MaxIdleConns:          10,
				MaxIdleConnsPerHost:   5,
			},
		},
	}
}

// SendRequest is the body of a primary message send.
type SendRequest struct {
	Content       string   `json:"content"`
	Model         string   `json:"model"`
	Mode          string   `json:"mode"`
	HistoryLength int      `json:"history_length"`
	AddSystem     string   `json:"addSystem"`
	Images        []string `json:"images,omitempty"`
	AddContext    []string `json:"addContext,omitempty"`
	MinFiles      int      `json:"min_files,omitempty"`
	MaxFiles      int      `json:"max_files,omitempty"`
}

// SendResult is the decoded outcome of a successful send.
type SendResult struct {
	ID        string // server-assigned id, may be empty
	Content   string // extracted via the ordered fallback search
	Timestamp time.Time
}

// HistoryMessage is one record from the conversation-history endpoint.
type HistoryMessage struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Role      string    `json:"role"`
	Timestamp time.Time `json:"timestamp"`
	ChannelID string    `json:"channel_id,omitempty"`
}

func (c *Client) channelMessagesURL(kinID string) string {
	return fmt.Sprintf("%s/blueprints/%s/kins/%s/channels/%s/messages", c.baseURL, c.blueprint, kinID, c.channel)
}

// FetchHistory retrieves up to limit prior messages for a kin.
func (c *Client) FetchHistory(ctx context.Context, kinID string, limit int) ([]HistoryMessage, error) {
	url := fmt.Sprintf("%s?limit=%d", c.channelMessagesURL(kinID), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history request failed with status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var payload struct {
		Messages []HistoryMessage `json:"messages"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return payload.Messages, nil
}

// SendMessage posts one user turn to a kin's channel and returns the
// extracted reply. Non-2xx responses and transport failures are errors; the
// caller turns them into visible error messages, never retries.
func (c *Client) SendMessage(ctx context.Context, kinID string, reqBody SendRequest) (SendResult, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return SendResult{}, fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.channelMessagesURL(kinID), bytes.NewReader(payload))
	if err != nil {
		return SendResult{}, fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return SendResult{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return SendResult{}, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return SendResult{}, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	return decodeSendResponse(body), nil
}

// AddMessageRequest is the body of a cross-model context append.
type AddMessageRequest struct {
	Message  string             `json:"message"`
	Role     string             `json:"role"`
	Metadata AddMessageMetadata `json:"metadata"`
}

type AddMessageMetadata struct {
	Source            string `json:"source"`
	OriginalModel     string `json:"original_model"`
	OriginalMessageID string `json:"original_message_id"`
}

// AddMessage appends prior context to a kin without soliciting a reply.
// The response body is not used for any state; callers only log failures.
func (c *Client) AddMessage(ctx context.Context, kinID string, reqBody AddMessageRequest) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	url := fmt.Sprintf("%s/blueprints/%s/kins/%s/add-message", c.baseURL, c.blueprint, kinID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("add-message failed with status %d", resp.StatusCode)
	}
	return nil
}

// truncate limits a string to maxLen characters.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
