// internal/kinos/extract.go
package kinos

import (
	"encoding/json"
	"time"
)

// Placeholder contents for the two degraded-but-successful outcomes.
const (
	contentEmptySuccess = "Request processed successfully, but no content was returned."
	contentNone         = "No response content received"
)

// sendEnvelope covers every response shape the API has been observed to
// return. Which field actually carries the reply varies by backend.
type sendEnvelope struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Message *struct {
		Content string `json:"content"`
	} `json:"message"`
	Response *struct {
		Content string `json:"content"`
	} `json:"response"`
	Text      string `json:"text"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// decodeSendResponse extracts reply content from a 2xx response body using
// an ordered fallback search: direct content field, nested message field,
// nested response field, raw string body, text field, then a generic
// placeholder keyed on the reported status. It never fails; a shape we have
// never seen degrades to a "no content" message.
func decodeSendResponse(body []byte) SendResult {
	// A bare JSON string body is a valid reply on its own
	var raw string
	if err := json.Unmarshal(body, &raw); err == nil {
		return SendResult{Content: raw}
	}

	var env sendEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return SendResult{Content: contentNone}
	}

	result := SendResult{ID: env.ID}
	if ts, err := time.Parse(time.RFC3339, env.Timestamp); err == nil {
		result.Timestamp = ts
	}

	switch {
	case env.Content != "":
		result.Content = env.Content
	case env.Message != nil && env.Message.Content != "":
		result.Content = env.Message.Content
	case env.Response != nil && env.Response.Content != "":
		result.Content = env.Response.Content
	case env.Text != "":
		result.Content = env.Text
	case env.Status == "completed" || env.Status == "success":
		result.Content = contentEmptySuccess
	default:
		result.Content = contentNone
	}

	return result
}
