// internal/chat/message.go
package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversational turn in a single model's conversation.
// Messages are append-only: once in the log a message is never mutated,
// with two sanctioned exceptions. A thinking placeholder is replaced by a
// terminal row with a different id, and a generated illustration URL may be
// attached after the fact.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`
	Model     string    `json:"model,omitempty"`     // originating backend id
	ModelName string    `json:"modelName,omitempty"` // display name at creation time
	Images    []string  `json:"images,omitempty"`    // user-attached image payloads (data URIs)
	ImageURL  string    `json:"imageUrl,omitempty"`  // generated illustration
	Forwarded bool      `json:"forwarded,omitempty"` // copy relayed from another model's conversation
}

// Id prefixes. The thinking prefix marks a transient row that must never
// survive to a terminal state; everything else is permanent.
const (
	userIDPrefix      = "user_"
	thinkingIDPrefix  = "thinking_"
	responseIDPrefix  = "response_"
	errorIDPrefix     = "error_"
	forwardedIDPrefix = "forwarded_"
	welcomeIDPrefix   = "default_msg_"
)

func NewUserID() string                 { return userIDPrefix + uuid.NewString() }
func NewThinkingID(model string) string { return thinkingIDPrefix + model + "_" + uuid.NewString() }
func NewResponseID(model string) string { return responseIDPrefix + model + "_" + uuid.NewString() }
func NewErrorID(model string) string    { return errorIDPrefix + model + "_" + uuid.NewString() }

func NewForwardedID(from, to string) string {
	return forwardedIDPrefix + from + "_to_" + to + "_" + uuid.NewString()
}

func WelcomeID(model string) string { return welcomeIDPrefix + model }

// IsThinking reports whether id belongs to a transient placeholder.
func IsThinking(id string) bool { return strings.HasPrefix(id, thinkingIDPrefix) }

// IsError reports whether id belongs to a failure row.
func IsError(id string) bool { return strings.HasPrefix(id, errorIDPrefix) }
