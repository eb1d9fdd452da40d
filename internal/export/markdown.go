// internal/export/markdown.go
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"kinschat/internal/chat"
)

// Transcript contains the data needed to export a conversation.
type Transcript struct {
	ModelID   string
	ModelName string
	Messages  []chat.Message
}

// Render generates a formatted markdown string from a conversation.
func Render(tr *Transcript) string {
	var sb strings.Builder

	// Title header
	sb.WriteString("# Conversation with ")
	sb.WriteString(displayName(tr))
	sb.WriteString("\n\n")

	// Metadata section
	sb.WriteString("---\n\n")
	sb.WriteString(fmt.Sprintf("**Model:** `%s`\n\n", tr.ModelID))
	sb.WriteString(fmt.Sprintf("**Messages:** %d\n\n", len(tr.Messages)))
	sb.WriteString("---\n\n")

	sb.WriteString("## Transcript\n\n")

	for i, msg := range tr.Messages {
		// Timestamp and speaker header
		ts := msg.Timestamp.Format("15:04:05")
		sb.WriteString(fmt.Sprintf("### [%s] %s\n\n", ts, speaker(tr, msg)))

		content := strings.TrimSpace(msg.Content)
		if containsCodeBlock(content) {
			// Content already has code blocks, render as-is
			sb.WriteString(content)
			sb.WriteString("\n")
		} else {
			// Wrap in blockquote for visual distinction
			lines := strings.Split(content, "\n")
			for _, line := range lines {
				sb.WriteString("> ")
				sb.WriteString(line)
				sb.WriteString("\n")
			}
		}

		if msg.ImageURL != "" {
			sb.WriteString("\n")
			sb.WriteString(fmt.Sprintf("![generated image](%s)\n", msg.ImageURL))
		}
		sb.WriteString("\n")

		// Horizontal rule between messages (except after last)
		if i < len(tr.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	// Footer
	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported on %s*\n", time.Now().Format("2006-01-02 15:04:05")))

	return sb.String()
}

// Write renders a conversation and writes it to a markdown file under
// baseDir/transcripts. It returns the path of the written file.
func Write(tr *Transcript, baseDir string) (string, error) {
	// Filename: YYYY-MM-DD-<model>.md
	datePart := time.Now().Format("2006-01-02")
	namePart := sanitizeFilename(tr.ModelID)
	filename := fmt.Sprintf("%s-%s.md", datePart, namePart)

	dir := filepath.Join(baseDir, "transcripts")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create transcripts directory: %w", err)
	}

	path := filepath.Join(dir, filename)

	if err := os.WriteFile(path, []byte(Render(tr)), 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return path, nil
}

func displayName(tr *Transcript) string {
	if tr.ModelName != "" {
		return tr.ModelName
	}
	return tr.ModelID
}

// speaker returns a display name for a message's author. Forwarded rows
// carry their own attribution in the content, so they get a neutral label.
func speaker(tr *Transcript, msg chat.Message) string {
	if msg.Forwarded {
		return "Forwarded"
	}
	switch msg.Role {
	case chat.RoleUser:
		return "User"
	case chat.RoleAssistant:
		if msg.ModelName != "" {
			return msg.ModelName
		}
		return displayName(tr)
	default:
		return string(msg.Role)
	}
}

// sanitizeFilename removes/replaces characters unsuitable for filenames
func sanitizeFilename(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "-")

	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
			sb.WriteRune(r)
		case r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '-' || r == '_':
			sb.WriteRune(r)
		default:
			// Skip other characters
		}
	}

	result := sb.String()

	for strings.Contains(result, "--") {
		result = strings.ReplaceAll(result, "--", "-")
	}
	result = strings.Trim(result, "-")

	if result == "" {
		result = "conversation"
	}
	if len(result) > 50 {
		result = result[:50]
	}

	return result
}

// containsCodeBlock checks if content already has markdown code blocks
func containsCodeBlock(content string) bool {
	return strings.Contains(content, "```")
}
