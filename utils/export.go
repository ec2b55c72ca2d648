package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"tutor-chat/work-flows/models"
)

const DefaultExportDir = "exports"

type ExportData struct {
	Timestamp string               `json:"timestamp"`
	Key       string               `json:"key"`
	Title     string               `json:"title"`
	Messages  []models.ChatMessage `json:"messages"`
}

func sanitizeString(s string) string {
	if !utf8.ValidString(s) {
		return strings.ToValidUTF8(s, "?")
	}
	return s
}

// exportFileName turns a persistence key into a safe file name.
func exportFileName(key string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, key)
	if name == "" {
		name = "chat"
	}
	return name + ".json"
}

// ExportConversation writes the conversation as indented JSON into dir and returns the file path.
func ExportConversation(dir string, key, title string, messages []models.ChatMessage) (string, error) {
	if dir == "" {
		dir = DefaultExportDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create exports directory: %w", err)
	}

	cleaned := make([]models.ChatMessage, len(messages))
	for i, msg := range messages {
		msg.Content = sanitizeString(msg.Content)
		cleaned[i] = msg
	}

	exportData := ExportData{
		Timestamp: time.Now().Format(time.RFC3339),
		Key:       key,
		Title:     sanitizeString(title),
		Messages:  cleaned,
	}

	// SetEscapeHTML(false) keeps code snippets readable.
	var buf strings.Builder
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(exportData); err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}

	path := filepath.Join(dir, exportFileName(key))
	if err := os.WriteFile(path, []byte(strings.TrimSpace(buf.String())), 0644); err != nil {
		return "", fmt.Errorf("failed to write JSON file: %w", err)
	}
	return path, nil
}

// ParseExportFlag strips a trailing "--o json" from REPL input.
func ParseExportFlag(input string) (string, bool) {
	parts := strings.Fields(input)
	for i, part := range parts {
		if part == "--o" && i+1 < len(parts) && parts[i+1] == "json" {
			cleaned := strings.Join(append(parts[:i], parts[i+2:]...), " ")
			return strings.TrimSpace(cleaned), true
		}
	}
	return input, false
}
