package models

import (
	"strings"
	"time"
)

// Message roles

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
)

func (r MessageRole) String() string {
	return string(r)
}

func IsValidMessageRole(role string) bool {
	switch MessageRole(role) {
	case MessageRoleUser, MessageRoleAssistant, MessageRoleSystem:
		return true
	default:
		return false
	}
}

// ServiceUnavailableMessage is shown when every dispatch path has failed.
const ServiceUnavailableMessage = "Sorry, the tutor is unavailable right now. Please try again in a moment."

// LocalSessionPrefix marks session ids that were synthesized on the client.
const LocalSessionPrefix = "local-"

// IsEphemeralSessionID reports whether id was generated locally rather than by the backend.
func IsEphemeralSessionID(id string) bool {
	return strings.HasPrefix(id, LocalSessionPrefix)
}

// ChatMessage is one entry of a conversation. It is never modified after being appended.
type ChatMessage struct {
	ID        string      `json:"id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Conversation is the state of a single open chat widget.
type Conversation struct {
	Key              string
	Title            string
	Messages         []ChatMessage
	BackendSessionID string
	AgentID          string
}

// HistoryEntry is one row of the recent chats index.
type HistoryEntry struct {
	Key         string    `json:"key"`
	Title       string    `json:"title"`
	LastTouched time.Time `json:"date"`
}

// Backend request/response payloads

type CreateSessionRequest struct {
	AIAgent     string `json:"ai_agent"`
	Page        string `json:"page"`
	Title       string `json:"title"`
	PageContent string `json:"page_content"`
}

type CreateSessionResponse struct {
	ID string `json:"id"`
}

type SendMessageRequest struct {
	Message     string  `json:"message"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	PageContent string  `json:"page_content"`
}

type SendMessageResponse struct {
	Response  string `json:"response"`
	MessageID string `json:"message_id,omitzero"`
}

type QuickChatRequest struct {
	AIAgentID   string  `json:"ai_agent_id"`
	Message     string  `json:"message"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	PageContent string  `json:"page_content"`
}

type QuickChatResponse struct {
	Response string `json:"response"`
}
