package managers

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tutor-chat/utils"
	"tutor-chat/work-flows/client"
	"tutor-chat/work-flows/models"
	"tutor-chat/work-flows/services"
	"tutor-chat/work-flows/storage"
)

const (
	defaultTitle   = "New chat"
	titleMaxLength = 40
)

// Deps are the process-wide collaborators shared by every ChatSessionManager.
// Pass the same Agents catalog to every manager so the agent list is fetched once
// per process. History and Agents are built from Store and Client when nil, which
// gives that manager a private catalog.
type Deps struct {
	Client  client.Client
	Store   storage.KeyValueStore
	History *services.HistoryIndex
	Agents  *services.AgentCatalog
	Logger  *zap.Logger
}

type Option func(*ChatSessionManager)

// WithTitle fixes the conversation title instead of deriving it from the first message.
func WithTitle(title string) Option {
	return func(m *ChatSessionManager) { m.fixedTitle = title }
}

// WithPage sets the page identifier sent when a backend session is created.
func WithPage(page string) Option {
	return func(m *ChatSessionManager) { m.page = page }
}

// WithContextAccessor supplies the text used as page context, taking precedence over WithPageText.
func WithContextAccessor(accessor services.ContextSource) Option {
	return func(m *ChatSessionManager) { m.contextAccessor = accessor }
}

// WithPageText sets the default reader for the visible page text.
func WithPageText(reader services.ContextSource) Option {
	return func(m *ChatSessionManager) { m.pageText = reader }
}

func WithLLMSettings(settings utils.LLMSettings) Option {
	return func(m *ChatSessionManager) { m.settings = settings }
}

// WithAgentID pins the agent instead of using the catalog default.
func WithAgentID(agentID string) Option {
	return func(m *ChatSessionManager) { m.preferredAgentID = agentID }
}

// WithStrategies replaces the default dispatch chain.
func WithStrategies(strategies ...DispatchStrategy) Option {
	return func(m *ChatSessionManager) { m.strategies = strategies }
}

// ChatSessionManager owns one conversation on behalf of a chat widget.
//
// Every Send captures the current generation. SwitchSession, Clear and DeleteSession
// of the active key advance it, and replies that come back under an older generation
// are dropped without touching memory or storage.
type ChatSessionManager struct {
	mu sync.Mutex

	key         string
	fixedTitle  string
	storedTitle string
	messages    []models.ChatMessage
	sessionID   string
	agentID     string
	generation  uint64
	inflight    int

	page             string
	preferredAgentID string
	contextAccessor  services.ContextSource
	pageText         services.ContextSource
	settings         utils.LLMSettings
	strategies       []DispatchStrategy

	sessionStore *services.SessionStore
	history      *services.HistoryIndex
	negotiator   *SessionNegotiator
	dispatcher   *MessageDispatcher

	newID  func() string
	now    func() time.Time
	logger *zap.Logger
}

// NewChatSessionManager creates the manager for key and rehydrates its messages from storage.
// A key rejected by services.ValidateKey gives a conversation that is never persisted;
// callers taking keys from users should validate them first.
func NewChatSessionManager(key string, deps Deps, opts ...Option) *ChatSessionManager {
	logger := utils.OrNop(deps.Logger)

	m := &ChatSessionManager{
		page: utils.DefaultPage,
		settings: utils.LLMSettings{
			Temperature: utils.DefaultTemperature,
			MaxTokens:   utils.DefaultMaxTokens,
		},
		newID:  uuid.NewString,
		now:    utils.Now,
		logger: logger.Named("chat").With(zap.String("manager", uuid.NewString()[:8])),
	}
	for _, opt := range opts {
		opt(m)
	}

	if deps.Store == nil {
		deps.Store = storage.NewMemoryStore()
	}
	m.history = deps.History
	if m.history == nil {
		m.history = services.NewHistoryIndex(deps.Store, logger)
	}
	agents := deps.Agents
	if agents == nil && deps.Client != nil {
		agents = services.NewAgentCatalog(deps.Client, "", logger)
	}
	if m.strategies == nil {
		m.strategies = DefaultStrategies(deps.Client, m.settings)
	}

	m.sessionStore = services.NewSessionStore(deps.Store, logger)
	m.negotiator = NewSessionNegotiator(deps.Client, agents, m.page, m.contextSnippet, logger)
	m.dispatcher = NewMessageDispatcher(logger, m.strategies...)

	m.mu.Lock()
	m.loadLocked(key)
	m.mu.Unlock()
	return m
}

// Messages returns a copy of the current conversation.
func (m *ChatSessionManager) Messages() []models.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ChatMessage(nil), m.messages...)
}

// IsLoading reports whether a send is waiting for its reply.
func (m *ChatSessionManager) IsLoading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inflight > 0
}

func (m *ChatSessionManager) Key() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.key
}

func (m *ChatSessionManager) Title() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.titleLocked()
}

// SessionID returns the backend (or local) session id, empty before the first send.
func (m *ChatSessionManager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// LastReply returns the most recent assistant message.
func (m *ChatSessionManager) LastReply() (models.ChatMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].Role == models.MessageRoleAssistant {
			return m.messages[i], true
		}
	}
	return models.ChatMessage{}, false
}

// History lists known conversations, most recent first.
func (m *ChatSessionManager) History() []models.HistoryEntry {
	return m.history.List()
}

// Send appends text as a user message, obtains the assistant reply and persists both.
// Failures surface only as a fixed assistant message.
//
// Overlapping calls are not serialized: user messages are appended in call order and
// replies in the order they arrive.
func (m *ChatSessionManager) Send(ctx context.Context, text string) {
	text = services.SanitizeText(strings.TrimSpace(text))
	if text == "" {
		return
	}

	m.mu.Lock()
	m.messages = append(m.messages, models.ChatMessage{
		ID:        m.newID(),
		Role:      models.MessageRoleUser,
		Content:   text,
		CreatedAt: m.now(),
	})
	m.inflight++
	generation := m.generation
	conv := models.Conversation{
		Key:              m.key,
		Title:            m.titleLocked(),
		BackendSessionID: m.sessionID,
		AgentID:          m.agentIDLocked(),
	}
	m.persistLocked()
	m.mu.Unlock()

	sessionID := m.negotiator.EnsureSession(ctx, &conv)

	m.mu.Lock()
	if generation == m.generation {
		if m.sessionID == "" {
			m.sessionID = conv.BackendSessionID
		}
		if m.agentID == "" {
			m.agentID = conv.AgentID
		}
	}
	m.mu.Unlock()

	reply, strategy := m.dispatcher.Dispatch(ctx, DispatchRequest{
		SessionID:   sessionID,
		AgentID:     conv.AgentID,
		Message:     text,
		PageContent: m.contextSnippet(),
	})

	m.mu.Lock()
	defer m.mu.Unlock()

	m.inflight--
	if generation != m.generation {
		m.logger.Info("dropping stale reply",
			zap.String("key", conv.Key), zap.String("active_key", m.key), zap.String("strategy", strategy))
		return
	}

	m.messages = append(m.messages, reply)
	m.logger.Debug("reply appended", zap.String("key", m.key), zap.String("strategy", strategy), zap.Int("messages", len(m.messages)))
	m.persistLocked()
}

// Clear empties the in-memory conversation. Storage keeps the old messages until the next save.
func (m *ChatSessionManager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	m.messages = []models.ChatMessage{}
}

// SwitchSession makes key the active conversation, loading it from storage.
// The previous conversation's storage is left as is. Invalid keys leave the
// manager untouched.
func (m *ChatSessionManager) SwitchSession(key string) error {
	if err := services.ValidateKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	m.loadLocked(key)
	return nil
}

// DeleteSession removes key from storage and the history index. Deleting the
// active key also resets the in-memory conversation.
func (m *ChatSessionManager) DeleteSession(key string) error {
	if err := services.ValidateKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessionStore.Delete(key)
	m.history.Remove(key)
	if key == m.key {
		m.generation++
		m.messages = []models.ChatMessage{}
		m.sessionID = ""
		m.agentID = ""
		m.storedTitle = ""
	}
	return nil
}

func (m *ChatSessionManager) loadLocked(key string) {
	m.key = key
	m.messages = m.sessionStore.Load(key)
	m.sessionID = ""
	m.agentID = ""
	m.storedTitle = ""
	if entry, ok := m.history.Lookup(key); ok {
		m.storedTitle = entry.Title
	}
	m.logger.Debug("conversation loaded", zap.String("key", key), zap.Int("messages", len(m.messages)))
}

func (m *ChatSessionManager) persistLocked() {
	m.sessionStore.Save(m.key, m.messages)
	m.history.Upsert(m.key, m.titleLocked())
}

func (m *ChatSessionManager) agentIDLocked() string {
	if m.agentID != "" {
		return m.agentID
	}
	return m.preferredAgentID
}

func (m *ChatSessionManager) titleLocked() string {
	if m.fixedTitle != "" {
		return m.fixedTitle
	}
	if m.storedTitle != "" {
		return m.storedTitle
	}
	for _, msg := range m.messages {
		if msg.Role == models.MessageRoleUser {
			return truncateTitle(msg.Content)
		}
	}
	return defaultTitle
}

func (m *ChatSessionManager) contextSnippet() string {
	return services.ContextSnippet(m.contextAccessor, m.pageText)
}

func truncateTitle(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= titleMaxLength {
		return text
	}
	return strings.TrimRight(string(runes[:titleMaxLength]), " ") + "..."
}
