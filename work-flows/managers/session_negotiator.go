package managers

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"tutor-chat/utils"
	"tutor-chat/work-flows/client"
	"tutor-chat/work-flows/models"
	"tutor-chat/work-flows/services"
)

// SessionNegotiator obtains a backend session id for a conversation. It never fails:
// when no agent is available or the backend refuses, it hands out a local id instead.
type SessionNegotiator struct {
	client  client.Client
	agents  *services.AgentCatalog
	page    string
	snippet func() string
	newID   func() string
	logger  *zap.Logger
}

func NewSessionNegotiator(c client.Client, agents *services.AgentCatalog, page string, snippet func() string, logger *zap.Logger) *SessionNegotiator {
	if snippet == nil {
		snippet = func() string { return "" }
	}
	return &SessionNegotiator{
		client:  c,
		agents:  agents,
		page:    page,
		snippet: snippet,
		newID:   uuid.NewString,
		logger:  utils.OrNop(logger).Named("negotiator"),
	}
}

// EnsureSession returns conv.BackendSessionID, creating one first if it is empty.
// conv.AgentID is filled from the catalog whenever it is still empty, including for
// conversations that already hold a local id.
func (n *SessionNegotiator) EnsureSession(ctx context.Context, conv *models.Conversation) string {
	if conv.AgentID == "" && n.agents != nil {
		if agent, ok := n.agents.Default(ctx); ok {
			conv.AgentID = agent.ID
		}
	}
	if conv.BackendSessionID != "" {
		return conv.BackendSessionID
	}

	if conv.AgentID == "" || n.client == nil {
		conv.BackendSessionID = n.localID()
		n.logger.Info("no agent available, using local session",
			zap.String("key", conv.Key), zap.String("session_id", conv.BackendSessionID))
		return conv.BackendSessionID
	}

	id, err := n.client.CreateSession(ctx, models.CreateSessionRequest{
		AIAgent:     conv.AgentID,
		Page:        n.page,
		Title:       SessionTitle(n.page),
		PageContent: n.snippet(),
	})
	if err != nil {
		conv.BackendSessionID = n.localID()
		n.logger.Warn("session creation failed, using local session",
			zap.String("key", conv.Key), zap.String("session_id", conv.BackendSessionID), zap.Error(err))
		return conv.BackendSessionID
	}

	conv.BackendSessionID = id
	n.logger.Debug("session created", zap.String("key", conv.Key), zap.String("session_id", id))
	return id
}

func (n *SessionNegotiator) localID() string {
	return models.LocalSessionPrefix + n.newID()
}

// SessionTitle is the learner-facing title sent when creating a backend session.
// It is derived from the page only.
func SessionTitle(page string) string {
	page = strings.TrimSpace(strings.NewReplacer("-", " ", "_", " ").Replace(page))
	if page == "" {
		return "Study Session"
	}
	return cases.Title(language.English).String(page) + " Study Session"
}
