package managers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tutor-chat/utils"
	"tutor-chat/work-flows/client"
	"tutor-chat/work-flows/models"
)

const (
	StrategyPersistentSession = "persistentSession"
	StrategyQuickChat         = "quickChat"
	StrategySyntheticError    = "syntheticError"
)

// ErrStrategySkipped is returned by a strategy that does not apply to a request.
var ErrStrategySkipped = errors.New("strategy not applicable")

type DispatchRequest struct {
	SessionID   string
	AgentID     string
	Message     string
	PageContent string
}

type Reply struct {
	Content   string
	MessageID string
}

// DispatchStrategy is one way of getting an assistant reply.
type DispatchStrategy interface {
	Name() string
	Dispatch(ctx context.Context, req DispatchRequest) (*Reply, error)
}

// MessageDispatcher tries its strategies in order until one produces a reply.
type MessageDispatcher struct {
	strategies []DispatchStrategy
	newID      func() string
	now        func() time.Time
	logger     *zap.Logger
}

func NewMessageDispatcher(logger *zap.Logger, strategies ...DispatchStrategy) *MessageDispatcher {
	return &MessageDispatcher{
		strategies: strategies,
		newID:      uuid.NewString,
		now:        utils.Now,
		logger:     utils.OrNop(logger).Named("dispatcher"),
	}
}

// DefaultStrategies is persistent session, then quick chat, then the fixed unavailable message.
func DefaultStrategies(c client.Client, settings utils.LLMSettings) []DispatchStrategy {
	return []DispatchStrategy{
		&persistentSessionStrategy{client: c, settings: settings},
		&quickChatStrategy{client: c, settings: settings},
		syntheticErrorStrategy{},
	}
}

// Dispatch returns the assistant message and the name of the strategy that produced it.
// The returned message never carries error details.
func (d *MessageDispatcher) Dispatch(ctx context.Context, req DispatchRequest) (models.ChatMessage, string) {
	for _, strategy := range d.strategies {
		reply, err := strategy.Dispatch(ctx, req)
		if err != nil {
			if errors.Is(err, ErrStrategySkipped) {
				d.logger.Debug("strategy skipped", zap.String("strategy", strategy.Name()), zap.String("session_id", req.SessionID))
			} else {
				d.logger.Warn("strategy failed", zap.String("strategy", strategy.Name()), zap.String("session_id", req.SessionID), zap.Error(err))
			}
			continue
		}
		return d.assistantMessage(reply), strategy.Name()
	}

	d.logger.Error("all dispatch strategies failed", zap.String("session_id", req.SessionID))
	return d.assistantMessage(&Reply{Content: models.ServiceUnavailableMessage}), StrategySyntheticError
}

func (d *MessageDispatcher) assistantMessage(reply *Reply) models.ChatMessage {
	id := reply.MessageID
	if id == "" {
		id = d.newID()
	}
	return models.ChatMessage{
		ID:        id,
		Role:      models.MessageRoleAssistant,
		Content:   reply.Content,
		CreatedAt: d.now(),
	}
}

type persistentSessionStrategy struct {
	client   client.Client
	settings utils.LLMSettings
}

func (s *persistentSessionStrategy) Name() string { return StrategyPersistentSession }

func (s *persistentSessionStrategy) Dispatch(ctx context.Context, req DispatchRequest) (*Reply, error) {
	if s.client == nil || req.SessionID == "" || models.IsEphemeralSessionID(req.SessionID) {
		return nil, ErrStrategySkipped
	}
	resp, err := s.client.SendMessage(ctx, req.SessionID, models.SendMessageRequest{
		Message:     req.Message,
		Temperature: s.settings.Temperature,
		MaxTokens:   s.settings.MaxTokens,
		PageContent: req.PageContent,
	})
	if err != nil {
		return nil, err
	}
	return &Reply{Content: resp.Response, MessageID: resp.MessageID}, nil
}

type quickChatStrategy struct {
	client   client.Client
	settings utils.LLMSettings
}

func (s *quickChatStrategy) Name() string { return StrategyQuickChat }

func (s *quickChatStrategy) Dispatch(ctx context.Context, req DispatchRequest) (*Reply, error) {
	if s.client == nil || req.AgentID == "" {
		return nil, ErrStrategySkipped
	}
	resp, err := s.client.QuickChat(ctx, models.QuickChatRequest{
		AIAgentID:   req.AgentID,
		Message:     req.Message,
		Temperature: s.settings.Temperature,
		MaxTokens:   s.settings.MaxTokens,
		PageContent: req.PageContent,
	})
	if err != nil {
		return nil, err
	}
	return &Reply{Content: resp.Response}, nil
}

type syntheticErrorStrategy struct{}

func (syntheticErrorStrategy) Name() string { return StrategySyntheticError }

func (syntheticErrorStrategy) Dispatch(context.Context, DispatchRequest) (*Reply, error) {
	return &Reply{Content: models.ServiceUnavailableMessage}, nil
}
