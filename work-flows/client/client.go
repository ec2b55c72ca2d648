package client

import (
	"context"

	"tutor-chat/work-flows/models"
)

// Client is the tutoring backend used by chat sessions.
type Client interface {
	ListAgents(ctx context.Context) ([]models.Agent, error)
	CreateSession(ctx context.Context, req models.CreateSessionRequest) (string, error)
	SendMessage(ctx context.Context, sessionID string, req models.SendMessageRequest) (*models.SendMessageResponse, error)
	QuickChat(ctx context.Context, req models.QuickChatRequest) (*models.QuickChatResponse, error)
}
