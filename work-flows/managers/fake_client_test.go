package managers

import (
	"context"
	"fmt"
	"sync"

	"tutor-chat/work-flows/models"
)

type fakeClient struct {
	mu sync.Mutex

	agents    []models.Agent
	agentsErr error
	createErr error
	sendErr   error
	quickErr  error

	// block, when set, holds SendMessage until it is closed; started is signalled first.
	block   chan struct{}
	started chan string

	calls          map[string]int
	createRequests []models.CreateSessionRequest
	sendRequests   []models.SendMessageRequest
	quickRequests  []models.QuickChatRequest
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		agents: []models.Agent{{ID: "agent-1", Name: "Python Tutor", Provider: "openai"}},
		calls:  make(map[string]int),
	}
}

func (f *fakeClient) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeClient) ListAgents(ctx context.Context) ([]models.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["ListAgents"]++
	return f.agents, f.agentsErr
}

func (f *fakeClient) CreateSession(ctx context.Context, req models.CreateSessionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["CreateSession"]++
	f.createRequests = append(f.createRequests, req)
	if f.createErr != nil {
		return "", f.createErr
	}
	return fmt.Sprintf("sess-%d", f.calls["CreateSession"]), nil
}

func (f *fakeClient) SendMessage(ctx context.Context, sessionID string, req models.SendMessageRequest) (*models.SendMessageResponse, error) {
	f.mu.Lock()
	f.calls["SendMessage"]++
	f.sendRequests = append(f.sendRequests, req)
	block, started, err := f.block, f.started, f.sendErr
	f.mu.Unlock()

	if started != nil {
		started <- req.Message
	}
	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	return &models.SendMessageResponse{
		Response:  "session reply to " + req.Message,
		MessageID: "msg-" + req.Message,
	}, nil
}

func (f *fakeClient) QuickChat(ctx context.Context, req models.QuickChatRequest) (*models.QuickChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["QuickChat"]++
	f.quickRequests = append(f.quickRequests, req)
	if f.quickErr != nil {
		return nil, f.quickErr
	}
	return &models.QuickChatResponse{Response: "quick reply to " + req.Message}, nil
}
