package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tutor-chat/work-flows/models"
)

const ContentTypeHeader = "application/json"

var (
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrEmptyResponse    = errors.New("empty response from API")
)

type tutorAPIClient struct {
	token   string
	client  *http.Client
	baseURL string
}

// NewTutorAPIClient talks to the REST backend rooted at baseURL. An empty token sends no Authorization header.
func NewTutorAPIClient(baseURL, token string, timeout time.Duration) *tutorAPIClient {
	return &tutorAPIClient{
		token:   token,
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (tc *tutorAPIClient) ListAgents(ctx context.Context) ([]models.Agent, error) {
	var agents []models.Agent
	if err := tc.do(ctx, http.MethodGet, "/agents/", nil, &agents); err != nil {
		return nil, err
	}
	return agents, nil
}

func (tc *tutorAPIClient) CreateSession(ctx context.Context, req models.CreateSessionRequest) (string, error) {
	var resp models.CreateSessionResponse
	if err := tc.do(ctx, http.MethodPost, "/sessions/", req, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("create session: %w", ErrEmptyResponse)
	}
	return resp.ID, nil
}

func (tc *tutorAPIClient) SendMessage(ctx context.Context, sessionID string, req models.SendMessageRequest) (*models.SendMessageResponse, error) {
	var resp models.SendMessageResponse
	path := "/sessions/" + url.PathEscape(sessionID) + "/send_message/"
	if err := tc.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	if resp.Response == "" {
		return nil, fmt.Errorf("send message: %w", ErrEmptyResponse)
	}
	return &resp, nil
}

func (tc *tutorAPIClient) QuickChat(ctx context.Context, req models.QuickChatRequest) (*models.QuickChatResponse, error) {
	var resp models.QuickChatResponse
	if err := tc.do(ctx, http.MethodPost, "/chat/quick_chat/", req, &resp); err != nil {
		return nil, err
	}
	if resp.Response == "" {
		return nil, fmt.Errorf("quick chat: %w", ErrEmptyResponse)
	}
	return &resp, nil
}

func (tc *tutorAPIClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, tc.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if tc.token != "" {
		req.Header.Set("Authorization", "Bearer "+tc.token)
	}
	req.Header.Set("Accept", ContentTypeHeader)
	if body != nil {
		req.Header.Set("Content-Type", ContentTypeHeader)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a little of the body so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		return fmt.Errorf("%s %s: %w %d", method, path, ErrUnexpectedStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
