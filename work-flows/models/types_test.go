package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsEphemeralSessionID(t *testing.T) {
	assert.True(t, IsEphemeralSessionID("local-0f8c2a"))
	assert.False(t, IsEphemeralSessionID("8f14e45f"))
	assert.False(t, IsEphemeralSessionID(""))
}

func TestIsValidMessageRole(t *testing.T) {
	for _, role := range []string{"user", "assistant", "system"} {
		assert.True(t, IsValidMessageRole(role), role)
	}
	assert.False(t, IsValidMessageRole("agent"))
}

func TestHistoryEntryUsesDateKey(t *testing.T) {
	entry := HistoryEntry{Key: "chat-42", Title: "Loops", LastTouched: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}

	data, err := json.Marshal(entry)
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"chat-42","title":"Loops","date":"2026-01-02T03:04:05Z"}`, string(data))
}

func TestSendMessageResponseOptionalID(t *testing.T) {
	var resp SendMessageResponse
	require.NoError(t, json.Unmarshal([]byte(`{"response":"hi"}`), &resp))
	assert.Equal(t, "hi", resp.Response)
	assert.Empty(t, resp.MessageID)
}
