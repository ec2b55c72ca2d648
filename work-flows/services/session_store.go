package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"tutor-chat/utils"
	"tutor-chat/work-flows/models"
	"tutor-chat/work-flows/storage"
)

// ErrInvalidKey is returned for keys that cannot name a conversation.
var ErrInvalidKey = errors.New("invalid conversation key")

// ValidateKey rejects the empty key and the slot reserved for the history index.
func ValidateKey(key string) error {
	switch {
	case strings.TrimSpace(key) == "":
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	case key == HistoryKey:
		return fmt.Errorf("%w: %q is reserved", ErrInvalidKey, key)
	}
	return nil
}

// SessionStore loads and saves the messages of one conversation at a time.
//
// Save is refused until Load has completed for the same key on this instance, so an
// empty in-memory state can never overwrite a conversation that has not been read yet.
type SessionStore struct {
	mu        sync.Mutex
	kv        storage.KeyValueStore
	loadedKey string
	loaded    bool
	logger    *zap.Logger
}

func NewSessionStore(kv storage.KeyValueStore, logger *zap.Logger) *SessionStore {
	return &SessionStore{
		kv:     kv,
		logger: utils.OrNop(logger).Named("session_store"),
	}
}

// Load returns the persisted messages for key, or an empty slice when the slot is
// missing or unreadable.
func (s *SessionStore) Load(key string) []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ValidateKey(key); err != nil {
		s.logger.Warn("refusing to load conversation", zap.Error(err))
		s.loadedKey = ""
		s.loaded = false
		return []models.ChatMessage{}
	}

	messages := s.decode(key)
	s.loadedKey = key
	s.loaded = true
	return messages
}

func (s *SessionStore) decode(key string) []models.ChatMessage {
	raw, ok := s.kv.Get(key)
	if !ok || raw == "" {
		return []models.ChatMessage{}
	}

	var messages []models.ChatMessage
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		s.logger.Warn("discarding corrupt conversation", zap.String("key", key), zap.Error(err))
		return []models.ChatMessage{}
	}
	if messages == nil {
		messages = []models.ChatMessage{}
	}
	return messages
}

// Save writes messages under key. It reports false when key has not been loaded yet.
func (s *SessionStore) Save(key string, messages []models.ChatMessage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ValidateKey(key) != nil || !s.loaded || s.loadedKey != key {
		s.logger.Debug("skipping save before load", zap.String("key", key), zap.String("loaded_key", s.loadedKey))
		return false
	}

	data, err := json.Marshal(cleanMessages(messages))
	if err != nil {
		s.logger.Error("failed to encode conversation", zap.String("key", key), zap.Error(err))
		return false
	}
	s.kv.Set(key, string(data))
	return true
}

// Delete removes the stored conversation for key. The reserved history slot is left alone.
func (s *SessionStore) Delete(key string) {
	if err := ValidateKey(key); err != nil {
		s.logger.Warn("refusing to delete conversation", zap.Error(err))
		return
	}
	s.kv.Remove(key)
}

// cleanMessages copies messages with invalid UTF-8 replaced, so what is stored
// decodes back to exactly what was encoded.
func cleanMessages(messages []models.ChatMessage) []models.ChatMessage {
	cleaned := make([]models.ChatMessage, len(messages))
	for i, msg := range messages {
		msg.ID = SanitizeText(msg.ID)
		msg.Content = SanitizeText(msg.Content)
		cleaned[i] = msg
	}
	return cleaned
}

// SanitizeText replaces each run of invalid UTF-8 with U+FFFD.
func SanitizeText(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

// LoadedKey returns the key of the last completed Load.
func (s *SessionStore) LoadedKey() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadedKey, s.loaded
}
