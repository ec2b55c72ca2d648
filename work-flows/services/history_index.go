package services

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"tutor-chat/utils"
	"tutor-chat/work-flows/models"
	"tutor-chat/work-flows/storage"
)

const (
	// HistoryKey is the storage slot shared by every conversation in the process.
	HistoryKey = "chat-history"
	// MaxHistoryEntries bounds the recent chats list.
	MaxHistoryEntries = 20
)

// HistoryIndex is the recency-ordered list of known conversations, most recent first.
type HistoryIndex struct {
	mu     sync.Mutex
	kv     storage.KeyValueStore
	now    func() time.Time
	logger *zap.Logger
}

func NewHistoryIndex(kv storage.KeyValueStore, logger *zap.Logger) *HistoryIndex {
	return &HistoryIndex{
		kv:     kv,
		now:    utils.Now,
		logger: utils.OrNop(logger).Named("history"),
	}
}

// Upsert moves key to the front with a fresh timestamp and trims the list.
func (h *HistoryIndex) Upsert(key, title string) {
	if ValidateKey(key) != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	entries := h.read()
	updated := make([]models.HistoryEntry, 0, len(entries)+1)
	updated = append(updated, models.HistoryEntry{
		Key:         key,
		Title:       SanitizeText(title),
		LastTouched: h.now(),
	})
	for _, entry := range entries {
		if entry.Key == key {
			continue
		}
		updated = append(updated, entry)
	}
	if len(updated) > MaxHistoryEntries {
		updated = updated[:MaxHistoryEntries]
	}

	h.write(updated)
}

// Remove drops key from the list if present.
func (h *HistoryIndex) Remove(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries := h.read()
	filtered := entries[:0]
	for _, entry := range entries {
		if entry.Key == key {
			continue
		}
		filtered = append(filtered, entry)
	}
	if len(filtered) == len(entries) {
		return
	}
	h.write(filtered)
}

// List returns a copy of the entries, most recent first.
func (h *HistoryIndex) List() []models.HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.read()
}

// Lookup returns the entry stored for key.
func (h *HistoryIndex) Lookup(key string) (models.HistoryEntry, bool) {
	for _, entry := range h.List() {
		if entry.Key == key {
			return entry, true
		}
	}
	return models.HistoryEntry{}, false
}

func (h *HistoryIndex) read() []models.HistoryEntry {
	raw, ok := h.kv.Get(HistoryKey)
	if !ok || raw == "" {
		return []models.HistoryEntry{}
	}

	var entries []models.HistoryEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		h.logger.Warn("discarding corrupt history index", zap.Error(err))
		return []models.HistoryEntry{}
	}
	if len(entries) > MaxHistoryEntries {
		entries = entries[:MaxHistoryEntries]
	}
	return entries
}

func (h *HistoryIndex) write(entries []models.HistoryEntry) {
	data, err := json.Marshal(entries)
	if err != nil {
		h.logger.Error("failed to encode history index", zap.Error(err))
		return
	}
	h.kv.Set(HistoryKey, string(data))
}
