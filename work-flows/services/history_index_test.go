package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutor-chat/work-flows/storage"
)

func newTestHistory(kv storage.KeyValueStore) *HistoryIndex {
	h := NewHistoryIndex(kv, nil)
	base := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	tick := 0
	h.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	return h
}

func TestHistoryIndex_UpsertMovesToFront(t *testing.T) {
	h := newTestHistory(storage.NewMemoryStore())

	h.Upsert("chat-1", "Loops")
	h.Upsert("chat-2", "Recursion")
	h.Upsert("chat-1", "Loops and ranges")

	entries := h.List()
	require.Len(t, entries, 2)
	assert.Equal(t, "chat-1", entries[0].Key)
	assert.Equal(t, "Loops and ranges", entries[0].Title)
	assert.Equal(t, "chat-2", entries[1].Key)
	assert.True(t, entries[0].LastTouched.After(entries[1].LastTouched))
}

func TestHistoryIndex_Bounded(t *testing.T) {
	h := newTestHistory(storage.NewMemoryStore())

	for i := 0; i < 45; i++ {
		key := fmt.Sprintf("chat-%d", i%30)
		h.Upsert(key, key)

		entries := h.List()
		assert.LessOrEqual(t, len(entries), MaxHistoryEntries)
		assert.Equal(t, key, entries[0].Key)
		for j := 1; j < len(entries); j++ {
			assert.True(t, entries[j-1].LastTouched.After(entries[j].LastTouched), "recency order")
		}
	}
	assert.Len(t, h.List(), MaxHistoryEntries)
}

func TestHistoryIndex_SharedSlotAcrossInstances(t *testing.T) {
	kv := storage.NewMemoryStore()
	newTestHistory(kv).Upsert("chat-a", "A")
	newTestHistory(kv).Upsert("chat-b", "B")

	entries := NewHistoryIndex(kv, nil).List()
	require.Len(t, entries, 2)
	assert.Equal(t, "chat-b", entries[0].Key)
}

func TestHistoryIndex_CorruptDataStartsEmpty(t *testing.T) {
	kv := storage.NewMemoryStore()
	kv.Set(HistoryKey, "{not json")
	h := newTestHistory(kv)

	assert.Empty(t, h.List())

	h.Upsert("chat-1", "Loops")
	assert.Len(t, h.List(), 1)
}

func TestHistoryIndex_RemoveAndLookup(t *testing.T) {
	h := newTestHistory(storage.NewMemoryStore())
	h.Upsert("chat-1", "Loops")
	h.Upsert("chat-2", "Maps")

	entry, ok := h.Lookup("chat-1")
	require.True(t, ok)
	assert.Equal(t, "Loops", entry.Title)

	h.Remove("chat-1")
	h.Remove("missing")
	_, ok = h.Lookup("chat-1")
	assert.False(t, ok)
	assert.Len(t, h.List(), 1)
}

func TestHistoryIndex_IgnoresInvalidKeys(t *testing.T) {
	h := newTestHistory(storage.NewMemoryStore())
	h.Upsert("", "nothing")
	h.Upsert(HistoryKey, "itself")
	assert.Empty(t, h.List())
}

func TestHistoryIndex_SanitizesTitle(t *testing.T) {
	h := newTestHistory(storage.NewMemoryStore())
	h.Upsert("chat-1", "caf\xe9")

	entry, ok := h.Lookup("chat-1")
	require.True(t, ok)
	assert.Equal(t, "caf\uFFFD", entry.Title)
}
