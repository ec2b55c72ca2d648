package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutor-chat/work-flows/models"
	"tutor-chat/work-flows/storage"
)

func sampleMessages() []models.ChatMessage {
	at := time.Date(2026, 10, 17, 9, 30, 15, 123456789, time.UTC)
	return []models.ChatMessage{
		{ID: "u1", Role: models.MessageRoleUser, Content: "What does `defer` do?", CreatedAt: at},
		{ID: "a1", Role: models.MessageRoleAssistant, Content: "It runs a call when the function returns.\n\n```go\ndefer f.Close()\n```", CreatedAt: at.Add(time.Second)},
		{ID: "u2", Role: models.MessageRoleUser, Content: "Ünïcödé ✓ <script>", CreatedAt: at.Add(2 * time.Second)},
	}
}

func TestSessionStore_RoundTrip(t *testing.T) {
	for name, kv := range map[string]storage.KeyValueStore{
		"memory": storage.NewMemoryStore(),
		"sqlite": func() storage.KeyValueStore {
			s, err := storage.NewSQLiteStore(":memory:", nil)
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		}(),
		"bolt": func() storage.KeyValueStore {
			s, err := storage.NewBoltStore(filepath.Join(t.TempDir(), "chat.bolt"), nil)
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		}(),
	} {
		t.Run(name, func(t *testing.T) {
			store := NewSessionStore(kv, nil)
			assert.Empty(t, store.Load("chat-42"))

			messages := sampleMessages()
			require.True(t, store.Save("chat-42", messages))

			fresh := NewSessionStore(kv, nil)
			assert.Equal(t, messages, fresh.Load("chat-42"))

			invalid := []models.ChatMessage{{ID: "u9", Role: models.MessageRoleUser, Content: "caf\xe9 \xff\xfe ok", CreatedAt: messages[0].CreatedAt}}
			require.True(t, store.Save("chat-42", invalid))
			assert.Equal(t, "caf\xe9 \xff\xfe ok", invalid[0].Content, "caller's slice is not modified")

			loaded := NewSessionStore(kv, nil).Load("chat-42")
			require.Len(t, loaded, 1)
			assert.Equal(t, "caf\uFFFD \uFFFD ok", loaded[0].Content)

			require.True(t, fresh.Save("chat-42", loaded))
			assert.Equal(t, loaded, NewSessionStore(kv, nil).Load("chat-42"), "sanitized content is stable")
		})
	}
}

func TestSessionStore_SaveBeforeLoadIsRefused(t *testing.T) {
	kv := storage.NewMemoryStore()
	writer := NewSessionStore(kv, nil)
	writer.Load("chat-42")
	require.True(t, writer.Save("chat-42", sampleMessages()))

	store := NewSessionStore(kv, nil)
	assert.False(t, store.Save("chat-42", nil))
	assert.Len(t, store.Load("chat-42"), 3, "persisted content survives the refused save")

	assert.False(t, store.Save("chat-other", nil), "guard is per key")
}

func TestSessionStore_GuardFollowsLatestLoad(t *testing.T) {
	store := NewSessionStore(storage.NewMemoryStore(), nil)
	store.Load("chat-1")
	store.Load("chat-2")

	assert.False(t, store.Save("chat-1", sampleMessages()))
	assert.True(t, store.Save("chat-2", sampleMessages()))

	key, ok := store.LoadedKey()
	assert.True(t, ok)
	assert.Equal(t, "chat-2", key)
}

func TestSessionStore_CorruptDataDiscarded(t *testing.T) {
	kv := storage.NewMemoryStore()
	kv.Set("chat-42", `[{"id":`)
	store := NewSessionStore(kv, nil)

	messages := store.Load("chat-42")
	assert.NotNil(t, messages)
	assert.Empty(t, messages)
}

func TestSessionStore_NullAndEmpty(t *testing.T) {
	kv := storage.NewMemoryStore()
	kv.Set("chat-null", "null")
	store := NewSessionStore(kv, nil)
	assert.Equal(t, []models.ChatMessage{}, store.Load("chat-null"))

	require.True(t, store.Save("chat-null", nil))
	raw, _ := kv.Get("chat-null")
	assert.Equal(t, "[]", raw)
}

func TestSessionStore_Delete(t *testing.T) {
	kv := storage.NewMemoryStore()
	store := NewSessionStore(kv, nil)
	store.Load("chat-42")
	store.Save("chat-42", sampleMessages())

	store.Delete("chat-42")
	_, ok := kv.Get("chat-42")
	assert.False(t, ok)
}

func TestValidateKey(t *testing.T) {
	assert.NoError(t, ValidateKey("chat-42"))
	assert.ErrorIs(t, ValidateKey(""), ErrInvalidKey)
	assert.ErrorIs(t, ValidateKey("   "), ErrInvalidKey)
	assert.ErrorIs(t, ValidateKey(HistoryKey), ErrInvalidKey)
}

func TestSessionStore_ReservedHistorySlot(t *testing.T) {
	kv := storage.NewMemoryStore()
	kv.Set(HistoryKey, `[{"key":"chat-1","title":"Loops","date":"2026-10-17T09:00:00Z"}]`)
	store := NewSessionStore(kv, nil)

	assert.Empty(t, store.Load(HistoryKey))
	assert.False(t, store.Save(HistoryKey, sampleMessages()))
	store.Delete(HistoryKey)

	raw, ok := kv.Get(HistoryKey)
	require.True(t, ok)
	assert.Contains(t, raw, "chat-1")
	_, loaded := store.LoadedKey()
	assert.False(t, loaded)
}
