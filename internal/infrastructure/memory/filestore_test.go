package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/producelens/backend/internal/domain"
)

func TestFileStore_ReadMissingUser(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Read(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestFileStore_WriteThenRead(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	memory := domain.DefaultMemory("u1", now)
	memory.SearchHistory = append(memory.SearchHistory, domain.SearchHistoryEntry{Query: "番茄", ResultsCount: 2, Timestamp: now})

	require.NoError(t, store.Write(ctx, "u1", memory))

	data, err := os.ReadFile(filepath.Join(dir, "u1.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"query": "番茄"`)

	got, err := store.Read(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	require.Len(t, got.SearchHistory, 1)
	assert.Equal(t, "番茄", got.SearchHistory[0].Query)
	assert.Equal(t, []string{"local"}, got.Preferences.PreferredRegions)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "u1.json"), []byte("{not json"), 0644))

	_, err = store.Read(context.Background(), "u1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrUserNotFound)
}

func TestFileStore_InvalidUserID(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, id := range []string{"", ".", "..", "../etc/passwd", `a\b`} {
		t.Run(id, func(t *testing.T) {
			_, err := store.Read(context.Background(), id)
			assert.ErrorIs(t, err, domain.ErrInvalidRequest)
			err = store.Write(context.Background(), id, domain.DefaultMemory(id, time.Now()))
			assert.ErrorIs(t, err, domain.ErrInvalidRequest)
		})
	}
}
