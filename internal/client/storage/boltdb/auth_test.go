package boltdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/authkeeper/internal/client/storage"
)

// создаём тестовое BoltDB хранилище
func createTestStorage(t *testing.T) *Storage {
	t.Helper()
	store, err := New(context.Background(), filepath.Join(t.TempDir(), "session_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStorage_SaveGetDeleteSession(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	session := &storage.Session{
		Username:  "testuser",
		UserID:    "user-id-123",
		Email:     "test@example.com",
		Token:     "jwt-token",
		ServerURL: "http://localhost:3000",
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}

	// До сохранения сессии нет
	_, err := store.GetSession(ctx)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)

	require.NoError(t, store.SaveSession(ctx, session))

	got, err := store.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, session, got)

	require.NoError(t, store.DeleteSession(ctx))

	_, err = store.GetSession(ctx)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)

	// Повторный logout
	assert.ErrorIs(t, store.DeleteSession(ctx), storage.ErrSessionNotFound)
}

func TestStorage_SaveSessionReplaces(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	require.NoError(t, store.SaveSession(ctx, &storage.Session{Username: "first", Token: "t1"}))
	require.NoError(t, store.SaveSession(ctx, &storage.Session{Username: "second", Token: "t2"}))

	got, err := store.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Username)
	assert.Equal(t, "t2", got.Token)
}

func TestStorage_SessionSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reopen.db")

	store, err := New(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.SaveSession(ctx, &storage.Session{Username: "persisted", Token: "t"}))
	require.NoError(t, store.Close())

	store, err = New(ctx, path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	got, err := store.GetSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.Username)
}

func TestStorage_Closed(t *testing.T) {
	ctx := context.Background()
	store, err := New(ctx, filepath.Join(t.TempDir(), "closed.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = store.GetSession(ctx)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)

	err = store.SaveSession(ctx, &storage.Session{Username: "x"})
	assert.ErrorIs(t, err, storage.ErrStorageClosed)

	assert.ErrorIs(t, store.DeleteSession(ctx), storage.ErrStorageClosed)
}
