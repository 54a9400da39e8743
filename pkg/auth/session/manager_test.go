package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
	err  error
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return fmt.Sprintf("sess:%s", accessID)
}

func newTestManager(store *mockStore) *Manager {
	return &Manager{store: store, ttl: time.Hour, now: time.Now}
}

func TestManagerGenerateAndRotate(t *testing.T) {
	store := newMockStore()
	manager := newTestManager(store)
	ctx := context.Background()
	principal := uuid.New()

	token, err := manager.Generate(ctx, principal, "access-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	owner, err := manager.Principal(ctx, "access-123")
	require.NoError(t, err)
	assert.Equal(t, principal, owner)

	_, _, _, err = manager.Rotate(ctx, "access-123", "wrong")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	gotPrincipal, newAccessID, newToken, err := manager.Rotate(ctx, "access-123", token)
	require.NoError(t, err)
	assert.Equal(t, principal, gotPrincipal)
	assert.NotEqual(t, token, newToken)

	ok, err := manager.HasSession(ctx, "access-123")
	require.NoError(t, err)
	assert.False(t, ok, "old access id must be gone after rotation")

	ok, err = manager.HasSession(ctx, newAccessID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestManagerStoresOnlyTokenDigest(t *testing.T) {
	store := newMockStore()
	manager := newTestManager(store)

	token, err := manager.Generate(context.Background(), uuid.New(), "access-9")
	require.NoError(t, err)

	raw := store.data["sess:access-9"]
	require.NotEmpty(t, raw)
	assert.NotContains(t, raw, token)
	assert.Contains(t, raw, `"refresh_sha256":"`)
}

func TestManagerTreatsCorruptEntriesAsMissing(t *testing.T) {
	store := newMockStore()
	store.data["sess:broken"] = "{not json"
	manager := newTestManager(store)

	ok, err := manager.HasSession(context.Background(), "broken")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManagerRevoke(t *testing.T) {
	store := newMockStore()
	manager := newTestManager(store)
	ctx := context.Background()

	_, err := manager.Generate(ctx, uuid.New(), "access-1")
	require.NoError(t, err)
	require.NoError(t, manager.Revoke(ctx, "access-1"))

	ok, err := manager.HasSession(ctx, "access-1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = manager.Principal(ctx, "access-1")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestManagerValidatesInput(t *testing.T) {
	manager := newTestManager(newMockStore())
	ctx := context.Background()

	_, err := manager.Generate(ctx, uuid.New(), " ")
	assert.Error(t, err)
	_, err = manager.Generate(ctx, uuid.Nil, "access")
	assert.Error(t, err)
	_, _, _, err = manager.Rotate(ctx, "", "token")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	assert.Error(t, manager.Revoke(ctx, ""))
}

func TestHasSessionPropagatesStoreErrors(t *testing.T) {
	store := newMockStore()
	store.err = errors.New("redis down")
	manager := newTestManager(store)

	_, err := manager.HasSession(context.Background(), "access")
	assert.EqualError(t, err, "redis down")
}
