package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type mockIdempotencyStore struct {
	keys   map[string]string
	setErr error
	dels   []string
}

func newMockIdempotencyStore() *mockIdempotencyStore {
	return &mockIdempotencyStore{keys: map[string]string{}}
}

func (m *mockIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	return m.keys[key], nil
}

func (m *mockIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if m.setErr != nil {
		return false, m.setErr
	}
	if _, exists := m.keys[key]; exists {
		return false, nil
	}
	m.keys[key] = value.(string)
	return true, nil
}

func (m *mockIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "bloom:idempotency:" + scope + ":" + id
}

func (m *mockIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		m.dels = append(m.dels, key)
		delete(m.keys, key)
	}
	return nil
}

func TestIdempotencyGuardCheckAndMark(t *testing.T) {
	store := newMockIdempotencyStore()
	guard, err := NewIdempotencyGuard(store, time.Hour, "payment-webhook")
	require.NoError(t, err)

	seen, err := guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)
	require.False(t, seen)

	seen, err = guard.CheckAndMark(context.Background(), "evt_1")
	require.NoError(t, err)
	require.True(t, seen)
}

func TestIdempotencyGuardDeleteAllowsRetry(t *testing.T) {
	store := newMockIdempotencyStore()
	guard, err := NewIdempotencyGuard(store, time.Hour, "payment-webhook")
	require.NoError(t, err)

	_, err = guard.CheckAndMark(context.Background(), "evt_retry")
	require.NoError(t, err)
	require.NoError(t, guard.Delete(context.Background(), "evt_retry"))

	seen, err := guard.CheckAndMark(context.Background(), "evt_retry")
	require.NoError(t, err)
	require.False(t, seen)
}

func TestIdempotencyGuardPropagatesStoreError(t *testing.T) {
	store := newMockIdempotencyStore()
	store.setErr = errors.New("redis down")
	guard, err := NewIdempotencyGuard(store, time.Hour, "payment-webhook")
	require.NoError(t, err)

	_, err = guard.CheckAndMark(context.Background(), "evt_err")
	require.Error(t, err)
}

func TestIdempotencyGuardValidation(t *testing.T) {
	store := newMockIdempotencyStore()

	_, err := NewIdempotencyGuard(nil, time.Hour, "payment-webhook")
	require.Error(t, err)

	_, err = NewIdempotencyGuard(store, -time.Second, "payment-webhook")
	require.Error(t, err)

	_, err = NewIdempotencyGuard(store, time.Hour, "")
	require.Error(t, err)

	guard, err := NewIdempotencyGuard(store, time.Hour, "payment-webhook")
	require.NoError(t, err)

	_, err = guard.CheckAndMark(context.Background(), "")
	require.Error(t, err)
	require.Error(t, guard.Delete(context.Background(), ""))
}
