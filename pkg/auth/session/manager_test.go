package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) StoreAdminSession(ctx context.Context, sessionID, username string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[sessionID] = username
	return nil
}

func (m *mockStore) GetAdminSession(ctx context.Context, sessionID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[sessionID]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) RevokeAdminSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, sessionID)
	return nil
}

func TestManagerLifecycle(t *testing.T) {
	store := newMockStore()
	manager := &Manager{store: store, ttl: time.Hour}
	ctx := context.Background()

	sessionID, err := manager.Start(ctx, "florist")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if sessionID == "" {
		t.Fatalf("expected session id")
	}

	username, err := manager.Check(ctx, sessionID)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if username != "florist" {
		t.Fatalf("expected florist, got %q", username)
	}

	if err := manager.Revoke(ctx, sessionID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := manager.Check(ctx, sessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after revoke, got %v", err)
	}
}

func TestManagerCheckMissingSession(t *testing.T) {
	manager := &Manager{store: newMockStore(), ttl: time.Hour}
	if _, err := manager.Check(context.Background(), "unknown"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := manager.Check(context.Background(), " "); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound for blank id, got %v", err)
	}
}
