package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"github.com/petalworks/bloomshop-backend/pkg/config"
	redisclient "github.com/petalworks/bloomshop-backend/pkg/redis"
)

// ErrSessionNotFound signals a missing or revoked admin session.
var ErrSessionNotFound = errors.New("session not found")

type sessionStore interface {
	StoreAdminSession(ctx context.Context, sessionID, username string, ttl time.Duration) error
	GetAdminSession(ctx context.Context, sessionID string) (string, error)
	RevokeAdminSession(ctx context.Context, sessionID string) error
}

// Manager handles back-office session creation, lookup, and revocation.
// A JWT alone is not enough to stay signed in: the jti must still resolve
// to a live Redis record, so revocation takes effect immediately.
type Manager struct {
	store sessionStore
	ttl   time.Duration
}

// Checker exposes the read-only surface needed by middleware.
type Checker interface {
	Check(ctx context.Context, sessionID string) (string, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.AdminConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Manager{store: client, ttl: cfg.SessionTTL}, nil
}

// Start creates a session record for the username and returns its identifier.
func (m *Manager) Start(ctx context.Context, username string) (string, error) {
	if strings.TrimSpace(username) == "" {
		return "", fmt.Errorf("username is required")
	}
	sessionID := uuid.NewString()
	if err := m.store.StoreAdminSession(ctx, sessionID, username, m.ttl); err != nil {
		return "", err
	}
	return sessionID, nil
}

// Check returns the username bound to the session identifier.
func (m *Manager) Check(ctx context.Context, sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", ErrSessionNotFound
	}
	username, err := m.store.GetAdminSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return "", ErrSessionNotFound
		}
		return "", err
	}
	return username, nil
}

// Revoke deletes the session record.
func (m *Manager) Revoke(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	return m.store.RevokeAdminSession(ctx, sessionID)
}
