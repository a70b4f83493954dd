package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	pkgauth "github.com/petalworks/bloomshop-backend/pkg/auth"
	"github.com/petalworks/bloomshop-backend/pkg/auth/session"
	"github.com/petalworks/bloomshop-backend/pkg/config"
	"github.com/petalworks/bloomshop-backend/pkg/logger"
)

type stubChecker struct {
	sessions map[string]string
	err      error
}

func (s *stubChecker) Check(_ context.Context, sessionID string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	username, ok := s.sessions[sessionID]
	if !ok {
		return "", session.ErrSessionNotFound
	}
	return username, nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "bloomshop",
		ExpirationMinutes: 60,
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "middleware-test", Output: io.Discard})
}

func protectedHandler(t *testing.T, wantUser string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, wantUser, AdminUserFromContext(r.Context()))
		require.NotEmpty(t, SessionIDFromContext(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAdminAuthAcceptsValidToken(t *testing.T) {
	cfg := testJWTConfig()
	token, err := pkgauth.MintAdminToken(cfg, time.Now(), pkgauth.AdminTokenPayload{
		Username:  "florist",
		SessionID: "sess-1",
	})
	require.NoError(t, err)

	checker := &stubChecker{sessions: map[string]string{"sess-1": "florist"}}
	handler := AdminAuth(cfg, checker, testLogger())(protectedHandler(t, "florist"))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAdminAuthMissingHeader(t *testing.T) {
	handler := AdminAuth(testJWTConfig(), &stubChecker{}, testLogger())(protectedHandler(t, ""))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminAuthRejectsGarbageToken(t *testing.T) {
	handler := AdminAuth(testJWTConfig(), &stubChecker{}, testLogger())(protectedHandler(t, ""))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminAuthRejectsRevokedSession(t *testing.T) {
	cfg := testJWTConfig()
	token, err := pkgauth.MintAdminToken(cfg, time.Now(), pkgauth.AdminTokenPayload{
		Username:  "florist",
		SessionID: "sess-gone",
	})
	require.NoError(t, err)

	checker := &stubChecker{sessions: map[string]string{}}
	handler := AdminAuth(cfg, checker, testLogger())(protectedHandler(t, ""))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminAuthRejectsUsernameMismatch(t *testing.T) {
	cfg := testJWTConfig()
	token, err := pkgauth.MintAdminToken(cfg, time.Now(), pkgauth.AdminTokenPayload{
		Username:  "florist",
		SessionID: "sess-2",
	})
	require.NoError(t, err)

	checker := &stubChecker{sessions: map[string]string{"sess-2": "someone-else"}}
	handler := AdminAuth(cfg, checker, testLogger())(protectedHandler(t, ""))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
