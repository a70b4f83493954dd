package controllers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/petalworks/bloomshop-backend/api/middleware"
	"github.com/petalworks/bloomshop-backend/api/responses"
	"github.com/petalworks/bloomshop-backend/api/validators"
	pkgauth "github.com/petalworks/bloomshop-backend/pkg/auth"
	"github.com/petalworks/bloomshop-backend/pkg/config"
	pkgerrors "github.com/petalworks/bloomshop-backend/pkg/errors"
	"github.com/petalworks/bloomshop-backend/pkg/logger"
	"github.com/petalworks/bloomshop-backend/pkg/security"
)

type sessionManager interface {
	Start(ctx context.Context, username string) (string, error)
	Revoke(ctx context.Context, sessionID string) error
}

type adminLoginRequest struct {
	Username string `json:"username" validate:"required,max=120"`
	Password string `json:"password" validate:"required,max=200"`
}

type adminLoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	Username  string `json:"username"`
}

// AdminLogin verifies the back office credential and issues a session token.
func AdminLogin(jwtCfg config.JWTConfig, adminCfg config.AdminConfig, sessions sessionManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session manager unavailable"))
			return
		}

		var payload adminLoginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// Same failure for a wrong username and a wrong password.
		usernameOK := subtle.ConstantTimeCompare([]byte(payload.Username), []byte(adminCfg.Username)) == 1
		passwordOK, err := security.VerifyPassword(payload.Password, adminCfg.PasswordHash)
		if err != nil || !usernameOK || !passwordOK {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials"))
			return
		}

		sessionID, err := sessions.Start(r.Context(), adminCfg.Username)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "start session"))
			return
		}

		now := time.Now()
		token, err := pkgauth.MintAdminToken(jwtCfg, now, pkgauth.AdminTokenPayload{
			Username:  adminCfg.Username,
			SessionID: sessionID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token"))
			return
		}

		if logg != nil {
			logg.Info(logg.WithAdmin(r.Context(), adminCfg.Username), "admin login succeeded")
		}

		expiresAt := now.Add(time.Duration(jwtCfg.ExpirationMinutes) * time.Minute)
		responses.WriteSuccess(w, adminLoginResponse{
			Token:     token,
			ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
			Username:  adminCfg.Username,
		})
	}
}

// AdminLogout revokes the session backing the presented token.
func AdminLogout(sessions sessionManager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessions == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session manager unavailable"))
			return
		}

		sessionID := middleware.SessionIDFromContext(r.Context())
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session context missing"))
			return
		}

		if err := sessions.Revoke(r.Context(), sessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session"))
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

// AdminMe confirms the token is still valid and echoes the admin identity.
func AdminMe(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := middleware.AdminUserFromContext(r.Context())
		if username == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin context missing"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"username": username})
	}
}
