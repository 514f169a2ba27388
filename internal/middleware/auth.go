// Package middleware provides the HTTP middleware chain for the API.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/goback-io/goback/internal/domain/user"
	svcerrors "github.com/goback-io/goback/internal/errors"
	"github.com/goback-io/goback/internal/httputil"
	"github.com/goback-io/goback/internal/logging"
	"github.com/goback-io/goback/internal/services/auth"
)

type userContextKey struct{}

// AuthMiddleware validates bearer tokens and resolves the active user.
type AuthMiddleware struct {
	auth      *auth.Service
	logger    *logging.Logger
	skipPaths map[string]bool
}

// NewAuthMiddleware creates an authentication middleware. Requests to
// skipPaths pass through unauthenticated.
func NewAuthMiddleware(authSvc *auth.Service, logger *logging.Logger, skipPaths []string) *AuthMiddleware {
	skip := make(map[string]bool)
	for _, path := range skipPaths {
		skip[path] = true
	}
	return &AuthMiddleware{
		auth:      authSvc,
		logger:    logger,
		skipPaths: skip,
	}
}

// Handler returns the middleware handler.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		token, err := bearerToken(r)
		if err != nil {
			m.respondError(w, r, err)
			return
		}

		u, err := m.auth.UserFromToken(r.Context(), token)
		if err != nil {
			m.logger.WithContext(r.Context()).WithError(err).Warn("token validation failed")
			m.respondError(w, r, err)
			return
		}

		ctx := WithUser(r.Context(), u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects requests whose authenticated user is not an admin.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFrom(r.Context())
		if !ok {
			httputil.WriteError(w, svcerrors.InvalidToken(nil))
			return
		}
		if !u.IsAdmin {
			httputil.WriteError(w, svcerrors.Unauthorized(""))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithUser stores the authenticated user and its identity fields in ctx.
func WithUser(ctx context.Context, u user.User) context.Context {
	ctx = context.WithValue(ctx, userContextKey{}, u)
	ctx = context.WithValue(ctx, logging.UserIDKey, u.ID)
	role := "user"
	if u.IsAdmin {
		role = "admin"
	}
	return context.WithValue(ctx, logging.RoleKey, role)
}

// UserFrom extracts the authenticated user from ctx.
func UserFrom(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(userContextKey{}).(user.User)
	return u, ok
}

func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", svcerrors.InvalidToken(nil)
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", svcerrors.InvalidToken(nil)
	}
	return parts[1], nil
}

func (m *AuthMiddleware) respondError(w http.ResponseWriter, r *http.Request, err error) {
	httputil.WriteError(w, err)
	m.logger.WithContext(r.Context()).WithError(err).WithFields(map[string]interface{}{
		"path":   r.URL.Path,
		"method": r.Method,
	}).Warn("authentication failed")
}
