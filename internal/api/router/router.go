// Package router builds the HTTP routing table and middleware chain.
package router

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/goback-io/goback/internal/logging"
	"github.com/goback-io/goback/internal/metrics"
	"github.com/goback-io/goback/internal/middleware"
	"github.com/goback-io/goback/internal/services/auth"
	"github.com/goback-io/goback/internal/services/health"
	"github.com/goback-io/goback/internal/services/users"
)

// Options carries the router dependencies.
type Options struct {
	Logger         *logging.Logger
	Health         *health.Service
	Users          *users.Service
	Auth           *auth.Service
	RateLimiter    *middleware.RateLimiter
	AllowedOrigins []string
}

// skipAuthPaths are served without a bearer token.
var skipAuthPaths = []string{"/", "/health", "/metrics", "/auth/token", "/auth/signup"}

// New assembles the full routing table. Middleware order: tracing →
// processing time → CORS → metrics → auth; rate limits wrap individual
// handlers so the authenticated identity keys the budget.
func New(opts Options) http.Handler {
	h := &handlers{
		logger: opts.Logger,
		health: opts.Health,
		users:  opts.Users,
		auth:   opts.Auth,
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost"}
	}

	r := mux.NewRouter()
	r.Use(mux.MiddlewareFunc(metrics.InstrumentHandler))

	authMW := middleware.NewAuthMiddleware(opts.Auth, opts.Logger, skipAuthPaths)
	r.Use(mux.MiddlewareFunc(authMW.Handler))

	rl := opts.RateLimiter

	// general
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.Handle("/health", http.HandlerFunc(h.healthCheck)).Methods(http.MethodGet)
	r.Handle("/health/system", middleware.RequireAdmin(http.HandlerFunc(h.systemStats))).Methods(http.MethodGet)
	r.Handle("/", rl.Limit(middleware.ScopePublic)(http.HandlerFunc(h.root))).Methods(http.MethodGet)
	r.Handle("/protected", rl.Limit(middleware.ScopeAuthenticated)(http.HandlerFunc(h.protected))).Methods(http.MethodGet)
	r.Handle("/admin", middleware.RequireAdmin(rl.Limit(middleware.ScopeAdmin)(http.HandlerFunc(h.admin)))).Methods(http.MethodGet)

	// auth
	r.Handle("/auth/token",
		rl.LimitRule(middleware.ScopePublic, middleware.Rule{Times: 5, Window: time.Minute, Prefix: "login"})(
			http.HandlerFunc(h.login))).Methods(http.MethodPost)
	r.Handle("/auth/signup",
		rl.LimitRule(middleware.ScopePublic, middleware.Rule{Times: 3, Window: 5 * time.Minute, Prefix: "signup"})(
			http.HandlerFunc(h.signup))).Methods(http.MethodPost)

	// users
	adminLimited := func(fn http.HandlerFunc) http.Handler {
		return middleware.RequireAdmin(rl.Limit(middleware.ScopeAdmin)(fn))
	}
	r.Handle("/users", adminLimited(h.listUsers)).Methods(http.MethodGet)
	r.Handle("/users", adminLimited(h.createUser)).Methods(http.MethodPost)
	r.Handle("/users/me", rl.Limit(middleware.ScopeAuthenticated)(http.HandlerFunc(h.me))).Methods(http.MethodGet)
	r.Handle("/users/{id}", adminLimited(h.getUser)).Methods(http.MethodGet)
	r.Handle("/users/{id}", adminLimited(h.updateUser)).Methods(http.MethodPut)
	r.Handle("/users/{id}", adminLimited(h.deleteUser)).Methods(http.MethodDelete)
	r.Handle("/users/{id}/reactivate", adminLimited(h.reactivateUser)).Methods(http.MethodPost)

	// mux runs r.Use middleware only on matched routes, and every route is
	// method-bound, so preflight OPTIONS requests never match. CORS (and the
	// trace/timing wrappers) therefore sit outside the router.
	var handler http.Handler = r
	handler = middleware.NewCORSMiddleware(origins).Handler(handler)
	handler = middleware.ProcessingTime(handler)
	handler = middleware.Tracing(opts.Logger)(handler)
	return handler
}
