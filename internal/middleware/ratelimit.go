package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/time/rate"

	svcerrors "github.com/goback-io/goback/internal/errors"
	"github.com/goback-io/goback/internal/httputil"
	"github.com/goback-io/goback/internal/logging"
	"github.com/goback-io/goback/internal/metrics"
)

// Scope names a predefined rate-limit budget.
type Scope string

const (
	ScopePublic        Scope = "public"
	ScopeAuthenticated Scope = "authenticated"
	ScopeAdmin         Scope = "admin"
	ScopeAPI           Scope = "api"
)

// Rule is a rate-limit budget: Times requests per Window, keyed under Prefix.
type Rule struct {
	Times  int
	Window time.Duration
	Prefix string
}

// DefaultRules holds the budget for each scope.
var DefaultRules = map[Scope]Rule{
	ScopePublic:        {Times: 10, Window: time.Minute, Prefix: "public"},
	ScopeAuthenticated: {Times: 100, Window: time.Minute, Prefix: "auth"},
	ScopeAdmin:         {Times: 1000, Window: time.Minute, Prefix: "admin"},
	ScopeAPI:           {Times: 200, Window: time.Minute, Prefix: "api"},
}

// trustedProxyNets are the networks whose X-Forwarded-For headers we honor.
var trustedProxyNets = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
)

const maxForwardedIPs = 10

// RateLimiter enforces fixed-window request budgets backed by Redis. When
// Redis is unavailable it degrades to a per-process token bucket so the API
// stays protected rather than failing open.
type RateLimiter struct {
	redis  *redis.Client
	logger *logging.Logger

	mu       sync.Mutex
	fallback map[string]*rate.Limiter
}

// NewRateLimiter creates a rate limiter. client may be nil, in which case
// only the in-process fallback is used.
func NewRateLimiter(client *redis.Client, logger *logging.Logger) *RateLimiter {
	return &RateLimiter{
		redis:    client,
		logger:   logger,
		fallback: make(map[string]*rate.Limiter),
	}
}

// Limit returns a middleware enforcing the scope's default rule.
func (rl *RateLimiter) Limit(scope Scope) func(http.Handler) http.Handler {
	return rl.LimitRule(scope, DefaultRules[scope])
}

// LimitRule returns a middleware enforcing a custom rule under a scope.
func (rl *RateLimiter) LimitRule(scope Scope, rule Rule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rl.key(r, rule)

			allowed, err := rl.allow(r, key, rule)
			if err != nil {
				// Redis failure: fall back to the in-process limiter.
				allowed = rl.allowFallback(key, rule)
			}

			if !allowed {
				metrics.RecordRateLimited(string(scope))
				rl.logger.LogSecurityEvent(r.Context(), "rate_limit_exceeded", map[string]interface{}{
					"key":    key,
					"path":   r.URL.Path,
					"method": r.Method,
				})
				httputil.WriteError(w, svcerrors.RateLimitExceeded(rule.Times, rule.Window.String()))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) key(r *http.Request, rule Rule) string {
	identity := logging.GetUserID(r.Context())
	if identity == "" {
		identity = "ip:" + ClientIP(r)
	} else {
		identity = "user:" + identity
	}
	return fmt.Sprintf("ratelimit:%s:%s:%s", rule.Prefix, identity, r.URL.Path)
}

func (rl *RateLimiter) allow(r *http.Request, key string, rule Rule) (bool, error) {
	if rl.redis == nil {
		return false, redis.ErrClosed
	}

	ctx := r.Context()
	count, err := rl.redis.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := rl.redis.Expire(ctx, key, rule.Window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(rule.Times), nil
}

func (rl *RateLimiter) allowFallback(key string, rule Rule) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, ok := rl.fallback[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(rule.Window/time.Duration(rule.Times)), rule.Times)
		rl.fallback[key] = limiter
	}
	// Bound the map; entries are cheap but unbounded keys are not.
	if len(rl.fallback) > 10000 {
		rl.fallback = map[string]*rate.Limiter{key: limiter}
	}
	return limiter.Allow()
}

// ClientIP resolves the real client address. X-Forwarded-For is honored only
// when the connecting peer and every intermediate hop are trusted proxies.
func ClientIP(r *http.Request) string {
	peer := remoteIP(r.RemoteAddr)

	forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if forwarded != "" {
		ips := splitForwarded(forwarded)
		if len(ips) == 1 && validIP(ips[0]) {
			return ips[0]
		}
		if len(ips) > 1 && isTrustedProxy(peer) {
			trusted := true
			for _, hop := range ips[1:] {
				if !isTrustedProxy(hop) {
					trusted = false
					break
				}
			}
			if trusted && validIP(ips[0]) {
				return ips[0]
			}
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" && validIP(realIP) {
		return realIP
	}
	return peer
}

func splitForwarded(header string) []string {
	parts := strings.Split(header, ",")
	if len(parts) > maxForwardedIPs {
		parts = parts[:maxForwardedIPs]
	}
	ips := make([]string, 0, len(parts))
	for _, p := range parts {
		ips = append(ips, strings.TrimSpace(p))
	}
	return ips
}

func remoteIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func validIP(ip string) bool {
	return net.ParseIP(ip) != nil
}

func isTrustedProxy(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, network := range trustedProxyNets {
		if network.Contains(parsed) {
			return true
		}
	}
	return false
}

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(err)
		}
		nets = append(nets, network)
	}
	return nets
}
