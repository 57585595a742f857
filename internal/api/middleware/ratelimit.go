package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/PredictChain/server/internal/auth"
	"github.com/PredictChain/server/internal/config"
)

type RateLimitTier string

const (
	TierPublic RateLimitTier = "public"
	TierAdmin  RateLimitTier = "admin"
)

// AdminChecker reports whether a caller identifier is allowlisted.
type AdminChecker interface {
	IsAdmin(id string) bool
}

// Limiter applies per-client token buckets. Allowlisted callers are keyed by
// their identifier on the admin tier; everyone else by remote IP on the
// public tier. A tier with a limit of 0 is unlimited.
type Limiter struct {
	store  *limiterStore
	admins AdminChecker
}

func NewLimiter(cfg config.RateLimitConfig, admins AdminChecker) *Limiter {
	return &Limiter{store: newLimiterStore(cfg), admins: admins}
}

// Stop ends the background cleanup goroutine.
func (l *Limiter) Stop() {
	l.store.Stop()
}

func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" || r.URL.Path == "/readyz" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		tier, key := l.classify(r)
		limiter := l.store.limiter(tier, key)
		if limiter == nil || limiter.Allow() {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Retry-After", strconv.Itoa(l.store.retryAfterSeconds(tier)))
		writeProblem(w, r, http.StatusTooManyRequests, "Too many requests")
	})
}

func (l *Limiter) classify(r *http.Request) (RateLimitTier, string) {
	if caller := auth.CallerOrAnonymous(r); caller != "" && l.admins != nil && l.admins.IsAdmin(caller) {
		return TierAdmin, caller
	}
	return TierPublic, remoteIP(r)
}

type limiterStore struct {
	mu          sync.Mutex
	limiters    map[string]*limiterEntry
	perMinute   map[RateLimitTier]int
	stopOnce    sync.Once
	stopCleanup chan struct{}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterStore(cfg config.RateLimitConfig) *limiterStore {
	store := &limiterStore{
		limiters: make(map[string]*limiterEntry),
		perMinute: map[RateLimitTier]int{
			TierPublic: cfg.PublicPerMinute,
			TierAdmin:  cfg.AdminPerMinute,
		},
		stopCleanup: make(chan struct{}),
	}
	go store.cleanupLoop()
	return store
}

func (s *limiterStore) limiter(tier RateLimitTier, key string) *rate.Limiter {
	limit := s.perMinute[tier]
	if limit <= 0 {
		return nil
	}

	lookup := string(tier) + ":" + key

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.limiters[lookup]; ok {
		entry.lastSeen = time.Now()
		return entry.limiter
	}

	interval := time.Minute / time.Duration(limit)
	entry := &limiterEntry{
		limiter:  rate.NewLimiter(rate.Every(interval), limit),
		lastSeen: time.Now(),
	}
	s.limiters[lookup] = entry
	return entry.limiter
}

// retryAfterSeconds is the refill interval for one token, rounded up.
func (s *limiterStore) retryAfterSeconds(tier RateLimitTier) int {
	limit := s.perMinute[tier]
	if limit <= 0 {
		return 0
	}
	seconds := (60 + limit - 1) / limit
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}

func (s *limiterStore) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup(15 * time.Minute)
		case <-s.stopCleanup:
			return
		}
	}
}

// cleanup drops entries idle for longer than ttl.
func (s *limiterStore) cleanup(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, entry := range s.limiters {
		if now.Sub(entry.lastSeen) > ttl {
			delete(s.limiters, key)
		}
	}
}

func (s *limiterStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCleanup) })
}

func (s *limiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

// remoteIP uses the connection address only; forwarded headers are not
// trusted for rate limiting.
func remoteIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
