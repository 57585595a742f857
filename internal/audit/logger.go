// Package audit records admin actions as structured log entries.
package audit

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/PredictChain/server/internal/auth"
)

// Actions recorded by the server.
const (
	ActionApprove       = "event.approve"
	ActionDelete        = "event.delete"
	ActionFixturesReset = "fixtures.reset"
	ActionDenied        = "authorization.denied"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusDenied  = "denied"
)

// Entry is a single audit record.
type Entry struct {
	Timestamp  time.Time
	Action     string
	Caller     string
	ResourceID string
	IPAddress  string
	Status     string
	Details    map[string]string
}

// Logger writes entries through zerolog under a nested "audit" object so
// they can be filtered out of the general request log.
type Logger struct {
	output zerolog.Logger
}

func NewLoggerWithZerolog(logger zerolog.Logger) *Logger {
	return &Logger{output: logger.With().Str("component", "audit").Logger()}
}

// Nop discards every entry.
func Nop() *Logger {
	return &Logger{output: zerolog.Nop()}
}

func (l *Logger) Log(entry Entry) {
	if l == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	record := zerolog.Dict().
		Time("timestamp", entry.Timestamp).
		Str("action", entry.Action).
		Str("caller", entry.Caller).
		Str("status", entry.Status).
		Str("ip_address", entry.IPAddress)
	if entry.ResourceID != "" {
		record = record.Str("resource_id", entry.ResourceID)
	}
	if len(entry.Details) > 0 {
		details := zerolog.Dict()
		for k, v := range entry.Details {
			details = details.Str(k, v)
		}
		record = record.Dict("details", details)
	}

	event := l.output.Info()
	if entry.Status != StatusSuccess {
		event = l.output.Warn()
	}
	event.Dict("audit", record).Msg(entry.Action)
}

// LogFromRequest fills the caller and client address from r.
func (l *Logger) LogFromRequest(r *http.Request, action, resourceID, status string, details map[string]string) {
	l.Log(Entry{
		Action:     action,
		Caller:     auth.CallerOrAnonymous(r),
		ResourceID: resourceID,
		IPAddress:  extractClientIP(r),
		Status:     status,
		Details:    details,
	})
}

// extractClientIP prefers the first X-Forwarded-For hop, then X-Real-IP,
// then the connection's remote host.
func extractClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
