package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/PredictChain/server/internal/metrics"
)

// HealthCheck is the body of /health.
type HealthCheck struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	GitCommit string                 `json:"git_commit"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

// CheckResult represents the result of a single health check
type CheckResult struct {
	Status    string         `json:"status"`
	Message   string         `json:"message,omitempty"`
	LatencyMs int64          `json:"latency_ms,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

const (
	checkPass = "pass"
	checkWarn = "warn"
	checkFail = "fail"
)

// Check is a single named dependency probe.
type Check func(ctx context.Context) CheckResult

type namedCheck struct {
	name  string
	check Check
}

// HealthChecker runs registered checks for /readyz and /health.
type HealthChecker struct {
	checks    []namedCheck
	version   string
	gitCommit string
	timeout   time.Duration
}

func NewHealthChecker(version, gitCommit string) *HealthChecker {
	return &HealthChecker{version: version, gitCommit: gitCommit, timeout: 5 * time.Second}
}

// Register adds a check. Checks run in registration order.
func (h *HealthChecker) Register(name string, check Check) *HealthChecker {
	h.checks = append(h.checks, namedCheck{name: name, check: check})
	return h
}

// Healthz is the liveness probe: the process is up and serving.
func Healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// Readyz reports 503 when any check fails so load balancers stop routing
// traffic to this instance.
func (h *HealthChecker) Readyz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code, _ := h.run(r.Context())
		if status == "unhealthy" {
			writeJSON(w, code, map[string]string{"status": "not_ready"})
			return
		}
		writeJSON(w, code, map[string]string{"status": "ready"})
	}
}

// Health returns every check result along with build metadata.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting_down"})
			return
		default:
		}

		status, code, checks := h.run(r.Context())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(HealthCheck{
			Status:    status,
			Version:   h.version,
			GitCommit: h.gitCommit,
			Checks:    checks,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func (h *HealthChecker) run(ctx context.Context) (string, int, map[string]CheckResult) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	checks := make(map[string]CheckResult, len(h.checks))
	for _, nc := range h.checks {
		result := nc.check(ctx)
		checks[nc.name] = result
		metrics.HealthCheckStatus.WithLabelValues(nc.name).Set(statusGauge(result.Status))
	}

	overall := "healthy"
	for _, result := range checks {
		switch result.Status {
		case checkFail:
			return "unhealthy", http.StatusServiceUnavailable, checks
		case checkWarn:
			overall = "degraded"
		}
	}
	return overall, http.StatusOK, checks
}

func statusGauge(status string) float64 {
	switch status {
	case checkPass:
		return 2
	case checkWarn:
		return 1
	default:
		return 0
	}
}

// Pinger is anything that can prove it reaches its backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck probes the event store with its own 2s budget so a slow store
// cannot starve the other checks.
func PingCheck(p Pinger, backend string) Check {
	return func(ctx context.Context) CheckResult {
		if p == nil {
			return CheckResult{Status: checkFail, Message: "store not initialized"}
		}
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		start := time.Now()
		err := p.Ping(pingCtx)
		latency := time.Since(start).Milliseconds()
		if err != nil {
			message := fmt.Sprintf("%s ping failed", backend)
			if pingCtx.Err() == context.DeadlineExceeded {
				message = fmt.Sprintf("%s ping timed out after 2 seconds", backend)
			}
			return CheckResult{
				Status:    checkFail,
				Message:   message,
				LatencyMs: latency,
				Details:   map[string]any{"error": err.Error()},
			}
		}
		return CheckResult{
			Status:    checkPass,
			Message:   fmt.Sprintf("%s reachable", backend),
			LatencyMs: latency,
		}
	}
}

// SchemaVersionFunc reports the applied migration version.
type SchemaVersionFunc func(ctx context.Context) (version uint, dirty bool, err error)

// MigrationCheck fails on a dirty schema and warns when the database is
// behind the migrations compiled into this binary.
func MigrationCheck(current SchemaVersionFunc, expected uint) Check {
	return func(ctx context.Context) CheckResult {
		version, dirty, err := current(ctx)
		if err != nil {
			return CheckResult{
				Status:  checkFail,
				Message: "cannot read schema version",
				Details: map[string]any{"error": err.Error(), "remediation": "run: server migrate up"},
			}
		}
		details := map[string]any{"version": version, "expected": expected}
		if dirty {
			return CheckResult{Status: checkFail, Message: "schema is dirty", Details: details}
		}
		if version < expected {
			return CheckResult{Status: checkWarn, Message: "pending migrations", Details: details}
		}
		return CheckResult{Status: checkPass, Message: "schema up to date", Details: details}
	}
}
