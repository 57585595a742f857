// Package loadtest drives synthetic traffic against a running PredictChain
// server: public catalogue reads, wallet submissions and admin approvals.
package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/PredictChain/server/internal/auth"
)

// Profile names a predefined load scenario.
type Profile string

const (
	ProfileLight  Profile = "light"  // 5 req/s, 1 minute
	ProfileMedium Profile = "medium" // 20 req/s, 2 minutes
	ProfileHeavy  Profile = "heavy"  // 50 req/s, 5 minutes
	ProfileBurst  Profile = "burst"  // 100 req/s immediately, 1 minute
)

// ProfileConfig describes one run.
type ProfileConfig struct {
	RequestsPerSecond int
	Duration          time.Duration
	RampUpTime        time.Duration
	RampDownTime      time.Duration
	// ReadRatio is the share of requests that are catalogue reads; the rest
	// are submissions.
	ReadRatio float64
	// ApproveRatio is the share of accepted submissions the admin wallet
	// approves. Ignored without an admin wallet.
	ApproveRatio float64
}

// Profiles holds the predefined scenarios.
var Profiles = map[Profile]ProfileConfig{
	ProfileLight: {
		RequestsPerSecond: 5,
		Duration:          time.Minute,
		RampUpTime:        10 * time.Second,
		RampDownTime:      10 * time.Second,
		ReadRatio:         0.8,
		ApproveRatio:      0.5,
	},
	ProfileMedium: {
		RequestsPerSecond: 20,
		Duration:          2 * time.Minute,
		RampUpTime:        20 * time.Second,
		RampDownTime:      20 * time.Second,
		ReadRatio:         0.8,
		ApproveRatio:      0.5,
	},
	ProfileHeavy: {
		RequestsPerSecond: 50,
		Duration:          5 * time.Minute,
		RampUpTime:        30 * time.Second,
		RampDownTime:      30 * time.Second,
		ReadRatio:         0.7,
		ApproveRatio:      0.3,
	},
	ProfileBurst: {
		RequestsPerSecond: 100,
		Duration:          time.Minute,
		ReadRatio:         0.9,
		ApproveRatio:      0.2,
	},
}

// Options configures a Tester.
type Options struct {
	BaseURL string
	// Wallets are rotated through as submitters. A single generated wallet
	// is used when empty.
	Wallets []string
	// AdminWallet, when set, approves a share of the accepted submissions.
	AdminWallet string
	Client      *http.Client
	Out         io.Writer
}

// Tester runs load scenarios against one server.
type Tester struct {
	opts  Options
	cfg   ProfileConfig
	stats *Statistics

	mu      sync.Mutex
	next    int
	rng     *rand.Rand
	approve chan string
}

// New returns a Tester for opts.
func New(opts Options) *Tester {
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if len(opts.Wallets) == 0 {
		opts.Wallets = []string{"0xload" + uuid.NewString()[:8]}
	}
	return &Tester{
		opts: opts,
		rng:  rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
}

// Run executes a predefined profile.
func (t *Tester) Run(ctx context.Context, profile Profile) (*Statistics, error) {
	cfg, ok := Profiles[profile]
	if !ok {
		return nil, fmt.Errorf("unknown profile: %s", profile)
	}
	return t.RunConfig(ctx, cfg)
}

// RunConfig executes a custom scenario and returns the collected statistics
// once every in-flight request has finished.
func (t *Tester) RunConfig(ctx context.Context, cfg ProfileConfig) (*Statistics, error) {
	if cfg.RequestsPerSecond <= 0 {
		return nil, fmt.Errorf("requests per second must be positive, got %d", cfg.RequestsPerSecond)
	}
	if cfg.ReadRatio < 0 || cfg.ReadRatio > 1 {
		return nil, fmt.Errorf("read ratio must be within [0, 1], got %v", cfg.ReadRatio)
	}

	t.cfg = cfg
	t.stats = newStatistics()
	t.approve = make(chan string, cfg.RequestsPerSecond*4)

	fmt.Fprintf(t.opts.Out, "Starting load test against %s\n", t.opts.BaseURL)
	fmt.Fprintf(t.opts.Out, "  RPS: %d  duration: %s  ramp: %s/%s  reads: %.0f%%\n\n",
		cfg.RequestsPerSecond, cfg.Duration, cfg.RampUpTime, cfg.RampDownTime, cfg.ReadRatio*100)

	workers := max(cfg.RequestsPerSecond*2, 10)
	work := make(chan request, workers*2)

	g, gctx := errgroup.WithContext(ctx)
	for range workers {
		g.Go(func() error {
			for req := range work {
				t.execute(gctx, req)
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(work)
		t.generate(gctx, cfg, work)
		return nil
	})

	_ = g.Wait()
	t.stats.finish()
	return t.stats, nil
}

type request struct {
	method   string
	path     string
	wallet   string
	body     any
	endpoint string
}

func (t *Tester) generate(ctx context.Context, cfg ProfileConfig, work chan<- request) {
	start := time.Now()
	total := cfg.RampUpTime + cfg.Duration + cfg.RampDownTime
	limiter := rate.NewLimiter(rate.Limit(currentRPS(0, cfg)), 1)

	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		elapsed := time.Since(start)
		if elapsed > total {
			return
		}
		limiter.SetLimit(rate.Limit(currentRPS(elapsed, cfg)))

		req := t.nextRequest(cfg)
		select {
		case work <- req:
		case <-ctx.Done():
			return
		}
	}
}

// currentRPS interpolates the request rate across the ramp phases. It never
// drops below one request per second.
func currentRPS(elapsed time.Duration, cfg ProfileConfig) int {
	target := cfg.RequestsPerSecond
	var rps int
	switch steadyEnd := cfg.RampUpTime + cfg.Duration; {
	case elapsed < cfg.RampUpTime:
		rps = int(float64(target) * float64(elapsed) / float64(cfg.RampUpTime))
	case elapsed < steadyEnd:
		rps = target
	case elapsed-steadyEnd < cfg.RampDownTime:
		progress := float64(elapsed-steadyEnd) / float64(cfg.RampDownTime)
		rps = int(float64(target) * (1 - progress))
	default:
		rps = 1
	}
	return max(rps, 1)
}

func (t *Tester) nextRequest(cfg ProfileConfig) request {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.opts.AdminWallet != "" {
		select {
		case id := <-t.approve:
			return request{
				method:   http.MethodPost,
				path:     "/api/v1/approve-event/" + id,
				wallet:   t.opts.AdminWallet,
				body:     map[string]string{"eventPublicKey": "load-" + uuid.NewString()},
				endpoint: "approve_event",
			}
		default:
		}
	}

	if t.rng.Float64() < cfg.ReadRatio {
		switch n := t.rng.IntN(10); {
		case n < 7:
			return request{
				method:   http.MethodGet,
				path:     fmt.Sprintf("/api/v1/events?limit=%d&offset=%d", 1+t.rng.IntN(20), t.rng.IntN(50)),
				endpoint: "list_events",
			}
		case n < 9:
			return request{method: http.MethodGet, path: "/api/v1/is-admin", wallet: t.wallet(), endpoint: "is_admin"}
		default:
			return request{method: http.MethodGet, path: "/healthz", endpoint: "healthz"}
		}
	}

	n := t.rng.IntN(1_000_000)
	return request{
		method: http.MethodPost,
		path:   "/api/v1/pending-events",
		wallet: t.wallet(),
		body: map[string]any{"event": map[string]string{
			"name":           fmt.Sprintf("Load market %d", n),
			"category":       []string{"Weather", "Sports", "Crypto", "Politics"}[n%4],
			"description":    "Synthetic market created by the load generator.",
			"resolutionDate": time.Now().AddDate(0, 0, 1+n%90).Format("2006-01-02"),
		}},
		endpoint: "submit_event",
	}
}

// wallet rotates through the configured submitter wallets. Callers hold t.mu.
func (t *Tester) wallet() string {
	w := t.opts.Wallets[t.next%len(t.opts.Wallets)]
	t.next++
	return w
}

func (t *Tester) execute(ctx context.Context, r request) {
	start := time.Now()

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			t.stats.recordError(r.endpoint)
			return
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, t.opts.BaseURL+r.path, body)
	if err != nil {
		t.stats.recordError(r.endpoint)
		return
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.wallet != "" {
		req.Header.Set(auth.CallerHeader, r.wallet)
	}

	resp, err := t.opts.Client.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			t.stats.recordError(r.endpoint)
		}
		return
	}
	defer func() { _ = resp.Body.Close() }()

	payload, _ := io.ReadAll(resp.Body)
	t.stats.record(r.endpoint, resp.StatusCode, time.Since(start))

	if r.endpoint == "submit_event" && resp.StatusCode == http.StatusCreated {
		t.queueApproval(payload)
	}
}

func (t *Tester) queueApproval(payload []byte) {
	if t.opts.AdminWallet == "" {
		return
	}
	t.mu.Lock()
	skip := t.rng.Float64() >= t.cfg.ApproveRatio
	t.mu.Unlock()
	if skip {
		return
	}
	var created struct {
		Event struct {
			ID string `json:"id"`
		} `json:"event"`
	}
	if err := json.Unmarshal(payload, &created); err != nil || created.Event.ID == "" {
		return
	}
	select {
	case t.approve <- created.Event.ID:
	default:
	}
}

// Statistics aggregates the outcome of a run.
type Statistics struct {
	mu sync.Mutex

	total     int64
	succeeded int64
	failed    int64
	latencies []time.Duration
	byStatus  map[int]int64
	endpoints map[string]*EndpointStats

	startTime time.Time
	endTime   time.Time
}

// EndpointStats is the per-operation breakdown.
type EndpointStats struct {
	Count     int64
	Errors    int64
	latencies []time.Duration
}

func newStatistics() *Statistics {
	return &Statistics{
		byStatus:  make(map[int]int64),
		endpoints: make(map[string]*EndpointStats),
		startTime: time.Now(),
	}
}

func (s *Statistics) endpoint(name string) *EndpointStats {
	ep := s.endpoints[name]
	if ep == nil {
		ep = &EndpointStats{}
		s.endpoints[name] = ep
	}
	return ep
}

func (s *Statistics) record(endpoint string, status int, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.latencies = append(s.latencies, latency)
	ep := s.endpoint(endpoint)
	ep.Count++
	ep.latencies = append(ep.latencies, latency)

	if status >= 200 && status < 300 {
		s.succeeded++
		return
	}
	s.failed++
	s.byStatus[status]++
	ep.Errors++
}

// recordError counts a request that never produced a response.
func (s *Statistics) recordError(endpoint string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	s.failed++
	s.byStatus[0]++
	ep := s.endpoint(endpoint)
	ep.Count++
	ep.Errors++
}

func (s *Statistics) finish() {
	s.mu.Lock()
	s.endTime = time.Now()
	s.mu.Unlock()
}

// Total reports how many requests were issued.
func (s *Statistics) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Failed reports how many requests errored or returned a non-2xx status.
func (s *Statistics) Failed() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed
}

// Endpoint returns a copy of the stats for one operation.
func (s *Statistics) Endpoint(name string) (EndpointStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ep, ok := s.endpoints[name]
	if !ok {
		return EndpointStats{}, false
	}
	return EndpointStats{Count: ep.Count, Errors: ep.Errors}, true
}

// Report renders a human-readable summary.
func (s *Statistics) Report() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	elapsed := s.endTime.Sub(s.startTime)
	var b bytes.Buffer

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "LOAD TEST RESULTS")
	fmt.Fprintln(&b, "=================")
	fmt.Fprintf(&b, "Duration:        %s\n", elapsed.Round(time.Second))
	fmt.Fprintf(&b, "Total Requests:  %d\n", s.total)
	fmt.Fprintf(&b, "Successful:      %d (%.1f%%)\n", s.succeeded, percent(s.succeeded, s.total))
	fmt.Fprintf(&b, "Failed:          %d (%.1f%%)\n", s.failed, percent(s.failed, s.total))
	if elapsed > 0 {
		fmt.Fprintf(&b, "Requests/sec:    %.2f\n", float64(s.total)/elapsed.Seconds())
	}

	if len(s.latencies) > 0 {
		fmt.Fprintln(&b, "\nLatency:")
		fmt.Fprintf(&b, "  p50:  %s\n", percentile(s.latencies, 0.50))
		fmt.Fprintf(&b, "  p95:  %s\n", percentile(s.latencies, 0.95))
		fmt.Fprintf(&b, "  p99:  %s\n", percentile(s.latencies, 0.99))
	}

	if len(s.byStatus) > 0 {
		fmt.Fprintln(&b, "\nFailures by status (0 = transport error):")
		codes := make([]int, 0, len(s.byStatus))
		for code := range s.byStatus {
			codes = append(codes, code)
		}
		sort.Ints(codes)
		for _, code := range codes {
			fmt.Fprintf(&b, "  %3d: %d\n", code, s.byStatus[code])
		}
	}

	names := make([]string, 0, len(s.endpoints))
	for name := range s.endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintf(&b, "\n%-14s %8s %8s %12s\n", "Endpoint", "Count", "Errors", "p95")
	for _, name := range names {
		ep := s.endpoints[name]
		fmt.Fprintf(&b, "%-14s %8d %8d %12s\n", name, ep.Count, ep.Errors, percentile(ep.latencies, 0.95))
	}
	return b.String()
}

func percent(n, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func percentile(values []time.Duration, p float64) time.Duration {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := min(int(float64(len(sorted))*p), len(sorted)-1)
	return sorted[idx].Round(time.Microsecond)
}
