package loadtest

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PredictChain/server/internal/api"
	"github.com/PredictChain/server/internal/auth"
	"github.com/PredictChain/server/internal/config"
	"github.com/PredictChain/server/internal/domain/events"
	"github.com/PredictChain/server/internal/storage/memory"
)

const loadAdmin = "LoadAdminWallet"

func newTarget(t *testing.T) (*httptest.Server, *events.Repository) {
	t.Helper()
	cfg := config.Defaults()
	cfg.Environment = config.EnvTest
	cfg.RateLimit = config.RateLimitConfig{}

	admins := auth.NewAllowlist([]string{loadAdmin})
	repo := events.NewRepository(memory.New(), admins)
	handler, stop := api.NewRouter(cfg, zerolog.Nop(), api.Dependencies{
		Repo:         repo,
		Admins:       admins,
		StoreBackend: config.BackendMemory,
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(func() {
		srv.Close()
		stop()
	})
	return srv, repo
}

func TestRunConfigDrivesTraffic(t *testing.T) {
	srv, repo := newTarget(t)

	tester := New(Options{
		BaseURL:     srv.URL,
		Wallets:     []string{"WalletA", "WalletB"},
		AdminWallet: loadAdmin,
		Client:      srv.Client(),
	})
	stats, err := tester.RunConfig(context.Background(), ProfileConfig{
		RequestsPerSecond: 50,
		Duration:          600 * time.Millisecond,
		ReadRatio:         0.5,
		ApproveRatio:      1,
	})
	require.NoError(t, err)

	assert.Positive(t, stats.Total())
	assert.Zero(t, stats.Failed(), stats.Report())

	submits, ok := stats.Endpoint("submit_event")
	require.True(t, ok)
	assert.Positive(t, submits.Count)

	pending, err := repo.ListPending(context.Background(), loadAdmin, events.Page{})
	require.NoError(t, err)
	approved, err := repo.ListApproved(context.Background(), events.Page{})
	require.NoError(t, err)
	assert.Equal(t, submits.Count, pending.Total+approved.Total)
}

func TestRunUnknownProfile(t *testing.T) {
	_, err := New(Options{BaseURL: "http://127.0.0.1:0"}).Run(context.Background(), Profile("nope"))
	require.Error(t, err)
}

func TestRunConfigRejectsBadParameters(t *testing.T) {
	tester := New(Options{BaseURL: "http://127.0.0.1:0"})

	_, err := tester.RunConfig(context.Background(), ProfileConfig{RequestsPerSecond: 0, Duration: time.Second})
	require.Error(t, err)

	_, err = tester.RunConfig(context.Background(), ProfileConfig{RequestsPerSecond: 1, ReadRatio: 1.5})
	require.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	srv, _ := newTarget(t)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := New(Options{BaseURL: srv.URL, Client: srv.Client()}).RunConfig(ctx, ProfileConfig{
		RequestsPerSecond: 10,
		Duration:          time.Hour,
		ReadRatio:         1,
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestCurrentRPS(t *testing.T) {
	cfg := ProfileConfig{
		RequestsPerSecond: 100,
		Duration:          10 * time.Second,
		RampUpTime:        10 * time.Second,
		RampDownTime:      10 * time.Second,
	}
	tests := []struct {
		elapsed time.Duration
		want    int
	}{
		{0, 1},
		{5 * time.Second, 50},
		{15 * time.Second, 100},
		{25 * time.Second, 50},
		{time.Minute, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, currentRPS(tt.elapsed, cfg), "elapsed %s", tt.elapsed)
	}
}

func TestReportListsEndpoints(t *testing.T) {
	s := newStatistics()
	s.record("list_events", 200, 3*time.Millisecond)
	s.record("submit_event", 400, 5*time.Millisecond)
	s.recordError("submit_event")
	s.finish()

	report := s.Report()
	assert.Contains(t, report, "list_events")
	assert.Contains(t, report, "submit_event")
	assert.Contains(t, report, "400: 1")
	assert.Contains(t, report, "  0: 1")
	assert.Equal(t, int64(3), s.Total())
	assert.Equal(t, int64(2), s.Failed())
}
