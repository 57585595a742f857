package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/PredictChain/server/internal/domain/events"
)

func TestHTTPMiddleware_UsesRoutePattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	handler := HTTPMiddleware(mux)

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/events/{param}", "200"))

	for _, id := range []string{"01HZZ", "01HZY"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/events/"+id, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", rec.Code)
		}
	}

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/events/{param}", "200"))
	if after-before != 2 {
		t.Fatalf("Expected two requests under the route label, got %v", after-before)
	}
}

func TestHTTPMiddleware_Unmatched(t *testing.T) {
	handler := HTTPMiddleware(http.NewServeMux())
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404"))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope/123", nil))

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404"))
	if after-before != 1 {
		t.Fatalf("Expected one unmatched request, got %v", after-before)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "static path", input: "/api/v1/events", expected: "/api/v1/events"},
		{name: "single param", input: "/api/v1/events/{id}", expected: "/api/v1/events/{param}"},
		{name: "param mid path", input: "/api/v1/approve-event/{id}", expected: "/api/v1/approve-event/{param}"},
		{name: "empty path", input: "", expected: ""},
		{name: "non-path input", input: "api/v1/events/{id}", expected: "api/v1/events/{id}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizePath(tt.input); got != tt.expected {
				t.Fatalf("normalizePath(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

type failingStore struct {
	events.Store
	err error
}

func (f failingStore) Count(context.Context, events.Filter) (int64, error) {
	return 0, f.err
}

func (f failingStore) FindOne(context.Context, events.Filter) (*events.Document, error) {
	return nil, events.ErrNotFound
}

func TestInstrumentStore_CountsErrors(t *testing.T) {
	store := InstrumentStore(failingStore{err: context.DeadlineExceeded}, "test")
	counter := StoreErrors.WithLabelValues("test", "count", "timeout")
	before := testutil.ToFloat64(counter)

	_, err := store.Count(context.Background(), events.Filter{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected the wrapped error to pass through, got %v", err)
	}
	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Fatalf("Expected one timeout error recorded, got %v", got)
	}
}

func TestInstrumentStore_NotFoundIsNotAnError(t *testing.T) {
	store := InstrumentStore(failingStore{}, "test")
	counter := StoreErrors.WithLabelValues("test", "find_one", "query_error")
	before := testutil.ToFloat64(counter)

	_, err := store.FindOne(context.Background(), events.ByID("x"))
	if !errors.Is(err, events.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if got := testutil.ToFloat64(counter) - before; got != 0 {
		t.Fatalf("Expected no store error for not found, got %v", got)
	}
}

func TestHandler_ExposesEventCounters(t *testing.T) {
	EventsSubmitted.Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "predictchain_events_submitted_total") {
		t.Fatal("Expected events_submitted_total in exposition output")
	}
}
