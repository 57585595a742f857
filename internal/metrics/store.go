package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/PredictChain/server/internal/domain/events"
)

// Store metrics
var (
	StoreOperationDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Event store operation duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"backend", "operation"},
	)

	StoreErrors = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Total number of event store errors",
		},
		[]string{"backend", "operation", "error_type"},
	)
)

type instrumentedStore struct {
	next    events.Store
	backend string
}

// InstrumentStore wraps store so every call records latency and failures
// under the given backend label.
func InstrumentStore(store events.Store, backend string) events.Store {
	return &instrumentedStore{next: store, backend: backend}
}

func (s *instrumentedStore) observe(operation string, start time.Time, err error) {
	StoreOperationDuration.WithLabelValues(s.backend, operation).Observe(time.Since(start).Seconds())
	if err == nil || errors.Is(err, events.ErrNotFound) {
		return
	}
	StoreErrors.WithLabelValues(s.backend, operation, classify(err)).Inc()
}

func classify(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, events.ErrConflict):
		return "conflict"
	default:
		return "query_error"
	}
}

func (s *instrumentedStore) Find(ctx context.Context, filter events.Filter, opts events.FindOptions) (docs []events.Document, err error) {
	defer func(start time.Time) { s.observe("find", start, err) }(time.Now())
	return s.next.Find(ctx, filter, opts)
}

func (s *instrumentedStore) Count(ctx context.Context, filter events.Filter) (n int64, err error) {
	defer func(start time.Time) { s.observe("count", start, err) }(time.Now())
	return s.next.Count(ctx, filter)
}

func (s *instrumentedStore) FindOne(ctx context.Context, filter events.Filter) (doc *events.Document, err error) {
	defer func(start time.Time) { s.observe("find_one", start, err) }(time.Now())
	return s.next.FindOne(ctx, filter)
}

func (s *instrumentedStore) InsertOne(ctx context.Context, doc events.Document) (err error) {
	defer func(start time.Time) { s.observe("insert_one", start, err) }(time.Now())
	return s.next.InsertOne(ctx, doc)
}

func (s *instrumentedStore) UpdateOne(ctx context.Context, filter events.Filter, update events.Update) (doc *events.Document, err error) {
	defer func(start time.Time) { s.observe("update_one", start, err) }(time.Now())
	return s.next.UpdateOne(ctx, filter, update)
}

func (s *instrumentedStore) DeleteOne(ctx context.Context, filter events.Filter) (doc *events.Document, err error) {
	defer func(start time.Time) { s.observe("delete_one", start, err) }(time.Now())
	return s.next.DeleteOne(ctx, filter)
}

func (s *instrumentedStore) ReplaceAll(ctx context.Context, docs []events.Document) (err error) {
	defer func(start time.Time) { s.observe("replace_all", start, err) }(time.Now())
	return s.next.ReplaceAll(ctx, docs)
}

func (s *instrumentedStore) Ping(ctx context.Context) (err error) {
	defer func(start time.Time) { s.observe("ping", start, err) }(time.Now())
	return s.next.Ping(ctx)
}
