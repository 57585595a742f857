package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/PredictChain/server/internal/api/handlers"
	"github.com/PredictChain/server/internal/config"
	"github.com/PredictChain/server/internal/domain/events"
	"github.com/PredictChain/server/internal/metrics"
	"github.com/PredictChain/server/internal/storage/memory"
	mongostore "github.com/PredictChain/server/internal/storage/mongo"
	"github.com/PredictChain/server/internal/storage/postgres"
)

// backend is an opened event store plus whatever it needs at shutdown.
type backend struct {
	Name   string
	Store  events.Store
	Checks map[string]handlers.Check
	// Pool is set for the postgres backend only.
	Pool  metrics.PoolStatter
	close func(context.Context) error
}

func (b *backend) Close(ctx context.Context) error {
	if b == nil || b.close == nil {
		return nil
	}
	return b.close(ctx)
}

// openBackend connects to the configured store. The returned store is
// instrumented with Prometheus metrics.
func openBackend(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*backend, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var b *backend
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		pool, err := postgres.NewPool(connectCtx, cfg.Database.URL, int32(cfg.Database.MaxConnections))
		if err != nil {
			return nil, err
		}
		store, err := postgres.NewStore(pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		b = &backend{
			Store: store,
			Pool:  store.Pool(),
			Checks: map[string]handlers.Check{
				"migrations": handlers.MigrationCheck(store.AppliedSchemaVersion, postgres.LatestSchemaVersion),
			},
			close: func(context.Context) error {
				pool.Close()
				return nil
			},
		}
	case config.BackendMongo:
		client, err := mongostore.Connect(connectCtx, cfg.Mongo.URL)
		if err != nil {
			return nil, err
		}
		store, err := mongostore.NewStore(client, cfg.Mongo.Database, cfg.Mongo.Collection)
		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		if err := store.EnsureIndexes(connectCtx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		b = &backend{Store: store, close: client.Disconnect}
	case config.BackendMemory:
		logger.Warn().Msg("using in-memory event store; data is lost on restart")
		b = &backend{Store: memory.New()}
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}

	b.Name = cfg.Store.Backend
	b.Store = metrics.InstrumentStore(b.Store, b.Name)
	logger.Info().Str("backend", b.Name).Msg("event store ready")
	return b, nil
}

// newRepository wires the repository with the admin allowlist and the
// configured pending-event visibility.
func newRepository(cfg config.Config, store events.Store, admins events.AdminChecker) (*events.Repository, error) {
	visibility, err := events.ParsePendingVisibility(cfg.PendingVisibility)
	if err != nil {
		return nil, err
	}
	return events.NewRepository(store, admins, events.WithPendingVisibility(visibility)), nil
}
