package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/gridsight/siterisk-cli/internal/boundary"
	"github.com/gridsight/siterisk-cli/internal/ingest"
	"github.com/gridsight/siterisk-cli/internal/risk"
	"github.com/gridsight/siterisk-cli/internal/store"
)

// newLocationResolver builds the configured boundary resolver backend. An
// unavailable file backend is not fatal: an empty resolver (with a warning)
// is returned in that case, so every location degrades to Unknown instead of
// the run failing or rows being dropped.
func newLocationResolver(ctx context.Context) (ingest.LocationResolver, func(), error) {
	noop := func() {}

	switch cfg.Boundaries.Driver {
	case "postgres":
		if cfg.Boundaries.DatabaseURL == "" {
			return nil, noop, eris.New("boundaries database URL is required (SITERISK_BOUNDARIES_DATABASE_URL)")
		}
		pool, err := pgxpool.New(ctx, cfg.Boundaries.DatabaseURL)
		if err != nil {
			return nil, noop, eris.Wrap(err, "connect boundaries database")
		}
		return boundary.NewStoreResolver(pool).Bind(ctx), pool.Close, nil

	default:
		r := boundary.NewResolver()
		cols, err := boundary.LoadDir(cfg.Boundaries.Dir, cfg.Boundaries.Collections)
		if err != nil {
			zap.L().Warn("boundary collections unavailable, locations resolve to Unknown",
				zap.String("dir", cfg.Boundaries.Dir),
				zap.Error(err),
			)
			return r, noop, nil
		}
		r.Swap(cols)
		return r, noop, nil
	}
}

// loadFaultGeometry loads the configured fault line. Missing or malformed
// fault data degrades classification to a no-op rather than failing the run.
func loadFaultGeometry() geom.T {
	fault, err := risk.LoadFault(cfg.Fault.Path)
	if err != nil {
		zap.L().Warn("fault geometry unavailable, risk levels stay unknown",
			zap.String("path", cfg.Fault.Path),
			zap.Error(err),
		)
		return nil
	}
	return fault
}

// openStore opens and migrates the snapshot store.
func openStore(ctx context.Context) (*store.SQLiteStore, error) {
	s, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, eris.Wrap(err, "open snapshot store")
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, eris.Wrap(err, "migrate snapshot store")
	}
	return s, nil
}
