// Package sqlutil holds the shared SQL plumbing components build on top
// of: connection pool construction, embedded schema migrations, and a
// generic keyset-pagination helper, built on plain pgxpool+golang-migrate
// rather than an ORM.
package sqlutil

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codeready-toolchain/tarsy/internal/config"
	"github.com/codeready-toolchain/tarsy/internal/xerrors"
)

// NewPool builds a pgxpool.Pool from cfg and verifies connectivity with a
// ping.
func NewPool(ctx context.Context, cfg config.Database) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, xerrors.Config("sqlutil.NewPool parse", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConnections)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, xerrors.SQL("sqlutil.NewPool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, xerrors.SQL("sqlutil.NewPool ping", fmt.Errorf("failed to ping database: %w", err))
	}
	return pool, nil
}
