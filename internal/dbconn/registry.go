// Package dbconn manages the live per-user database connections registered at
// runtime. The registry maps a connection alias to an active pgx pool; stored
// configs are the source of truth and the live pool is always rebuilt from
// them on ensure.
package dbconn

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"gridbase/internal/store"
)

// DefaultAlias is the reserved alias of the editor's own backing database.
// It never appears in the live registry and can never be removed.
const DefaultAlias = "default"

const connectTimeout = 10 * time.Second

var ErrReservedAlias = errors.New("the default connection cannot be removed")

// UnknownAliasError means no live connection exists for the alias. Callers
// should Ensure first.
type UnknownAliasError struct {
	Alias string
}

func (e *UnknownAliasError) Error() string {
	return fmt.Sprintf("no live connection for alias %q", e.Alias)
}

// poolEntry pairs a live pool with the user who owns its stored config, so
// reuse can be ownership-checked without a store round trip.
type poolEntry struct {
	pool  *pgxpool.Pool
	owner string
}

type Registry struct {
	mu    sync.RWMutex
	pools map[string]poolEntry
	store *store.Store
}

func NewRegistry(st *store.Store) *Registry {
	return &Registry{
		pools: make(map[string]poolEntry),
		store: st,
	}
}

// Pool returns the live pool for an alias without ownership scoping. Internal
// callers only; request paths go through OwnedPool first.
func (r *Registry) Pool(alias string) (*pgxpool.Pool, error) {
	r.mu.RLock()
	e, ok := r.pools[alias]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownAliasError{Alias: alias}
	}
	return e.pool, nil
}

// OwnedPool returns the live pool for an alias owned by ownerID. An ownership
// mismatch reports the same unknown-alias error as a miss, so a caller cannot
// tell whether a foreign alias exists.
func (r *Registry) OwnedPool(alias, ownerID string) (*pgxpool.Pool, error) {
	r.mu.RLock()
	e, ok := r.pools[alias]
	r.mu.RUnlock()
	if !ok || e.owner != ownerID {
		return nil, &UnknownAliasError{Alias: alias}
	}
	return e.pool, nil
}

// Ensure loads the stored config for alias and installs a fresh pool for it,
// replacing and closing any existing pool so stale credentials never survive a
// config change. When ownerID is non-empty the lookup is owner-scoped; the
// unscoped path is for internal callers only.
func (r *Registry) Ensure(ctx context.Context, alias, ownerID string) error {
	if alias == DefaultAlias {
		return ErrReservedAlias
	}

	var cfg *store.ConnectionConfig
	var err error
	if ownerID != "" {
		cfg, err = r.store.GetConnectionConfig(ctx, ownerID, alias)
	} else {
		cfg, err = r.store.GetConnectionConfigByAlias(ctx, alias)
	}
	if err != nil {
		return fmt.Errorf("connection %q: %w", alias, err)
	}

	poolCfg, err := PoolConfig(cfg)
	if err != nil {
		return fmt.Errorf("connection %q: %w", alias, err)
	}
	// Pools connect lazily; registering a connection never blocks on the
	// target database.
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("connection %q: %w", alias, err)
	}

	r.mu.Lock()
	old := r.pools[alias]
	r.pools[alias] = poolEntry{pool: pool, owner: cfg.OwnerID}
	r.mu.Unlock()

	if old.pool != nil {
		old.pool.Close()
	}
	return nil
}

// Remove closes and drops the live pool for an alias. A dirty disconnect is
// not an error; removal always succeeds for non-reserved aliases.
func (r *Registry) Remove(alias string) error {
	if alias == DefaultAlias {
		return ErrReservedAlias
	}
	r.mu.Lock()
	e, ok := r.pools[alias]
	delete(r.pools, alias)
	r.mu.Unlock()
	if ok {
		e.pool.Close()
	}
	return nil
}

// LoadResult reports the outcome of ensuring one stored connection.
type LoadResult struct {
	Alias string
	Err   error
}

// LoadAll ensures every stored connection for an owner, collecting per-alias
// outcomes instead of aborting on the first failure.
func (r *Registry) LoadAll(ctx context.Context, ownerID string) ([]LoadResult, error) {
	aliases, err := r.store.ConnectionAliases(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	results := make([]LoadResult, 0, len(aliases))
	for _, alias := range aliases {
		results = append(results, LoadResult{Alias: alias, Err: r.Ensure(ctx, alias, ownerID)})
	}
	return results, nil
}

// Aliases returns the stored aliases owned by a user.
func (r *Registry) Aliases(ctx context.Context, ownerID string) ([]string, error) {
	return r.store.ConnectionAliases(ctx, ownerID)
}

// Close closes every live pool. Shutdown only.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.pools {
		e.pool.Close()
	}
	r.pools = make(map[string]poolEntry)
}

// PoolConfig builds the pool configuration for a stored connection config with
// fixed operational defaults: 10s connect timeout, UTC session timezone, and
// short-lived idle connections so a config change is picked up quickly.
func PoolConfig(cfg *store.ConnectionConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(ConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	poolCfg.ConnConfig.ConnectTimeout = connectTimeout
	poolCfg.ConnConfig.RuntimeParams["timezone"] = "UTC"
	poolCfg.MaxConns = 4
	poolCfg.MaxConnIdleTime = time.Minute
	return poolCfg, nil
}

// ConnString renders the config as a connection URL, escaping credentials.
func ConnString(cfg *store.ConnectionConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.Username, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   "/" + cfg.Database,
	}
	q := url.Values{}
	q.Set("sslmode", "disable")
	u.RawQuery = q.Encode()
	return u.String()
}
