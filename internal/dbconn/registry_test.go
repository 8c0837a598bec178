package dbconn

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gridbase/internal/store"
)

func testCfg() *store.ConnectionConfig {
	return &store.ConnectionConfig{
		Host:     "db.internal",
		Port:     5433,
		Database: "appdb",
		Schema:   "public",
		Username: "reader",
		Password: "p@ss:word/with weird#chars",
	}
}

func TestConnStringEscapesCredentials(t *testing.T) {
	s := ConnString(testCfg())
	if !strings.HasPrefix(s, "postgres://") {
		t.Fatalf("conn string = %s", s)
	}
	if strings.Contains(s, "p@ss:word/with weird#chars") {
		t.Fatalf("raw password leaked into URL: %s", s)
	}
	if !strings.Contains(s, "db.internal:5433") {
		t.Fatalf("host missing: %s", s)
	}
	if !strings.Contains(s, "/appdb") {
		t.Fatalf("database missing: %s", s)
	}
	if !strings.Contains(s, "sslmode=disable") {
		t.Fatalf("sslmode missing: %s", s)
	}
}

func TestPoolConfigDefaults(t *testing.T) {
	cfg, err := PoolConfig(testCfg())
	if err != nil {
		t.Fatalf("PoolConfig: %v", err)
	}
	if cfg.ConnConfig.ConnectTimeout != 10*time.Second {
		t.Errorf("connect timeout = %v", cfg.ConnConfig.ConnectTimeout)
	}
	if cfg.ConnConfig.RuntimeParams["timezone"] != "UTC" {
		t.Errorf("timezone = %q", cfg.ConnConfig.RuntimeParams["timezone"])
	}
	if cfg.MaxConns != 4 {
		t.Errorf("max conns = %d", cfg.MaxConns)
	}
	if cfg.ConnConfig.Password != "p@ss:word/with weird#chars" {
		t.Errorf("password did not round-trip: %q", cfg.ConnConfig.Password)
	}
}

func TestRemoveReservedAlias(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Remove(DefaultAlias); err != ErrReservedAlias {
		t.Fatalf("Remove(default) = %v, want ErrReservedAlias", err)
	}
}

func TestRemoveUnknownAliasSucceeds(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Remove("never-registered"); err != nil {
		t.Fatalf("Remove = %v", err)
	}
}

// A live pool must never be reused across owners: a foreign caller gets the
// same answer as for an alias that does not exist.
func TestOwnedPoolScopesByOwner(t *testing.T) {
	r := NewRegistry(nil)
	r.pools["db_abc"] = poolEntry{owner: "user-a"}

	if _, err := r.OwnedPool("db_abc", "user-a"); err != nil {
		t.Fatalf("owner denied own pool: %v", err)
	}

	var unknown *UnknownAliasError
	if _, err := r.OwnedPool("db_abc", "user-b"); !errors.As(err, &unknown) {
		t.Fatalf("foreign owner got %v, want UnknownAliasError", err)
	}
	if _, err := r.OwnedPool("db_abc", ""); !errors.As(err, &unknown) {
		t.Fatalf("empty owner got %v, want UnknownAliasError", err)
	}
}

// The reserved alias can never be installed in the live map, not even through
// a stored config that carries it.
func TestEnsureReservedAlias(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Ensure(context.Background(), DefaultAlias, "user-a"); !errors.Is(err, ErrReservedAlias) {
		t.Fatalf("Ensure(default) = %v, want ErrReservedAlias", err)
	}
	if len(r.pools) != 0 {
		t.Fatal("reserved alias reached the live map")
	}
}

func TestPoolUnknownAlias(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.Pool("nope")
	var unknown *UnknownAliasError
	if !errors.As(err, &unknown) {
		t.Fatalf("error = %v (%T), want UnknownAliasError", err, err)
	}
	if unknown.Alias != "nope" {
		t.Fatalf("alias = %s", unknown.Alias)
	}
}
