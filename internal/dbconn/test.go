package dbconn

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"gridbase/internal/store"
)

// SchemaNotFoundError distinguishes "the database is fine but the schema is
// not there" from plain connectivity failures.
type SchemaNotFoundError struct {
	Schema   string
	Database string
}

func (e *SchemaNotFoundError) Error() string {
	return fmt.Sprintf("schema %q does not exist in database %q", e.Schema, e.Database)
}

// TestConnection opens a throwaway connection with the given parameters, runs
// a liveness query, and optionally verifies the schema exists. The live
// registry is never touched and the connection is always closed before
// returning. The connect attempt is bounded by the standard 10s timeout.
func TestConnection(ctx context.Context, cfg *store.ConnectionConfig) error {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	connCfg, err := pgx.ParseConfig(ConnString(cfg))
	if err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	connCfg.ConnectTimeout = connectTimeout

	conn, err := pgx.ConnectConfig(ctx, connCfg)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	var one int
	if err := conn.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("liveness check: %w", err)
	}

	if cfg.Schema != "" {
		var name string
		err := conn.QueryRow(ctx,
			"SELECT schema_name FROM information_schema.schemata WHERE schema_name = $1",
			cfg.Schema,
		).Scan(&name)
		if errors.Is(err, pgx.ErrNoRows) {
			return &SchemaNotFoundError{Schema: cfg.Schema, Database: cfg.Database}
		}
		if err != nil {
			return fmt.Errorf("schema check: %w", err)
		}
	}
	return nil
}
