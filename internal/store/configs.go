package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ConnectionConfig is one registered database connection. Password is held in
// plaintext on this struct; it is encrypted on write and decrypted on read.
type ConnectionConfig struct {
	ID       string `json:"id"`
	OwnerID  string `json:"-"`
	Name     string `json:"name"`
	Alias    string `json:"alias"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Schema   string `json:"schema"`
	Username string `json:"username"`
	Password string `json:"-"`
}

const configColumns = "id, user_id, name, alias, host, port, dbname, schema_name, username, password"

func (s *Store) CreateConnectionConfig(ctx context.Context, cfg *ConnectionConfig) error {
	if cfg.Alias == "" {
		cfg.Alias = newAlias()
	}
	enc, err := s.cipher.Encrypt(cfg.Password)
	if err != nil {
		return fmt.Errorf("encrypt password: %w", err)
	}

	err = s.Pool.QueryRow(ctx,
		`INSERT INTO _connections (user_id, name, alias, host, port, dbname, schema_name, username, password)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		cfg.OwnerID, cfg.Name, cfg.Alias, cfg.Host, cfg.Port, cfg.Database, cfg.Schema, cfg.Username, enc,
	).Scan(&cfg.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create connection config: %w", ErrUniqueViolation)
		}
		return fmt.Errorf("create connection config: %w", err)
	}
	return nil
}

// GetConnectionConfig returns the config for (owner, alias).
func (s *Store) GetConnectionConfig(ctx context.Context, ownerID, alias string) (*ConnectionConfig, error) {
	return s.getConfig(ctx,
		"SELECT "+configColumns+" FROM _connections WHERE user_id = $1 AND alias = $2",
		ownerID, alias)
}

// GetConnectionConfigByAlias looks a config up without owner scoping. Internal
// callers only; never reachable from untrusted input.
func (s *Store) GetConnectionConfigByAlias(ctx context.Context, alias string) (*ConnectionConfig, error) {
	return s.getConfig(ctx,
		"SELECT "+configColumns+" FROM _connections WHERE alias = $1",
		alias)
}

func (s *Store) ListConnectionConfigs(ctx context.Context, ownerID string) ([]*ConnectionConfig, error) {
	rows, err := s.Pool.Query(ctx,
		"SELECT "+configColumns+" FROM _connections WHERE user_id = $1 ORDER BY name", ownerID)
	if err != nil {
		return nil, fmt.Errorf("list connection configs: %w", err)
	}
	defer rows.Close()

	configs := make([]*ConnectionConfig, 0)
	for rows.Next() {
		cfg, err := s.scanConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list connection configs: %w", err)
	}
	return configs, nil
}

// UpdateConnectionConfig replaces the stored config for (owner, alias). A blank
// password keeps the existing secret.
func (s *Store) UpdateConnectionConfig(ctx context.Context, cfg *ConnectionConfig) error {
	if cfg.Password != "" {
		enc, err := s.cipher.Encrypt(cfg.Password)
		if err != nil {
			return fmt.Errorf("encrypt password: %w", err)
		}
		return s.updateConfig(ctx,
			`UPDATE _connections
			 SET name = $3, host = $4, port = $5, dbname = $6, schema_name = $7, username = $8, password = $9, updated_at = NOW()
			 WHERE user_id = $1 AND alias = $2`,
			cfg.OwnerID, cfg.Alias, cfg.Name, cfg.Host, cfg.Port, cfg.Database, cfg.Schema, cfg.Username, enc)
	}
	return s.updateConfig(ctx,
		`UPDATE _connections
		 SET name = $3, host = $4, port = $5, dbname = $6, schema_name = $7, username = $8, updated_at = NOW()
		 WHERE user_id = $1 AND alias = $2`,
		cfg.OwnerID, cfg.Alias, cfg.Name, cfg.Host, cfg.Port, cfg.Database, cfg.Schema, cfg.Username)
}

func (s *Store) DeleteConnectionConfig(ctx context.Context, ownerID, alias string) error {
	tag, err := s.Pool.Exec(ctx,
		"DELETE FROM _connections WHERE user_id = $1 AND alias = $2", ownerID, alias)
	if err != nil {
		return fmt.Errorf("delete connection config: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ConnectionAliases returns the aliases owned by a user, name order.
func (s *Store) ConnectionAliases(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := s.Pool.Query(ctx,
		"SELECT alias FROM _connections WHERE user_id = $1 ORDER BY name", ownerID)
	if err != nil {
		return nil, fmt.Errorf("list aliases: %w", err)
	}
	defer rows.Close()

	aliases := make([]string, 0)
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("scan alias: %w", err)
		}
		aliases = append(aliases, a)
	}
	return aliases, rows.Err()
}

func (s *Store) getConfig(ctx context.Context, sql string, args ...any) (*ConnectionConfig, error) {
	rows, err := s.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("get connection config: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get connection config: %w", err)
		}
		return nil, ErrNotFound
	}
	return s.scanConfig(rows)
}

func (s *Store) scanConfig(rows pgx.Rows) (*ConnectionConfig, error) {
	var cfg ConnectionConfig
	var enc string
	err := rows.Scan(&cfg.ID, &cfg.OwnerID, &cfg.Name, &cfg.Alias, &cfg.Host, &cfg.Port,
		&cfg.Database, &cfg.Schema, &cfg.Username, &enc)
	if err != nil {
		return nil, fmt.Errorf("scan connection config: %w", err)
	}
	cfg.Password = s.cipher.Decrypt(enc)
	return &cfg, nil
}

func (s *Store) updateConfig(ctx context.Context, sql string, args ...any) error {
	tag, err := s.Pool.Exec(ctx, sql, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update connection config: %w", ErrUniqueViolation)
		}
		return fmt.Errorf("update connection config: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func newAlias() string {
	return "db_" + uuid.New().String()[:8]
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
