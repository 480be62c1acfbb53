package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/lncproducciones/eshops-cart/internal/config"
	"github.com/lncproducciones/eshops-cart/internal/utils"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	_ "github.com/lib/pq"
)

const createSessionTable = `
	CREATE TABLE IF NOT EXISTS session_storage (
		key        VARCHAR(255) PRIMARY KEY,
		value      JSONB NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	)`

type postgresStorage struct {
	db         *sql.DB
	defaultTTL time.Duration
}

// OpenPostgres opens an instrumented connection pool and checks it is reachable.
func OpenPostgres(cfg *config.Database) (*sql.DB, error) {

	db, err := otelsql.Open("postgres", cfg.GetDSN(), otelsql.WithAttributes(semconv.DBSystemPostgreSQL))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// NewPostgresStorage creates the session_storage table if needed.
func NewPostgresStorage(ctx context.Context, db *sql.DB, defaultTTL time.Duration) (Storage, error) {
	dbCtx, cancel := utils.WithStorageTimeout(ctx)
	defer cancel()

	if _, err := db.ExecContext(dbCtx, createSessionTable); err != nil {
		return nil, fmt.Errorf("failed to create session_storage table: %w", err)
	}

	return &postgresStorage{db: db, defaultTTL: defaultTTL}, nil
}

func (p *postgresStorage) Get(ctx context.Context, key string, value any) (bool, error) {
	dbCtx, cancel := utils.WithStorageTimeout(ctx)
	defer cancel()

	query := `
		SELECT value
		FROM session_storage
		WHERE key = $1 AND expires_at > NOW()
	`

	var data []byte

	err := p.db.QueryRowContext(dbCtx, query, key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get key %s from postgres: %w", key, err)
	}

	if err := json.Unmarshal(data, value); err != nil {
		return false, fmt.Errorf("failed to unmarshal data for key %s: %w", key, err)
	}

	return true, nil
}

func (p *postgresStorage) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	dbCtx, cancel := utils.WithStorageTimeout(ctx)
	defer cancel()

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}

	if ttl <= 0 {
		ttl = p.defaultTTL
	}

	query := `
		INSERT INTO session_storage (key, value, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at
	`

	if _, err := p.db.ExecContext(dbCtx, query, key, data, time.Now().Add(ttl)); err != nil {
		return fmt.Errorf("failed to set key %s in postgres: %w", key, err)
	}

	return nil
}

func (p *postgresStorage) Delete(ctx context.Context, key string) error {
	dbCtx, cancel := utils.WithStorageTimeout(ctx)
	defer cancel()

	if _, err := p.db.ExecContext(dbCtx, `DELETE FROM session_storage WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete key %s from postgres: %w", key, err)
	}

	return nil
}

func (p *postgresStorage) Close() error {
	return p.db.Close()
}
