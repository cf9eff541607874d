package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creatorpulse/creatorpulse/internal/infrastructure/config"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/logging"
)

const connectTimeout = 10 * time.Second

// Connection wraps the postgres pool shared by all repositories.
// style sample embeddings live in the same database (pgvector).
type Connection struct {
	pool   *pgxpool.Pool
	config config.DatabaseConfig
	logger *logging.Logger
}

// New opens the pool and verifies it with a round trip.
func New(ctx context.Context, cfg config.DatabaseConfig, logger *logging.Logger) (*Connection, error) {
	componentLogger := logger.WithComponent("database")

	poolConfig, err := newPoolConfig(cfg)
	if err != nil {
		componentLogger.DatabaseConnectionFailed(err)
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		componentLogger.DatabaseConnectionFailed(err)
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	conn := &Connection{
		pool:   pool,
		config: cfg,
		logger: componentLogger,
	}

	if err := conn.HealthCheck(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	componentLogger.DatabaseConnected(cfg.Host, cfg.Name)
	return conn, nil
}

func newPoolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 10
	}
	poolConfig.MaxConns = maxConns
	poolConfig.MinConns = min(2, maxConns)
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "creatorpulse"

	// supabase transaction pooler (pgbouncer) recycles connections between
	// transactions, so prepared statements can't be used. migrations also
	// rely on multi-statement exec, which only the simple protocol allows.
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	return poolConfig, nil
}

// HealthCheck verifies the database connection is working.
func (c *Connection) HealthCheck(ctx context.Context) error {
	var result int
	if err := c.pool.QueryRow(ctx, "SELECT 1").Scan(&result); err != nil {
		c.logger.HealthCheckFailed(err)
		return fmt.Errorf("health check failed: %w", err)
	}

	c.logger.HealthCheckPassed()
	return nil
}

// VectorVersion returns the installed pgvector version, or "" when the
// extension is missing and style sample retrieval cannot work.
func (c *Connection) VectorVersion(ctx context.Context) (string, error) {
	var version string
	err := c.pool.QueryRow(ctx,
		`SELECT extversion FROM pg_extension WHERE extname = 'vector'`,
	).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("checking pgvector: %w", err)
	}
	return version, nil
}

// Pool returns the underlying connection pool.
func (c *Connection) Pool() *pgxpool.Pool {
	return c.pool
}

// Close shuts down the connection pool.
func (c *Connection) Close() {
	c.pool.Close()
	c.logger.Info("database connection closed")
}

// Schema returns the schema holding the creatorpulse tables.
func (c *Connection) Schema() string {
	return config.DatabaseSchema
}
