package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ammiranda/department_service/config"
	"github.com/ammiranda/department_service/migrations"

	"github.com/lib/pq"
)

// PostgresRepository implements Store using PostgreSQL
type PostgresRepository struct {
	sqlStore
	config *config.DatabaseConfig
}

var postgresDialect = dialect{
	name: "postgres",
	placeholder: func(n int) string {
		return fmt.Sprintf("$%d", n)
	},
	idSet: func(b *queryBuilder, ids []int64, negate bool) (string, error) {
		clause := "id = ANY(" + b.bind(pq.Array(ids)) + ")"
		if negate {
			clause = "NOT (" + clause + ")"
		}
		return clause, nil
	},
	// Structural mutations serialize on the table; plain reads are not
	// blocked by EXCLUSIVE mode and keep seeing the last committed state.
	lockStatement: "LOCK TABLE departments IN EXCLUSIVE MODE",
	writeTx:       &sql.TxOptions{Isolation: sql.LevelReadCommitted},
	readTx:        &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true},
	returningID:   true,
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfgProvider config.Provider) (*PostgresRepository, error) {
	cfg, err := config.GetDatabaseConfig(ctx, cfgProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to get database config: %w", err)
	}

	return &PostgresRepository{
		sqlStore: sqlStore{dialect: postgresDialect},
		config:   cfg,
	}, nil
}

// Initialize sets up the PostgreSQL database
func (r *PostgresRepository) Initialize(ctx context.Context) error {
	// Open database connection
	db, err := sql.Open("postgres", r.config.DSN())
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("error pinging database: %w", err)
	}

	// Run migrations
	if err := migrations.Up(db, migrations.Postgres); err != nil {
		db.Close()
		return fmt.Errorf("error running migrations: %w", err)
	}

	r.db = db
	return nil
}

// Cleanup closes the database connection
func (r *PostgresRepository) Cleanup(ctx context.Context) error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// DB exposes the underlying connection pool for maintenance commands
func (r *PostgresRepository) DB() *sql.DB {
	return r.db
}
