package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ammiranda/department_service/migrations"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteRepository implements Store using SQLite
type SQLiteRepository struct {
	sqlStore
	dbPath string
}

var sqliteDialect = dialect{
	name: "sqlite",
	placeholder: func(int) string {
		return "?"
	},
	// Id sets travel as one JSON array so large subtrees do not run into
	// the bind parameter limit.
	idSet: func(b *queryBuilder, ids []int64, negate bool) (string, error) {
		encoded, err := json.Marshal(ids)
		if err != nil {
			return "", fmt.Errorf("error encoding id set: %w", err)
		}
		op := "IN"
		if negate {
			op = "NOT IN"
		}
		return fmt.Sprintf("id %s (SELECT value FROM json_each(%s))", op, b.bind(string(encoded))), nil
	},
	returningID: false,
}

// NewSQLiteRepository creates a new SQLite repository instance. An empty
// path selects a database file under the user's home directory.
func NewSQLiteRepository(path string) *SQLiteRepository {
	if path == "" {
		path = DefaultSQLitePath()
	}
	return &SQLiteRepository{
		sqlStore: sqlStore{dialect: sqliteDialect},
		dbPath:   path,
	}
}

// DefaultSQLitePath returns the database file used when none is configured
func DefaultSQLitePath() string {
	// Default to data directory in user's home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	// Create data directory if it doesn't exist
	dataDir := filepath.Join(homeDir, ".departments")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		// Fallback to current directory if home directory is not accessible
		dataDir = "."
	}
	return filepath.Join(dataDir, "departments.db")
}

// Initialize opens the SQLite database and applies the schema. Writes and
// reads use separate connection pools: write transactions start with
// BEGIN IMMEDIATE, so two structural mutations can never interleave, while
// read transactions start deferred and read a WAL snapshot without waiting
// for the writer.
func (r *SQLiteRepository) Initialize(ctx context.Context) error {
	db, err := r.open(ctx, "_txlock=immediate&_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return err
	}

	if err := migrations.Up(db, migrations.SQLite); err != nil {
		db.Close()
		return fmt.Errorf("error running migrations: %w", err)
	}

	readDB, err := r.open(ctx, "_txlock=deferred&_busy_timeout=5000&_query_only=true")
	if err != nil {
		db.Close()
		return err
	}

	r.db = db
	r.readDB = readDB
	return nil
}

func (r *SQLiteRepository) open(ctx context.Context, params string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", r.dbPath, params))
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}
	return db, nil
}

// Cleanup closes both connection pools
func (r *SQLiteRepository) Cleanup(ctx context.Context) error {
	var errs []error
	for _, db := range []*sql.DB{r.readDB, r.db} {
		if db != nil {
			errs = append(errs, db.Close())
		}
	}
	return errors.Join(errs...)
}

// DB exposes the underlying connection for maintenance commands
func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}
