package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the sql.DB handle so repositories share one connection pool.
type DB struct {
	*sql.DB
}

// NewConnection opens the SQLite database at the given path and verifies
// connectivity. SQLite allows a single writer, so the pool is kept small.
func NewConnection(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite", dbPath+"?_time_format=sqlite&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}
