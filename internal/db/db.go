package db

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// Options tunes the connection pool shared by every request.
type Options struct {
	MaxOpenConns int
	MaxIdleConns int
}

// Connect opens a pooled postgres handle and verifies it with a ping.
func Connect(dsn string, opts Options) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
