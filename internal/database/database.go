// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

// Package database wraps the SQLite store shared by every pipeline
// action: document fingerprints, the catalog, corpus term weights, the
// similarity matrix, and the externally produced text chunks.
//
// The store is opened in WAL mode with synchronous writes disabled;
// the pipeline favors bulk throughput and treats the store as
// rebuildable from its inputs. Readers may run concurrently with the
// single writer. TEMP-table work is connection-scoped, so callers that
// stage token sets acquire a Session (a pinned connection) first.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tomtom215/lexicographus/internal/logging"
)

// DB wraps the SQLite connection pool and provides data access methods.
type DB struct {
	conn *sql.DB
	path string
}

// New opens (creating if necessary) the store at path and initializes
// the schema. The parent directory is created when missing.
func New(path string) (*DB, error) {
	// Use 0750 permissions (owner: rwx, group: rx, other: none) per gosec G301
	dbDir := filepath.Dir(path)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
		}
	}

	// WAL lets similarity producers read while the writer commits.
	// Synchronous OFF trades durability for bulk-load speed; the store
	// is derived data and can be rebuilt from the token JSON inputs.
	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=OFF&_busy_timeout=5000", path)

	conn, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn: conn,
		path: path,
	}

	db.configureConnectionPool()

	if err := db.initialize(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return db, nil
}

// configureConnectionPool sets connection pool parameters.
// The similarity builder pins one connection per producer plus one for
// the writer, so the pool must exceed the hardware parallelism.
func (db *DB) configureConnectionPool() {
	db.conn.SetMaxOpenConns(runtime.NumCPU() + 4)
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// initialize creates tables and indexes
func (db *DB) initialize() error {
	if err := db.createTables(); err != nil {
		return err
	}
	return db.createIndexes()
}

// Close checkpoints the WAL and closes the connection pool. The
// checkpoint is best effort; with synchronous writes disabled the WAL
// may otherwise carry the whole session.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
	}

	return db.conn.Close()
}

// Checkpoint flushes the WAL into the main database file.
func (db *DB) Checkpoint(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE);")
	return err
}

// Ping checks if the database connection is alive
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// Path returns the store file path.
func (db *DB) Path() string {
	return db.path
}

// Conn returns the underlying SQL database connection pool. Used by
// the extraction glue, which owns its own statements.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Session pins a single connection and prepares it for session-scoped
// work: TEMP tables live on it, and temporary storage is kept in
// memory. Callers must Close the session to return the connection to
// the pool.
func (db *DB) Session(ctx context.Context) (*Session, error) {
	conn, err := db.conn.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	if _, err := conn.ExecContext(ctx, "PRAGMA temp_store = MEMORY;"); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to set temp_store: %w", err)
	}

	return &Session{conn: conn}, nil
}
