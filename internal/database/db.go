package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB represents the database connection with pooling
type DB struct {
	*sql.DB
	pool     *ConnectionPool
	prepared map[string]*sql.Stmt
	mutex    sync.RWMutex
}

// ConnectionPool manages database connection pooling
type ConnectionPool struct {
	db           *sql.DB
	maxOpenConns int
	maxIdleConns int
	maxLifetime  time.Duration
}

// NewConnectionPool creates a new database connection pool
func NewConnectionPool(db *sql.DB, maxOpen, maxIdle int, maxLifetime time.Duration) *ConnectionPool {
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)

	return &ConnectionPool{
		db:           db,
		maxOpenConns: maxOpen,
		maxIdleConns: maxIdle,
		maxLifetime:  maxLifetime,
	}
}

// GetStats returns connection pool statistics
func (cp *ConnectionPool) GetStats() map[string]interface{} {
	stats := cp.db.Stats()

	return map[string]interface{}{
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"max_open_connections": cp.maxOpenConns,
		"max_idle_connections": cp.maxIdleConns,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}
}

// NewDB creates a new database connection with pooling and migrations applied.
func NewDB(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "checkin.db")

	connStr := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pool := NewConnectionPool(db, 25, 5, 5*time.Minute)

	database := &DB{
		DB:       db,
		pool:     pool,
		prepared: make(map[string]*sql.Stmt),
	}

	if err := database.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := database.initPreparedStatements(); err != nil {
		return nil, fmt.Errorf("failed to initialize prepared statements: %w", err)
	}

	slog.Info("Database initialized with connection pooling",
		"max_open_conns", pool.maxOpenConns,
		"max_idle_conns", pool.maxIdleConns,
		"max_lifetime", pool.maxLifetime)

	return database, nil
}

// migrate creates the necessary tables
func (db *DB) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS coaches (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT,
			is_paid BOOLEAN DEFAULT FALSE,
			stripe_customer_id TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS clients (
			id TEXT PRIMARY KEY,
			coach_id TEXT NOT NULL,
			name TEXT NOT NULL,
			email TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (coach_id) REFERENCES coaches(id)
		)`,

		`CREATE TABLE IF NOT EXISTS checkin_forms (
			id TEXT PRIMARY KEY,
			coach_id TEXT NOT NULL,
			title TEXT NOT NULL,
			questions TEXT NOT NULL, -- JSON array of question definitions
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (coach_id) REFERENCES coaches(id)
		)`,

		`CREATE TABLE IF NOT EXISTS checkin_records (
			id TEXT PRIMARY KEY,
			client_id TEXT NOT NULL,
			form_id TEXT NOT NULL,
			assignment_id TEXT,
			score INTEGER NOT NULL,
			total_questions INTEGER NOT NULL,
			answered_questions INTEGER NOT NULL,
			responses TEXT NOT NULL, -- JSON array of annotated responses
			submitted_at DATETIME NOT NULL,
			FOREIGN KEY (client_id) REFERENCES clients(id),
			FOREIGN KEY (form_id) REFERENCES checkin_forms(id)
		)`,

		`CREATE TABLE IF NOT EXISTS measurements (
			id TEXT PRIMARY KEY,
			client_id TEXT NOT NULL,
			metric TEXT NOT NULL,
			value REAL NOT NULL,
			recorded_at DATETIME NOT NULL,
			FOREIGN KEY (client_id) REFERENCES clients(id)
		)`,

		`CREATE TABLE IF NOT EXISTS payments (
			id TEXT PRIMARY KEY,
			coach_id TEXT NOT NULL,
			stripe_payment_id TEXT NOT NULL,
			amount INTEGER NOT NULL,
			currency TEXT NOT NULL,
			status TEXT NOT NULL,
			type TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (coach_id) REFERENCES coaches(id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_checkin_records_client
			ON checkin_records(client_id, submitted_at)`,

		`CREATE INDEX IF NOT EXISTS idx_measurements_client_metric
			ON measurements(client_id, metric, recorded_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// initPreparedStatements prepares the hot-path queries once.
func (db *DB) initPreparedStatements() error {
	statements := map[string]string{
		"get_client": `
			SELECT id, coach_id, name, email, created_at, updated_at
			FROM clients WHERE id = ?`,
		"list_submissions": `
			SELECT id, client_id, form_id, assignment_id, score,
			       total_questions, answered_questions, responses, submitted_at
			FROM checkin_records
			WHERE client_id = ?
			ORDER BY submitted_at ASC`,
		"list_scores": `
			SELECT score FROM checkin_records
			WHERE client_id = ?
			ORDER BY submitted_at ASC`,
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()

	for name, query := range statements {
		stmt, err := db.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare %s: %w", name, err)
		}
		db.prepared[name] = stmt
	}

	return nil
}

// stmt returns a prepared statement by name.
func (db *DB) stmt(name string) *sql.Stmt {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return db.prepared[name]
}

// Close closes prepared statements and the underlying handle.
func (db *DB) Close() error {
	db.mutex.Lock()
	for _, stmt := range db.prepared {
		stmt.Close()
	}
	db.prepared = make(map[string]*sql.Stmt)
	db.mutex.Unlock()

	return db.DB.Close()
}
