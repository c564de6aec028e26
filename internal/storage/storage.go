// Package storage provides SQLite-backed persistence for delivered alerts.
// Engine state stays in memory; the database only records what was sent,
// so status counters and recent-alert queries survive restarts.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"edgewatch/internal/models"
)

// Storage wraps a SQLite database for alert history.
type Storage struct {
	db        *sql.DB
	maxAlerts int
}

// AlertRecord is one persisted delivery.
type AlertRecord struct {
	ID         string
	Kind       models.AlertKind
	MarketID   string
	Question   string
	Message    string
	Domain     string
	Confidence float64
	CreatedAt  time.Time
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/edgewatch/data.db.
func New(maxAlerts int, dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "edgewatch", "data.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	s := &Storage{db: db, maxAlerts: maxAlerts}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS alerts (
			id          TEXT PRIMARY KEY,
			kind        TEXT NOT NULL,
			market_id   TEXT NOT NULL,
			question    TEXT NOT NULL,
			message     TEXT NOT NULL,
			domain      TEXT,
			confidence  REAL NOT NULL DEFAULT 0,
			created_at  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_created_at ON alerts(created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// RecordAlert persists one delivered alert and prunes history beyond the
// configured cap.
func (s *Storage) RecordAlert(alert *models.Alert) error {
	var domain string
	var confidence float64
	if alert.Edge != nil {
		domain = string(alert.Edge.Domain)
		confidence = alert.Edge.Confidence
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		INSERT INTO alerts (id, kind, market_id, question, message, domain, confidence, created_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		uuid.New().String(), string(alert.Kind), alert.Market.ID, alert.Market.Question,
		alert.Message, domain, confidence, alert.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	if s.maxAlerts > 0 {
		if _, err = tx.Exec(`
			DELETE FROM alerts WHERE id NOT IN (
				SELECT id FROM alerts ORDER BY created_at DESC LIMIT ?
			)`, s.maxAlerts); err != nil {
			return fmt.Errorf("failed to enforce alert cap: %w", err)
		}
	}

	return tx.Commit()
}

// CountSince returns how many alerts were recorded at or after t.
func (s *Storage) CountSince(t time.Time) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM alerts WHERE created_at >= ?`, t.UnixNano()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count alerts: %w", err)
	}
	return n, nil
}

// Recent returns the k most recently recorded alerts, newest first.
func (s *Storage) Recent(k int) ([]AlertRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, kind, market_id, question, message, domain, confidence, created_at
		FROM alerts ORDER BY created_at DESC LIMIT ?`, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var records []AlertRecord
	for rows.Next() {
		var r AlertRecord
		var kind string
		var createdAtNano int64
		if err := rows.Scan(&r.ID, &kind, &r.MarketID, &r.Question, &r.Message,
			&r.Domain, &r.Confidence, &createdAtNano); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		r.Kind = models.AlertKind(kind)
		r.CreatedAt = time.Unix(0, createdAtNano)
		records = append(records, r)
	}
	return records, rows.Err()
}
