// Package store persists periodic session snapshots in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/teslashibe/go-eyeguard/pkg/pipeline"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("store: closed")

// DefaultLimit caps Recent when the caller passes no limit.
const DefaultLimit = 100

// MaxLimit is the largest page Recent returns.
const MaxLimit = 1000

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id        TEXT    NOT NULL,
	at_ns             INTEGER NOT NULL,
	blink_rate        INTEGER NOT NULL,
	blinks            INTEGER NOT NULL,
	incomplete_blinks INTEGER NOT NULL,
	mean_redness      REAL    NOT NULL,
	posture_score     INTEGER NOT NULL,
	distance_cm       REAL    NOT NULL,
	brightness        REAL    NOT NULL,
	risk_score        REAL    NOT NULL,
	risk_level        TEXT    NOT NULL,
	strain_index      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS snapshots_at ON snapshots (at_ns);
`

// Snapshot is one persisted summary row.
type Snapshot struct {
	SessionID        string    `json:"session_id"`
	At               time.Time `json:"at"`
	BlinkRate        int       `json:"blink_rate"`
	Blinks           int       `json:"blinks"`
	IncompleteBlinks int       `json:"incomplete_blinks"`
	MeanRedness      float64   `json:"mean_redness"`
	PostureScore     int       `json:"posture_score"`
	DistanceCM       float64   `json:"distance_cm"`
	Brightness       float64   `json:"brightness"`
	RiskScore        float64   `json:"risk_score"`
	RiskLevel        string    `json:"risk_level"`
	StrainIndex      int       `json:"strain_index"`
}

// FromMetrics builds a snapshot from the latest record and the session's
// mean redness.
func FromMetrics(m pipeline.Metrics, meanRedness float64) Snapshot {
	return Snapshot{
		SessionID:        m.SessionID,
		At:               m.Timestamp,
		BlinkRate:        m.BlinkRate,
		Blinks:           m.Blinks,
		IncompleteBlinks: m.IncompleteBlinks,
		MeanRedness:      meanRedness,
		PostureScore:     m.PostureScore,
		DistanceCM:       m.DistanceCM,
		Brightness:       m.Brightness,
		RiskScore:        m.RiskScore,
		RiskLevel:        string(m.RiskLevel),
		StrainIndex:      m.StrainIndex,
	}
}

// Store is a SQLite-backed snapshot log.
type Store struct {
	db     *sql.DB
	closed atomic.Bool
}

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: configure: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record appends a snapshot.
func (s *Store) Record(ctx context.Context, snap Snapshot) error {
	if s.closed.Load() {
		return ErrClosed
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (
			session_id, at_ns, blink_rate, blinks, incomplete_blinks, mean_redness,
			posture_score, distance_cm, brightness, risk_score, risk_level, strain_index
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.SessionID, snap.At.UnixNano(), snap.BlinkRate, snap.Blinks, snap.IncompleteBlinks,
		snap.MeanRedness, snap.PostureScore, snap.DistanceCM, snap.Brightness, snap.RiskScore,
		snap.RiskLevel, snap.StrainIndex,
	)
	if err != nil {
		return fmt.Errorf("store: insert snapshot: %w", err)
	}
	return nil
}

// Recent returns up to limit snapshots, newest first. limit <= 0 means
// DefaultLimit; larger than MaxLimit is capped.
func (s *Store) Recent(ctx context.Context, limit int) ([]Snapshot, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, at_ns, blink_rate, blinks, incomplete_blinks, mean_redness,
		       posture_score, distance_cm, brightness, risk_score, risk_level, strain_index
		FROM snapshots
		ORDER BY at_ns DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: query snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]Snapshot, 0, limit)
	for rows.Next() {
		var (
			snap Snapshot
			atNS int64
		)
		if err := rows.Scan(
			&snap.SessionID, &atNS, &snap.BlinkRate, &snap.Blinks, &snap.IncompleteBlinks,
			&snap.MeanRedness, &snap.PostureScore, &snap.DistanceCM, &snap.Brightness,
			&snap.RiskScore, &snap.RiskLevel, &snap.StrainIndex,
		); err != nil {
			return nil, fmt.Errorf("store: scan snapshot: %w", err)
		}
		snap.At = time.Unix(0, atNS)
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Count returns the number of stored snapshots.
func (s *Store) Count(ctx context.Context) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM snapshots").Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}
