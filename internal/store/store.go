// Package store is an append-only SQLite audit ledger of verification runs
// and plan-revision transitions. `g3 plan history` queries the plan
// transitions; no g3 command records or queries verification runs.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Store wraps the audit ledger's SQLite connection.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open creates and initializes the SQLite audit ledger at dbPath, enabling
// WAL mode for concurrent readers the way history.Initialize does.
func Open(dbPath string, logger *zap.Logger) (*Store, error) {
	logger.Info("opening audit ledger", zap.String("path", dbPath))

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		logger.Warn("store: failed to enable WAL mode", zap.Error(err))
	}

	return s, nil
}

func (s *Store) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS verification_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		plan_id TEXT,
		created_at TIMESTAMP NOT NULL,
		passed_count INTEGER NOT NULL,
		failed_count INTEGER NOT NULL,
		stamped INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_verification_runs_session ON verification_runs(session_id);

	CREATE TABLE IF NOT EXISTS plan_transitions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		plan_id TEXT NOT NULL,
		revision INTEGER NOT NULL,
		approved INTEGER NOT NULL,
		terminal INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_plan_transitions_plan ON plan_transitions(plan_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordVerificationRun appends one verification result to the ledger.
func (s *Store) RecordVerificationRun(sessionID, planID string, passed, failed int, stamped bool) error {
	_, err := s.db.Exec(
		`INSERT INTO verification_runs (session_id, plan_id, created_at, passed_count, failed_count, stamped)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, planID, time.Now().UTC(), passed, failed, boolToInt(stamped),
	)
	return err
}

// RecordPlanTransition appends one plan-write/approve event to the ledger.
func (s *Store) RecordPlanTransition(planID string, revision uint32, approved, terminal bool) error {
	_, err := s.db.Exec(
		`INSERT INTO plan_transitions (plan_id, revision, approved, terminal, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		planID, revision, boolToInt(approved), boolToInt(terminal), time.Now().UTC(),
	)
	return err
}

// VerificationRun is one row of the verification_runs table.
type VerificationRun struct {
	SessionID string
	PlanID    string
	CreatedAt time.Time
	Passed    int
	Failed    int
	Stamped   bool
}

// VerificationHistory returns every verification run recorded for sessionID,
// most recent first.
func (s *Store) VerificationHistory(sessionID string) ([]VerificationRun, error) {
	rows, err := s.db.Query(
		`SELECT session_id, plan_id, created_at, passed_count, failed_count, stamped
		 FROM verification_runs WHERE session_id = ? ORDER BY created_at DESC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: query verification history: %w", err)
	}
	defer rows.Close()

	var out []VerificationRun
	for rows.Next() {
		var r VerificationRun
		var planID sql.NullString
		var stamped int
		if err := rows.Scan(&r.SessionID, &planID, &r.CreatedAt, &r.Passed, &r.Failed, &stamped); err != nil {
			return nil, fmt.Errorf("store: scan verification history row: %w", err)
		}
		r.PlanID = planID.String
		r.Stamped = stamped != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// PlanTransition is one row of the plan_transitions table.
type PlanTransition struct {
	PlanID    string
	Revision  uint32
	Approved  bool
	Terminal  bool
	CreatedAt time.Time
}

// PlanHistory returns every recorded transition for planID, most recent first.
func (s *Store) PlanHistory(planID string) ([]PlanTransition, error) {
	rows, err := s.db.Query(
		`SELECT plan_id, revision, approved, terminal, created_at
		 FROM plan_transitions WHERE plan_id = ? ORDER BY created_at DESC`,
		planID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: query plan history: %w", err)
	}
	defer rows.Close()

	var out []PlanTransition
	for rows.Next() {
		var t PlanTransition
		var approved, terminal int
		if err := rows.Scan(&t.PlanID, &t.Revision, &approved, &terminal, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan plan history row: %w", err)
		}
		t.Approved = approved != 0
		t.Terminal = terminal != 0
		out = append(out, t)
	}
	return out, rows.Err()
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
