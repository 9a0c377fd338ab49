package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ledgerlift/backend/internal/prompt"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id                 TEXT PRIMARY KEY,
	source_name        TEXT NOT NULL,
	created_at         TEXT NOT NULL,
	model_tag          TEXT NOT NULL,
	prompt_id          TEXT NOT NULL,
	rows_json          TEXT NOT NULL,
	flags_json         TEXT NOT NULL,
	accuracy_confirmed INTEGER
);

CREATE TABLE IF NOT EXISTS feedback (
	id             TEXT PRIMARY KEY,
	run_id         TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	submitted_at   TEXT NOT NULL,
	corrected_json TEXT NOT NULL,
	analysis_json  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_feedback_run ON feedback(run_id);

CREATE TABLE IF NOT EXISTS prompts (
	issuer_tag TEXT PRIMARY KEY,
	id         TEXT NOT NULL,
	text       TEXT NOT NULL,
	version    INTEGER NOT NULL,
	is_active  INTEGER NOT NULL,
	is_default INTEGER NOT NULL
);
`

// SQLiteStore is the durable Store backed by a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and applies the
// schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// The driver serializes writes itself; one connection avoids
	// SQLITE_BUSY under concurrent uploads.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) CreateRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		return fmt.Errorf("run ID is required")
	}
	rowsJSON, err := json.Marshal(run.Rows)
	if err != nil {
		return fmt.Errorf("marshal rows: %w", err)
	}
	flagsJSON, err := json.Marshal(run.Flags)
	if err != nil {
		return fmt.Errorf("marshal flags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, source_name, created_at, model_tag, prompt_id, rows_json, flags_json, accuracy_confirmed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.SourceName, run.CreatedAt.UTC().Format(time.RFC3339Nano),
		run.ModelTag, run.PromptID, string(rowsJSON), string(flagsJSON),
		boolToNullInt(run.AccuracyConfirmed),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	var (
		run       Run
		createdAt string
		rowsJSON  string
		flagsJSON string
		confirmed sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, source_name, created_at, model_tag, prompt_id, rows_json, flags_json, accuracy_confirmed
		FROM runs WHERE id = ?`, runID).Scan(
		&run.ID, &run.SourceName, &createdAt, &run.ModelTag, &run.PromptID,
		&rowsJSON, &flagsJSON, &confirmed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}

	if run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if err := json.Unmarshal([]byte(rowsJSON), &run.Rows); err != nil {
		return nil, fmt.Errorf("unmarshal rows: %w", err)
	}
	if err := json.Unmarshal([]byte(flagsJSON), &run.Flags); err != nil {
		return nil, fmt.Errorf("unmarshal flags: %w", err)
	}
	if confirmed.Valid {
		v := confirmed.Int64 != 0
		run.AccuracyConfirmed = &v
	}
	return &run, nil
}

func (s *SQLiteStore) ConfirmAccuracy(ctx context.Context, runID string, isAccurate bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET accuracy_confirmed = ? WHERE id = ?`,
		boolToInt(isAccurate), runID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}

func (s *SQLiteStore) SubmitFeedback(ctx context.Context, fb *Feedback) error {
	correctedJSON, err := json.Marshal(fb.CorrectedRows)
	if err != nil {
		return fmt.Errorf("marshal corrected rows: %w", err)
	}
	analysisJSON, err := json.Marshal(fb.Analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, fb.RunID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRunNotFound
	}
	if err != nil {
		return fmt.Errorf("check run: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO feedback (id, run_id, submitted_at, corrected_json, analysis_json)
		VALUES (?, ?, ?, ?, ?)`,
		fb.ID, fb.RunID, fb.SubmittedAt.UTC().Format(time.RFC3339Nano),
		string(correctedJSON), string(analysisJSON),
	)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListFeedback(ctx context.Context, runID string) ([]*Feedback, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, submitted_at, corrected_json, analysis_json
		FROM feedback WHERE run_id = ? ORDER BY submitted_at`, runID)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer rows.Close()

	var out []*Feedback
	for rows.Next() {
		var (
			fb            Feedback
			submittedAt   string
			correctedJSON string
			analysisJSON  string
		)
		if err := rows.Scan(&fb.ID, &fb.RunID, &submittedAt, &correctedJSON, &analysisJSON); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		if fb.SubmittedAt, err = time.Parse(time.RFC3339Nano, submittedAt); err != nil {
			return nil, fmt.Errorf("parse submitted_at: %w", err)
		}
		if err := json.Unmarshal([]byte(correctedJSON), &fb.CorrectedRows); err != nil {
			return nil, fmt.Errorf("unmarshal corrected rows: %w", err)
		}
		if err := json.Unmarshal([]byte(analysisJSON), &fb.Analysis); err != nil {
			return nil, fmt.Errorf("unmarshal analysis: %w", err)
		}
		out = append(out, &fb)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ActivePrompt(ctx context.Context, issuerTag string) (*prompt.Prompt, error) {
	var (
		p         prompt.Prompt
		isActive  int
		isDefault int
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, issuer_tag, text, version, is_active, is_default
		FROM prompts WHERE issuer_tag = ?`, issuerTag).Scan(
		&p.ID, &p.IssuerTag, &p.Text, &p.Version, &isActive, &isDefault,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query prompt: %w", err)
	}
	if isActive == 0 {
		return nil, nil
	}
	p.IsActive = true
	p.IsDefault = isDefault != 0
	return &p, nil
}

func (s *SQLiteStore) SavePrompt(ctx context.Context, p *prompt.Prompt) error {
	if p.ID == "" {
		return fmt.Errorf("prompt ID is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO prompts (issuer_tag, id, text, version, is_active, is_default)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(issuer_tag) DO UPDATE SET
			id = excluded.id,
			text = excluded.text,
			version = excluded.version,
			is_active = excluded.is_active,
			is_default = excluded.is_default`,
		p.IssuerTag, p.ID, p.Text, p.Version, boolToInt(p.IsActive), boolToInt(p.IsDefault),
	)
	if err != nil {
		return fmt.Errorf("save prompt: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func boolToNullInt(b *bool) any {
	if b == nil {
		return nil
	}
	return boolToInt(*b)
}
