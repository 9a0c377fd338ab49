// Package store persists processing runs, feedback submissions and prompt
// templates. Two implementations exist: an in-memory store for tests and
// ephemeral deployments, and a SQLite-backed store for durable ones.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ledgerlift/backend/internal/ledger"
	"github.com/ledgerlift/backend/internal/prompt"
)

// ErrRunNotFound is returned for any operation against an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// Run is one persisted ingestion: the reconciled rows plus provenance.
type Run struct {
	ID         string           `json:"id"`
	SourceName string           `json:"source_name"`
	CreatedAt  time.Time        `json:"created_at"`
	ModelTag   string           `json:"model_tag"`
	PromptID   string           `json:"prompt_id"`
	Rows       []ledger.Row     `json:"rows"`
	Flags      []ledger.RowFlag `json:"flags"`

	// AccuracyConfirmed is tri-state: nil until the user answers.
	AccuracyConfirmed *bool `json:"accuracy_confirmed"`
}

// Feedback is one immutable user correction of a run.
type Feedback struct {
	ID            string              `json:"id"`
	RunID         string              `json:"run_id"`
	SubmittedAt   time.Time           `json:"submitted_at"`
	CorrectedRows []ledger.Row        `json:"corrected_rows"`
	Analysis      ledger.DiffAnalysis `json:"analysis"`
}

// Store is the persistence surface used by the pipeline and the HTTP
// handlers. All methods are safe for concurrent use.
type Store interface {
	// Run operations
	CreateRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ConfirmAccuracy(ctx context.Context, runID string, isAccurate bool) error

	// Feedback operations
	SubmitFeedback(ctx context.Context, fb *Feedback) error
	ListFeedback(ctx context.Context, runID string) ([]*Feedback, error)

	// Prompt operations. ActivePrompt returns (nil, nil) for an empty slot.
	ActivePrompt(ctx context.Context, issuerTag string) (*prompt.Prompt, error)
	SavePrompt(ctx context.Context, p *prompt.Prompt) error

	Ping(ctx context.Context) error
	Close() error
}
