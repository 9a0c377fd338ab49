package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/ledgerlift/backend/internal/ledger"
	"github.com/ledgerlift/backend/internal/prompt"
)

// MemoryStore keeps everything in process memory. Runs and feedback vanish
// on restart; suitable for tests and single-node demo deployments.
type MemoryStore struct {
	mu       sync.RWMutex
	runs     map[string]*Run
	feedback map[string][]*Feedback       // keyed by run id
	prompts  map[string]*prompt.Prompt    // keyed by issuer tag, "" is default
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:     make(map[string]*Run),
		feedback: make(map[string][]*Feedback),
		prompts:  make(map[string]*prompt.Prompt),
	}
}

func (s *MemoryStore) CreateRun(_ context.Context, run *Run) error {
	if run.ID == "" {
		return fmt.Errorf("run ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.ID]; ok {
		return fmt.Errorf("run already exists: %s", run.ID)
	}
	s.runs[run.ID] = copyRun(run)
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, runID string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[runID]
	if !ok {
		return nil, ErrRunNotFound
	}
	return copyRun(run), nil
}

func (s *MemoryStore) ConfirmAccuracy(_ context.Context, runID string, isAccurate bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return ErrRunNotFound
	}
	v := isAccurate
	run.AccuracyConfirmed = &v
	return nil
}

func (s *MemoryStore) SubmitFeedback(_ context.Context, fb *Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[fb.RunID]; !ok {
		return ErrRunNotFound
	}
	cp := *fb
	cp.CorrectedRows = append([]ledger.Row(nil), fb.CorrectedRows...)
	s.feedback[fb.RunID] = append(s.feedback[fb.RunID], &cp)
	return nil
}

func (s *MemoryStore) ListFeedback(_ context.Context, runID string) ([]*Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.runs[runID]; !ok {
		return nil, ErrRunNotFound
	}
	return append([]*Feedback(nil), s.feedback[runID]...), nil
}

func (s *MemoryStore) ActivePrompt(_ context.Context, issuerTag string) (*prompt.Prompt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prompts[issuerTag]
	if !ok || !p.IsActive {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) SavePrompt(_ context.Context, p *prompt.Prompt) error {
	if p.ID == "" {
		return fmt.Errorf("prompt ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.prompts[p.IssuerTag] = &cp
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// copyRun shields stored state from caller mutation of row slices.
func copyRun(run *Run) *Run {
	cp := *run
	cp.Rows = append([]ledger.Row(nil), run.Rows...)
	cp.Flags = append([]ledger.RowFlag(nil), run.Flags...)
	if run.AccuracyConfirmed != nil {
		v := *run.AccuracyConfirmed
		cp.AccuracyConfirmed = &v
	}
	return &cp
}
