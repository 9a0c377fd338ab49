package extraction

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerlift/backend/internal/ledger"
	"github.com/ledgerlift/backend/internal/pdfsplit"
	"github.com/ledgerlift/backend/internal/prompt"
	"github.com/ledgerlift/backend/internal/store"
)

// PipelineConfig carries the orchestration knobs. Zero values pick the
// defaults.
type PipelineConfig struct {
	ModelTag           string
	MaxConcurrentPages int           // worker-pool bound, default 4
	PipelineTimeout    time.Duration // whole-upload deadline, default 5m
}

func (c PipelineConfig) withDefaults() PipelineConfig {
	if c.ModelTag == "" {
		c.ModelTag = "gemini-2.0-flash"
	}
	if c.MaxConcurrentPages <= 0 {
		c.MaxConcurrentPages = 4
	}
	if c.PipelineTimeout <= 0 {
		c.PipelineTimeout = 5 * time.Minute
	}
	return c
}

// Pipeline runs one upload end to end: split, classify, fan out extraction
// per page, merge, normalize, reconcile, persist.
type Pipeline struct {
	completer TextCompleter
	extractor *Extractor
	store     store.Store
	cfg       PipelineConfig
}

func NewPipeline(completer TextCompleter, st store.Store, cfg PipelineConfig) *Pipeline {
	return &Pipeline{
		completer: completer,
		extractor: NewExtractor(completer),
		store:     st,
		cfg:       cfg.withDefaults(),
	}
}

// Result is what the upload handler needs back: the reconciled rows plus
// provenance. RunID is empty when persistence failed; the rows and the
// artifact are still good.
type Result struct {
	RunID       string
	Rows        []ledger.Row
	Flags       []ledger.RowFlag
	Issuer      string
	PromptID    string
	PagesTotal  int
	PagesFailed int
}

// pageJob is one unit of fan-out work.
type pageJob struct {
	index int // 0-based page index
	text  string
}

// pageResult is one worker's output for a page.
type pageResult struct {
	rows     []ledger.RawRow
	promptID string
	failed   bool
}

// Process runs the full pipeline for one uploaded document.
func (p *Pipeline) Process(ctx context.Context, sourceName string, data []byte) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.PipelineTimeout)
	defer cancel()

	pages, err := pdfsplit.Split(data)
	if err != nil {
		return nil, &PipelineError{
			Code:    ErrMalformedSource,
			Message: fmt.Sprintf("cannot parse %s", sourceName),
			Cause:   err,
		}
	}

	jobs := make([]pageJob, 0, len(pages))
	for i, text := range pages {
		if text == "" {
			continue
		}
		jobs = append(jobs, pageJob{index: i, text: text})
	}
	if len(jobs) == 0 {
		return nil, &PipelineError{
			Code:    ErrNoTextExtracted,
			Message: "document contains no extractable text",
		}
	}

	issuer := ClassifyIssuer(ctx, p.completer, pages[0])
	if issuer != "" {
		log.Printf("[pipeline] classified issuer as %s", issuer)
	}

	resolver := prompt.NewResolver(p.store)

	raws, promptID, pagesFailed, err := p.fanOut(ctx, resolver, issuer, jobs)
	if err != nil {
		return nil, err
	}

	rows := ledger.Reconcile(ledger.Normalize(raws))
	if len(rows) == 0 {
		return nil, &PipelineError{
			Code:    ErrNoTransactionsExtracted,
			Message: "no transactions could be extracted from the document",
		}
	}
	flags := ledger.CollectFlags(rows)

	result := &Result{
		Rows:        rows,
		Flags:       flags,
		Issuer:      issuer,
		PromptID:    promptID,
		PagesTotal:  len(pages),
		PagesFailed: pagesFailed,
	}

	run := &store.Run{
		ID:         uuid.NewString(),
		SourceName: sourceName,
		CreatedAt:  time.Now(),
		ModelTag:   p.cfg.ModelTag,
		PromptID:   promptID,
		Rows:       rows,
		Flags:      flags,
	}
	if err := p.store.CreateRun(ctx, run); err != nil {
		// Persistence failure never costs the user their extraction.
		log.Printf("[pipeline] %v", &PipelineError{
			Code:    ErrRunPersistenceFailed,
			Message: fmt.Sprintf("persist run for %s", sourceName),
			Cause:   err,
		})
	} else {
		result.RunID = run.ID
	}

	return result, nil
}

// fanOut extracts all non-empty pages through a bounded worker pool and
// merges the results in page order. Page-local failures are counted and
// skipped; a missing prompt configuration aborts the whole run.
func (p *Pipeline) fanOut(ctx context.Context, resolver *prompt.Resolver, issuer string, jobs []pageJob) ([]ledger.RawRow, string, int, error) {
	workers := p.cfg.MaxConcurrentPages
	if len(jobs) < workers {
		workers = len(jobs)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		fatalMu  sync.Mutex
		fatalErr error
	)
	setFatal := func(err error) {
		fatalMu.Lock()
		if fatalErr == nil {
			fatalErr = err
			cancel()
		}
		fatalMu.Unlock()
	}

	jobCh := make(chan pageJob)
	results := make([]pageResult, len(jobs))
	jobSlot := make(map[int]int, len(jobs)) // page index -> result slot
	for slot, j := range jobs {
		jobSlot[j.index] = slot
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				slot := jobSlot[job.index]
				results[slot] = p.extractPage(ctx, resolver, issuer, job, setFatal)
			}
		}()
	}

	for _, job := range jobs {
		select {
		case jobCh <- job:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobCh)
	wg.Wait()

	fatalMu.Lock()
	ferr := fatalErr
	fatalMu.Unlock()
	if ferr != nil {
		return nil, "", 0, ferr
	}
	if err := ctx.Err(); err != nil {
		return nil, "", 0, err
	}

	var (
		merged   []ledger.RawRow
		promptID string
		failed   int
	)
	for _, res := range results {
		if res.failed {
			failed++
			continue
		}
		if promptID == "" {
			promptID = res.promptID
		}
		merged = append(merged, res.rows...)
	}
	return merged, promptID, failed, nil
}

func (p *Pipeline) extractPage(ctx context.Context, resolver *prompt.Resolver, issuer string, job pageJob, setFatal func(error)) (res pageResult) {
	page := job.index + 1

	pr, err := resolver.Resolve(ctx, issuer)
	if err != nil {
		if errors.Is(err, prompt.ErrNoPromptConfigured) {
			setFatal(&PipelineError{
				Code:    ErrNoPromptConfigured,
				Message: "no active extraction prompt; seed the default slot",
				Cause:   err,
			})
			res.failed = true
			return res
		}
		log.Printf("[pipeline] page %d: prompt resolution failed: %v", page, err)
		res.failed = true
		return res
	}

	rows, err := p.extractor.ExtractPage(ctx, prompt.Expand(pr.Text, job.text), page)
	if err != nil {
		var perr *PipelineError
		if errors.As(err, &perr) && !perr.IsPageLocal() {
			setFatal(perr)
			res.failed = true
			return res
		}
		log.Printf("[pipeline] page %d: extraction failed: %v", page, err)
		res.failed = true
		return res
	}

	res.rows = rows
	res.promptID = pr.ID
	return res
}
