// Package prompt resolves and expands the extraction prompts the pipeline
// sends to the completion service. Prompts live in the backing store keyed
// by issuer tag; the empty tag is the default slot every run can fall back
// to.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// TextMarker is the substitution point for page text inside a prompt
// template. Every occurrence is replaced; no other interpolation happens.
const TextMarker = "${textContent}"

// ErrNoPromptConfigured means neither an issuer-specific nor a default
// active prompt exists. The engine fails closed on it.
var ErrNoPromptConfigured = errors.New("no active extraction prompt configured")

// Prompt is one stored prompt template.
type Prompt struct {
	ID        string `json:"id"`
	IssuerTag string `json:"issuer_tag"` // empty for the default slot
	Text      string `json:"text"`
	Version   int    `json:"version"`
	IsActive  bool   `json:"is_active"`
	IsDefault bool   `json:"is_default"`
}

// Source is the read surface the resolver needs. The run store implements
// it. A nil prompt with a nil error means the slot is empty.
type Source interface {
	ActivePrompt(ctx context.Context, issuerTag string) (*Prompt, error)
}

// Resolver looks up the active prompt for an issuer, falling back to the
// default slot. It caches lookups, so one resolver instance should live for
// at most one run: prompt edits land on the next upload.
type Resolver struct {
	src Source

	mu    sync.Mutex
	cache map[string]*Prompt
}

func NewResolver(src Source) *Resolver {
	return &Resolver{
		src:   src,
		cache: make(map[string]*Prompt),
	}
}

// Resolve returns the active prompt for issuerTag, or the active default if
// the issuer slot is empty. An empty issuerTag goes straight to the default
// slot.
func (r *Resolver) Resolve(ctx context.Context, issuerTag string) (*Prompt, error) {
	if issuerTag != "" {
		p, err := r.lookup(ctx, issuerTag)
		if err != nil {
			return nil, err
		}
		if p != nil {
			return p, nil
		}
	}

	p, err := r.lookup(ctx, "")
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNoPromptConfigured
	}
	return p, nil
}

func (r *Resolver) lookup(ctx context.Context, issuerTag string) (*Prompt, error) {
	r.mu.Lock()
	if p, ok := r.cache[issuerTag]; ok {
		r.mu.Unlock()
		return p, nil
	}
	r.mu.Unlock()

	p, err := r.src.ActivePrompt(ctx, issuerTag)
	if err != nil {
		return nil, fmt.Errorf("load prompt for slot %q: %w", issuerTag, err)
	}

	r.mu.Lock()
	r.cache[issuerTag] = p // empty slots are cached too
	r.mu.Unlock()
	return p, nil
}

// Expand substitutes every text marker in the template with the page text.
func Expand(template, pageText string) string {
	return strings.ReplaceAll(template, TextMarker, pageText)
}
