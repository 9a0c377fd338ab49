package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"

	"github.com/ledgerlift/backend/internal/ledger"
)

// Extractor runs the per-page transaction extraction: one prompt in, raw
// issuer-shaped rows out.
type Extractor struct {
	completer TextCompleter
	retry     RetryConfig
}

// NewExtractor wires an extractor around a completion backend.
func NewExtractor(completer TextCompleter) *Extractor {
	return &Extractor{
		completer: completer,
		retry:     DefaultLlmRetryConfig,
	}
}

// ExtractPage sends the fully expanded prompt for one page and parses the
// response into raw rows. Page numbers are 1-based and only used for error
// attribution.
func (e *Extractor) ExtractPage(ctx context.Context, prompt string, page int) ([]ledger.RawRow, error) {
	text, err := WithRetry(ctx, e.retry, func(ctx context.Context) (string, error) {
		return e.completer.Complete(ctx, prompt)
	})
	if err != nil {
		if perr, ok := err.(*PipelineError); ok {
			perr.Page = page
			return nil, perr
		}
		return nil, &PipelineError{
			Code:      ErrLlmTransport,
			Message:   "completion failed",
			Page:      page,
			Retryable: false,
			Cause:     err,
		}
	}

	rows, perr := ParseTransactions(text)
	if perr != nil {
		perr.Page = page
		return nil, perr
	}
	return rows, nil
}

// ParseTransactions turns model output text into raw rows. The model is
// asked for bare JSON but routinely wraps it in markdown fences or lets a
// trailing comma slip in, so parsing is tolerant: fences are stripped, and a
// strict-parse failure falls back to mechanical JSON repair before giving up.
//
// Accepted shapes are a top-level array of objects, or an object whose
// "transactions" key holds one.
func ParseTransactions(text string) ([]ledger.RawRow, *PipelineError) {
	cleaned := stripCodeFences(text)
	if cleaned == "" {
		return nil, &PipelineError{
			Code:    ErrLlmResponseUnparseable,
			Message: "empty completion text",
		}
	}

	var payload any
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		repaired, rerr := jsonrepair.RepairJSON(cleaned)
		if rerr != nil {
			return nil, &PipelineError{
				Code:    ErrLlmResponseUnparseable,
				Message: fmt.Sprintf("completion is not JSON: %s", truncate(cleaned, 120)),
				Cause:   err,
			}
		}
		log.Printf("[extractor] strict JSON parse failed, repaired response accepted")
		if err := json.Unmarshal([]byte(repaired), &payload); err != nil {
			return nil, &PipelineError{
				Code:    ErrLlmResponseUnparseable,
				Message: "repaired completion still not JSON",
				Cause:   err,
			}
		}
	}

	var elements []any
	switch v := payload.(type) {
	case []any:
		elements = v
	case map[string]any:
		inner, ok := v["transactions"].([]any)
		if !ok {
			return nil, &PipelineError{
				Code:    ErrLlmResponseShapeInvalid,
				Message: "object response lacks a transactions array",
			}
		}
		elements = inner
	default:
		return nil, &PipelineError{
			Code:    ErrLlmResponseShapeInvalid,
			Message: fmt.Sprintf("unexpected top-level JSON type %T", payload),
		}
	}

	rows := make([]ledger.RawRow, 0, len(elements))
	for i, el := range elements {
		obj, ok := el.(map[string]any)
		if !ok {
			return nil, &PipelineError{
				Code:    ErrLlmResponseShapeInvalid,
				Message: fmt.Sprintf("transaction %d is not an object", i),
			}
		}
		rows = append(rows, ledger.RawRow(obj))
	}
	return rows, nil
}

// stripCodeFences removes a surrounding markdown code block, if present.
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
