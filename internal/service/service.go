// Package service exposes the ingestion pipeline over HTTP: statement
// upload, accuracy confirmation, correction feedback, CSV artifact download
// and run retrieval.
package service

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ledgerlift/backend/internal/artifact"
	"github.com/ledgerlift/backend/internal/extraction"
	"github.com/ledgerlift/backend/internal/store"
)

// MaxUploadBytes caps the multipart statement upload at 25 MiB.
const MaxUploadBytes = 25 << 20

// previewRows is how many transactions the upload response inlines in its
// preview list.
const previewRows = 5

// LedgerService holds the handler dependencies.
type LedgerService struct {
	pipeline  *extraction.Pipeline
	store     store.Store
	artifacts *artifact.Store
}

func NewLedgerService(pipeline *extraction.Pipeline, st store.Store, artifacts *artifact.Store) *LedgerService {
	return &LedgerService{
		pipeline:  pipeline,
		store:     st,
		artifacts: artifacts,
	}
}

// Routes returns the service mux.
func (s *LedgerService) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/statements", s.handleUpload)
	mux.HandleFunc("POST /api/confirm-accuracy", s.handleConfirmAccuracy)
	mux.HandleFunc("POST /api/feedback", s.handleFeedback)
	mux.HandleFunc("GET /download/{id}", s.handleDownload)
	mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[service] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

// writePipelineError maps pipeline failures onto HTTP statuses.
func writePipelineError(w http.ResponseWriter, err error) {
	var perr *extraction.PipelineError
	if !errors.As(err, &perr) {
		writeError(w, http.StatusInternalServerError, "", "statement processing failed")
		return
	}

	switch perr.Code {
	case extraction.ErrMalformedSource:
		writeError(w, http.StatusBadRequest, string(perr.Code), "the uploaded file is not a readable PDF")
	case extraction.ErrNoTextExtracted:
		writeError(w, http.StatusUnprocessableEntity, string(perr.Code), "no text could be extracted from the document")
	case extraction.ErrNoTransactionsExtracted:
		writeError(w, http.StatusUnprocessableEntity, string(perr.Code), "no transactions could be extracted from the document")
	case extraction.ErrNoPromptConfigured:
		writeError(w, http.StatusInternalServerError, string(perr.Code), "extraction prompts are not configured")
	default:
		writeError(w, http.StatusInternalServerError, string(perr.Code), "statement processing failed")
	}
}
