package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerlift/backend/internal/artifact"
	"github.com/ledgerlift/backend/internal/ledger"
	"github.com/ledgerlift/backend/internal/store"
)

// uploadResponse is the ingestion payload: a short preview plus the full
// reconciled ledger and the artifact handle.
type uploadResponse struct {
	Message           string       `json:"message"`
	Transactions      []ledger.Row `json:"transactions"`
	FullTransactions  []ledger.Row `json:"fullTransactions"`
	TotalTransactions int          `json:"totalTransactions"`
	DownloadID        string       `json:"downloadId"`
	RunID             *string      `json:"runId"`
}

func (s *LedgerService) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "", "upload exceeds the 25 MiB limit")
			return
		}
		writeError(w, http.StatusBadRequest, "", "multipart upload with a 'file' part is required")
		return
	}
	defer file.Close()

	if !isPDFUpload(header.Header.Get("Content-Type"), header.Filename) {
		writeError(w, http.StatusBadRequest, "", "only PDF statements are accepted")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "", "upload exceeds the 25 MiB limit")
			return
		}
		writeError(w, http.StatusBadRequest, "", "failed to read upload")
		return
	}

	result, err := s.pipeline.Process(r.Context(), header.Filename, data)
	if err != nil {
		log.Printf("[service] processing %s failed: %v", header.Filename, err)
		writePipelineError(w, err)
		return
	}

	csvBytes, err := ledger.WriteCSV(result.Rows)
	if err != nil {
		log.Printf("[service] render CSV for %s: %v", header.Filename, err)
		writeError(w, http.StatusInternalServerError, "", "failed to render CSV artifact")
		return
	}
	downloadID, err := s.artifacts.Save(csvBytes)
	if err != nil {
		log.Printf("[service] save artifact for %s: %v", header.Filename, err)
		writeError(w, http.StatusInternalServerError, "", "failed to store CSV artifact")
		return
	}

	log.Printf("[service] processed %s: %d rows from %d pages (%d failed), issuer=%q, run=%s",
		header.Filename, len(result.Rows), result.PagesTotal, result.PagesFailed,
		result.Issuer, result.RunID)

	preview := result.Rows
	if len(preview) > previewRows {
		preview = preview[:previewRows]
	}

	var runID *string
	if result.RunID != "" {
		runID = &result.RunID
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Message:           uploadMessage(result.PagesFailed),
		Transactions:      preview,
		FullTransactions:  result.Rows,
		TotalTransactions: len(result.Rows),
		DownloadID:        downloadID,
		RunID:             runID,
	})
}

func uploadMessage(pagesFailed int) string {
	if pagesFailed > 0 {
		return "Statement processed; some pages could not be extracted"
	}
	return "Statement processed successfully"
}

// isPDFUpload accepts an explicit PDF media type or a .pdf filename when
// the client sent a generic octet-stream type.
func isPDFUpload(contentType, filename string) bool {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	switch ct {
	case "application/pdf", "application/x-pdf":
		return true
	case "", "application/octet-stream":
		return strings.HasSuffix(strings.ToLower(filename), ".pdf")
	}
	return false
}

type confirmAccuracyRequest struct {
	RunID      string `json:"runId"`
	IsAccurate bool   `json:"isAccurate"`
}

func (s *LedgerService) handleConfirmAccuracy(w http.ResponseWriter, r *http.Request) {
	var req confirmAccuracyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RunID == "" {
		writeError(w, http.StatusBadRequest, "", "runId and isAccurate are required")
		return
	}

	if err := s.store.ConfirmAccuracy(r.Context(), req.RunID, req.IsAccurate); err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "", "run not found")
			return
		}
		log.Printf("[service] confirm accuracy for %s: %v", req.RunID, err)
		writeError(w, http.StatusInternalServerError, "", "failed to record confirmation")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "accuracy recorded"})
}

type feedbackRequest struct {
	RunID         string       `json:"runId"`
	CorrectedData []ledger.Row `json:"correctedData"`
}

type feedbackResponse struct {
	FeedbackID string              `json:"feedbackId"`
	Analysis   ledger.DiffAnalysis `json:"analysis"`
}

func (s *LedgerService) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RunID == "" {
		writeError(w, http.StatusBadRequest, "", "runId and correctedData are required")
		return
	}

	run, err := s.store.GetRun(r.Context(), req.RunID)
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "", "run not found")
			return
		}
		log.Printf("[service] load run %s: %v", req.RunID, err)
		writeError(w, http.StatusInternalServerError, "", "failed to load run")
		return
	}

	fb := &store.Feedback{
		ID:            uuid.NewString(),
		RunID:         run.ID,
		SubmittedAt:   time.Now(),
		CorrectedRows: req.CorrectedData,
		Analysis:      ledger.Diff(run.Rows, req.CorrectedData),
	}
	if err := s.store.SubmitFeedback(r.Context(), fb); err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "", "run not found")
			return
		}
		log.Printf("[service] store feedback for %s: %v", req.RunID, err)
		writeError(w, http.StatusInternalServerError, "", "failed to store feedback")
		return
	}

	writeJSON(w, http.StatusOK, feedbackResponse{
		FeedbackID: fb.ID,
		Analysis:   fb.Analysis,
	})
}

func (s *LedgerService) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	data, err := s.artifacts.Open(id)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			writeError(w, http.StatusNotFound, "", "artifact not found")
			return
		}
		log.Printf("[service] open artifact %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "", "failed to read artifact")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+id+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

type runResponse struct {
	Run      *store.Run        `json:"run"`
	Feedback []*store.Feedback `json:"feedback"`
}

func (s *LedgerService) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "", "run not found")
			return
		}
		log.Printf("[service] load run %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "", "failed to load run")
		return
	}

	fbs, err := s.store.ListFeedback(r.Context(), id)
	if err != nil {
		log.Printf("[service] list feedback for %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "", "failed to load feedback")
		return
	}

	writeJSON(w, http.StatusOK, runResponse{Run: run, Feedback: fbs})
}

func (s *LedgerService) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
