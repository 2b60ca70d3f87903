package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jamesyinbaare/rmps-sub002/internal/identifier"
	"github.com/jamesyinbaare/rmps-sub002/internal/version"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// extractHandler runs the extraction pipeline over an uploaded scan.
// Expects a multipart form with an "image" file plus "document_id" and
// "exam_id" fields.
func (s *Server) extractHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024)
	if err := r.ParseMultipartForm(s.maxUploadMB * 1024 * 1024); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse form data", "")
		return
	}

	documentID, err := uuid.Parse(r.FormValue("document_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid document_id", "")
		return
	}
	examID, err := uuid.Parse(r.FormValue("exam_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid exam_id", "")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no image file provided", "")
		return
	}
	defer func() { _ = file.Close() }()

	imageBytes, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read image", "")
		return
	}

	ctx, cancel := contextWithTimeout(r, s.timeout)
	defer cancel()

	start := time.Now()
	result, err := s.extractor.ExtractID(ctx, imageBytes, documentID, examID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}

	method := string(result.Method)
	if method == "" {
		method = "none"
	}
	outcome := "valid"
	if !result.IsValid {
		outcome = result.ErrorKind.String()
	}
	extractionsTotal.WithLabelValues(method, outcome).Inc()
	extractionDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	writeJSON(w, http.StatusOK, ExtractResponse{Success: true, Result: result})
}

// batchRunHandler processes all documents in a batch.
func (s *Server) batchRunHandler(w http.ResponseWriter, r *http.Request) {
	batchID, ok := batchIDFromPath(w, r)
	if !ok {
		return
	}

	summary, err := s.batches.Run(r.Context(), batchID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}

	batchRunsTotal.WithLabelValues(string(summary.Status)).Inc()
	batchDocumentsProcessed.WithLabelValues("processed").Add(float64(summary.Processed))
	batchDocumentsProcessed.WithLabelValues("failed").Add(float64(summary.Failed))

	writeJSON(w, http.StatusOK, summary)
}

// batchValidateHandler returns the consistency report for a batch.
func (s *Server) batchValidateHandler(w http.ResponseWriter, r *http.Request) {
	batchID, ok := batchIDFromPath(w, r)
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(r, s.timeout)
	defer cancel()

	report, err := s.batches.ValidateBatch(ctx, batchID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// generateHandler produces a canonical sheet ID for the print pipeline.
func (s *Server) generateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "")
		return
	}

	sheetID, err := identifier.Generate(req.SchoolCode, req.SubjectCode, req.Series, req.TestType, req.SheetNumber)
	if err != nil {
		var formatErr *identifier.FormatError
		if errors.As(err, &formatErr) {
			writeError(w, http.StatusUnprocessableEntity, formatErr.Message, formatErr.Reason.String())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}

	resp := GenerateResponse{SheetID: sheetID}
	if req.Candidates > 0 {
		resp.SheetCount = identifier.SheetCount(req.Candidates)
	}
	writeJSON(w, http.StatusOK, resp)
}

func batchIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return uuid.Nil, false
	}
	batchID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid batch id", "")
		return uuid.Nil, false
	}
	return batchID, true
}
