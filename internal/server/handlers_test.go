package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesyinbaare/rmps-sub002/internal/batch"
	"github.com/jamesyinbaare/rmps-sub002/internal/config"
	"github.com/jamesyinbaare/rmps-sub002/internal/extraction"
)

type fakeExtractorService struct {
	result *extraction.Result
	err    error

	gotDocumentID uuid.UUID
	gotExamID     uuid.UUID
}

func (f *fakeExtractorService) ExtractID(_ context.Context, _ []byte, documentID, examID uuid.UUID) (*extraction.Result, error) {
	f.gotDocumentID = documentID
	f.gotExamID = examID
	return f.result, f.err
}

type fakeBatchRunner struct {
	summary *batch.Summary
	report  *batch.Report
	err     error

	gotBatchID uuid.UUID
}

func (f *fakeBatchRunner) Run(_ context.Context, batchID uuid.UUID) (*batch.Summary, error) {
	f.gotBatchID = batchID
	return f.summary, f.err
}

func (f *fakeBatchRunner) ValidateBatch(_ context.Context, batchID uuid.UUID) (*batch.Report, error) {
	f.gotBatchID = batchID
	return f.report, f.err
}

func newTestServer(extractor extractorService, batches batchRunner) *Server {
	cfg := config.DefaultConfig().Server
	return NewServer(cfg, extractor, batches)
}

func multipartScan(t *testing.T, documentID, examID string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "sheet.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("png-bytes"))
	require.NoError(t, err)
	if documentID != "" {
		require.NoError(t, mw.WriteField("document_id", documentID))
	}
	if examID != "" {
		require.NoError(t, mw.WriteField("exam_id", examID))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealthHandler(t *testing.T) {
	srv := newTestServer(&fakeExtractorService{}, &fakeBatchRunner{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.NotEmpty(t, resp.Time)
}

func TestExtractHandler(t *testing.T) {
	schoolID, subjectID := uuid.New(), uuid.New()
	ext := &fakeExtractorService{result: &extraction.Result{
		ExtractedID: "ABC123MA01107",
		Method:      extraction.MethodBarcode,
		Confidence:  0.99,
		IsValid:     true,
		SchoolID:    &schoolID,
		SubjectID:   &subjectID,
		TestType:    "1",
		SheetNumber: "07",
	}}
	srv := newTestServer(ext, &fakeBatchRunner{})

	docID, examID := uuid.New(), uuid.New()
	body, contentType := multipartScan(t, docID.String(), examID.String())
	req := httptest.NewRequest(http.MethodPost, "/api/documents/extract", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp ExtractResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Result)
	assert.Equal(t, "ABC123MA01107", resp.Result.ExtractedID)
	assert.True(t, resp.Result.IsValid)
	assert.Equal(t, docID, ext.gotDocumentID)
	assert.Equal(t, examID, ext.gotExamID)
}

func TestExtractHandler_RejectedDocument(t *testing.T) {
	ext := &fakeExtractorService{result: &extraction.Result{
		ExtractedID:  "ABC123MA01100",
		Method:       extraction.MethodOCR,
		Confidence:   0.85,
		ErrorKind:    extraction.FailureFormat,
		ErrorMessage: "sheet number out of range",
	}}
	srv := newTestServer(ext, &fakeBatchRunner{})

	body, contentType := multipartScan(t, uuid.NewString(), uuid.NewString())
	req := httptest.NewRequest(http.MethodPost, "/api/documents/extract", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	// Gate rejections are a successful API call carrying an invalid result.
	require.Equal(t, http.StatusOK, rec.Code)
	var resp ExtractResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Result)
	assert.False(t, resp.Result.IsValid)
	assert.Equal(t, "sheet number out of range", resp.Result.ErrorMessage)
}

func TestExtractHandler_BadRequest(t *testing.T) {
	tests := []struct {
		name       string
		documentID string
		examID     string
	}{
		{"missing document_id", "", uuid.NewString()},
		{"malformed document_id", "not-a-uuid", uuid.NewString()},
		{"missing exam_id", uuid.NewString(), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&fakeExtractorService{}, &fakeBatchRunner{})
			body, contentType := multipartScan(t, tt.documentID, tt.examID)
			req := httptest.NewRequest(http.MethodPost, "/api/documents/extract", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			srv.Routes().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestBatchRunHandler(t *testing.T) {
	batchID := uuid.New()
	runner := &fakeBatchRunner{summary: &batch.Summary{
		BatchID:   batchID,
		Status:    "completed",
		Total:     3,
		Processed: 2,
		Failed:    1,
	}}
	srv := newTestServer(&fakeExtractorService{}, runner)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/batches/%s/run", batchID), nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, batchID, runner.gotBatchID)
	var resp batch.Summary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Processed)
}

func TestBatchRunHandler_InvalidID(t *testing.T) {
	srv := newTestServer(&fakeExtractorService{}, &fakeBatchRunner{})

	req := httptest.NewRequest(http.MethodPost, "/api/batches/not-a-uuid/run", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBatchValidateHandler(t *testing.T) {
	batchID := uuid.New()
	runner := &fakeBatchRunner{report: &batch.Report{
		ValidationErrors: []string{"missing sheets (test type 1): [03]"},
		Duplicates:       []batch.SlotDuplicate{},
		SequenceGaps: []batch.SequenceGap{{
			SchoolID:      uuid.New(),
			SubjectID:     uuid.New(),
			TestType:      "1",
			MissingSheets: []string{"03"},
		}},
	}}
	srv := newTestServer(&fakeExtractorService{}, runner)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/batches/%s/validate", batchID), nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp batch.Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.SequenceGaps, 1)
	assert.Equal(t, []string{"03"}, resp.SequenceGaps[0].MissingSheets)
}

func TestGenerateHandler(t *testing.T) {
	srv := newTestServer(&fakeExtractorService{}, &fakeBatchRunner{})

	body := `{"school_code":"ABC123","subject_code":"MA01","series":"2026A","test_type":"1","sheet_number":7,"candidates":60}`
	req := httptest.NewRequest(http.MethodPost, "/api/sheets/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp GenerateResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ABC123MA01107", resp.SheetID)
	assert.Equal(t, 3, resp.SheetCount)
}

func TestGenerateHandler_InvalidComponents(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantKind string
	}{
		{
			"bad test type",
			`{"school_code":"ABC123","subject_code":"MA01","series":"2026A","test_type":"3","sheet_number":7}`,
			"test_type",
		},
		{
			"sheet number out of range",
			`{"school_code":"ABC123","subject_code":"MA01","series":"2026A","test_type":"1","sheet_number":100}`,
			"sheet_range",
		},
		{
			"short school code",
			`{"school_code":"ABC","subject_code":"MA01","series":"2026A","test_type":"1","sheet_number":7}`,
			"length",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&fakeExtractorService{}, &fakeBatchRunner{})
			req := httptest.NewRequest(http.MethodPost, "/api/sheets/generate", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			srv.Routes().ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
			var resp ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.wantKind, resp.Kind)
		})
	}
}

func TestGenerateHandler_InvalidJSON(t *testing.T) {
	srv := newTestServer(&fakeExtractorService{}, &fakeBatchRunner{})

	req := httptest.NewRequest(http.MethodPost, "/api/sheets/generate", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(&fakeExtractorService{}, &fakeBatchRunner{})

	req := httptest.NewRequest(http.MethodOptions, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
