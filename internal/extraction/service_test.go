package extraction

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesyinbaare/rmps-sub002/internal/barcode"
	"github.com/jamesyinbaare/rmps-sub002/internal/store"
)

type fakeDocumentStore struct {
	schoolID  uuid.UUID
	subjectID uuid.UUID

	schoolFound  bool
	subjectFound bool
	associated   bool
	collisions   []uuid.UUID

	duplicateOnSave bool

	lastExclude uuid.UUID
	successes   []store.ExtractionUpdate
	failures    []string
}

func newFakeDocumentStore() *fakeDocumentStore {
	return &fakeDocumentStore{
		schoolID:     uuid.New(),
		subjectID:    uuid.New(),
		schoolFound:  true,
		subjectFound: true,
		associated:   true,
	}
}

func (f *fakeDocumentStore) ResolveSchool(_ context.Context, _ string) (uuid.UUID, bool, error) {
	return f.schoolID, f.schoolFound, nil
}

func (f *fakeDocumentStore) ResolveSubject(_ context.Context, _ string) (uuid.UUID, bool, error) {
	return f.subjectID, f.subjectFound, nil
}

func (f *fakeDocumentStore) HasAssociation(_ context.Context, _, _ uuid.UUID) (bool, error) {
	return f.associated, nil
}

func (f *fakeDocumentStore) FindDuplicates(_ context.Context, _, _ uuid.UUID,
	_, _ string, excludeDocumentID uuid.UUID,
) ([]uuid.UUID, error) {
	f.lastExclude = excludeDocumentID
	return f.collisions, nil
}

func (f *fakeDocumentStore) SaveExtractionSuccess(_ context.Context, _ uuid.UUID, upd store.ExtractionUpdate) error {
	if f.duplicateOnSave {
		return store.ErrDuplicateSlot
	}
	f.successes = append(f.successes, upd)
	return nil
}

func (f *fakeDocumentStore) SaveExtractionFailure(_ context.Context, _ uuid.UUID,
	_, _ string, _ float64, message string,
) error {
	f.failures = append(f.failures, message)
	return nil
}

func newTestService(t *testing.T, docs *fakeDocumentStore, barcodeValue string, minConfidence float64) *Service {
	t.Helper()
	be := &stubBackend{value: barcodeValue}
	if barcodeValue == "" {
		be.err = barcode.ErrNotFound
	}
	o := NewOrchestrator(OrchestratorConfig{BarcodeEnabled: true, BarcodeFormat: barcode.FormatCode128}, be, nil)
	return NewService(o, NewValidator(docs), docs, minConfidence)
}

func TestService_ValidDocument(t *testing.T) {
	docs := newFakeDocumentStore()
	svc := newTestService(t, docs, "ABC123MA01107", 0.80)

	res, err := svc.ExtractID(context.Background(), scanBytes(t), uuid.New(), uuid.New())
	require.NoError(t, err)

	assert.True(t, res.IsValid)
	assert.Empty(t, res.ErrorMessage)
	assert.Equal(t, "ABC123MA01107", res.ExtractedID)
	assert.Equal(t, MethodBarcode, res.Method)
	assert.Equal(t, "ABC123", res.SchoolCode)
	assert.Equal(t, "MA01", res.SubjectCode)
	assert.Equal(t, "1", res.TestType)
	assert.Equal(t, "07", res.SheetNumber)
	require.NotNil(t, res.SchoolID)
	assert.Equal(t, docs.schoolID, *res.SchoolID)

	require.Len(t, docs.successes, 1)
	assert.Equal(t, "07", docs.successes[0].SheetNumber)
	assert.Empty(t, docs.failures)
}

func TestService_NoCandidate(t *testing.T) {
	docs := newFakeDocumentStore()
	svc := newTestService(t, docs, "", 0.80)

	res, err := svc.ExtractID(context.Background(), scanBytes(t), uuid.New(), uuid.New())
	require.NoError(t, err)

	assert.False(t, res.IsValid)
	assert.Equal(t, FailureExtraction, res.ErrorKind)
	require.Len(t, docs.failures, 1)
}

func TestService_FormatGate(t *testing.T) {
	docs := newFakeDocumentStore()
	svc := newTestService(t, docs, "ABC123MA01100", 0.80) // sheet 00 out of range

	res, err := svc.ExtractID(context.Background(), scanBytes(t), uuid.New(), uuid.New())
	require.NoError(t, err)

	assert.False(t, res.IsValid)
	assert.Equal(t, FailureFormat, res.ErrorKind)
	assert.Equal(t, "ABC123MA01100", res.ExtractedID, "raw value survives the rejection")
	assert.Empty(t, docs.successes)
}

func TestService_ReferenceGate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*fakeDocumentStore)
		message string
	}{
		{"unknown school", func(f *fakeDocumentStore) { f.schoolFound = false }, `school not found for code "ABC123"`},
		{"unknown subject", func(f *fakeDocumentStore) { f.subjectFound = false }, `subject not found for code "MA01"`},
		{"not associated", func(f *fakeDocumentStore) { f.associated = false }, `school "ABC123" not permitted for subject "MA01"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := newFakeDocumentStore()
			tt.mutate(docs)
			svc := newTestService(t, docs, "ABC123MA01107", 0.80)

			res, err := svc.ExtractID(context.Background(), scanBytes(t), uuid.New(), uuid.New())
			require.NoError(t, err)

			assert.False(t, res.IsValid)
			assert.Equal(t, FailureReference, res.ErrorKind)
			assert.Equal(t, tt.message, res.ErrorMessage)
		})
	}
}

func TestService_DuplicateGate(t *testing.T) {
	docs := newFakeDocumentStore()
	docs.collisions = []uuid.UUID{uuid.New()}
	svc := newTestService(t, docs, "ABC123MA01107", 0.80)

	docID := uuid.New()
	res, err := svc.ExtractID(context.Background(), scanBytes(t), docID, uuid.New())
	require.NoError(t, err)

	assert.False(t, res.IsValid)
	assert.Equal(t, FailureDuplicate, res.ErrorKind)
	assert.Equal(t, docID, docs.lastExclude, "re-extraction must exclude the document itself")
}

func TestService_ConfidenceGate(t *testing.T) {
	tests := []struct {
		name          string
		minConfidence float64
		wantValid     bool
	}{
		{"below threshold", BarcodeConfidence + 0.001, false},
		{"equal to threshold passes", BarcodeConfidence, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := newFakeDocumentStore()
			svc := newTestService(t, docs, "ABC123MA01107", tt.minConfidence)

			res, err := svc.ExtractID(context.Background(), scanBytes(t), uuid.New(), uuid.New())
			require.NoError(t, err)

			assert.Equal(t, tt.wantValid, res.IsValid)
			if !tt.wantValid {
				assert.Equal(t, FailureConfidence, res.ErrorKind)
			}
		})
	}
}

func TestService_DuplicateAtCommit(t *testing.T) {
	docs := newFakeDocumentStore()
	docs.duplicateOnSave = true
	svc := newTestService(t, docs, "ABC123MA01107", 0.80)

	res, err := svc.ExtractID(context.Background(), scanBytes(t), uuid.New(), uuid.New())
	require.NoError(t, err)

	assert.False(t, res.IsValid)
	assert.Equal(t, FailureDuplicate, res.ErrorKind)
	assert.Contains(t, res.ErrorMessage, "concurrent extraction")
	require.Len(t, docs.failures, 1)
}
