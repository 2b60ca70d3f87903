package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrDuplicateSlot is returned when committing a valid document would
// violate the sheet-slot uniqueness index. It is the authoritative duplicate
// signal; the application-level pre-check only exists to fail fast.
var ErrDuplicateSlot = errors.New("store: sheet slot already occupied by a valid document")

// Store wraps the gorm session with the queries the engine needs.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the sqlite database at path and migrates the
// schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: opening database: %w", err)
	}
	s := &Store{db: db}
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// New wraps an existing gorm session without migrating.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the schema.
func (s *Store) Migrate() error {
	err := s.db.AutoMigrate(
		&School{},
		&Subject{},
		&SchoolSubject{},
		&Document{},
		&Batch{},
		&BatchDocument{},
	)
	if err != nil {
		return fmt.Errorf("store: migrating schema: %w", err)
	}
	return nil
}

// DB exposes the underlying session for administrative flows and tests.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// ResolveSchool looks up a school by its six-character code. The boolean is
// false when no school carries the code.
func (s *Store) ResolveSchool(ctx context.Context, code string) (uuid.UUID, bool, error) {
	var school School
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&school).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("store: resolving school %q: %w", code, err)
	}
	return school.ID, true, nil
}

// ResolveSubject looks up a subject by its four-character code.
func (s *Store) ResolveSubject(ctx context.Context, code string) (uuid.UUID, bool, error) {
	var subject Subject
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&subject).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("store: resolving subject %q: %w", code, err)
	}
	return subject.ID, true, nil
}

// HasAssociation reports whether the school is permitted to submit sheets
// for the subject.
func (s *Store) HasAssociation(ctx context.Context, schoolID, subjectID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&SchoolSubject{}).
		Where("school_id = ? AND subject_id = ?", schoolID, subjectID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("store: checking school-subject association: %w", err)
	}
	return count > 0, nil
}

// FindDuplicates returns the IDs of valid documents already occupying the
// given sheet slot, excluding the document currently being re-validated.
func (s *Store) FindDuplicates(ctx context.Context, schoolID, subjectID uuid.UUID,
	testType, sheetNumber string, excludeDocumentID uuid.UUID,
) ([]uuid.UUID, error) {
	var docs []Document
	err := s.db.WithContext(ctx).
		Where("school_id = ? AND subject_id = ? AND test_type = ? AND sheet_number = ? AND status = ?",
			schoolID, subjectID, testType, sheetNumber, DocumentValid).
		Where("id <> ?", excludeDocumentID).
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("store: querying duplicate slot: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// GetDocument fetches a document by ID.
func (s *Store) GetDocument(ctx context.Context, id uuid.UUID) (*Document, error) {
	var doc Document
	if err := s.db.WithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("store: loading document %s: %w", id, err)
	}
	return &doc, nil
}

// CreateDocument inserts a new pending document.
func (s *Store) CreateDocument(ctx context.Context, doc *Document) error {
	if doc.Status == "" {
		doc.Status = DocumentPending
	}
	if err := s.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("store: creating document: %w", err)
	}
	return nil
}

// ExtractionUpdate carries the fields a successful extraction writes back.
type ExtractionUpdate struct {
	ExtractedID string
	Method      string
	Confidence  float64
	SchoolID    uuid.UUID
	SubjectID   uuid.UUID
	TestType    string
	SheetNumber string
}

// SaveExtractionSuccess marks the document valid and records the extracted
// fields in one transaction. A uniqueness violation on the sheet slot is
// translated to ErrDuplicateSlot.
func (s *Store) SaveExtractionSuccess(ctx context.Context, documentID uuid.UUID, upd ExtractionUpdate) error {
	err := s.db.WithContext(ctx).Model(&Document{}).
		Where("id = ?", documentID).
		Updates(map[string]interface{}{
			"extracted_id":          upd.ExtractedID,
			"extraction_method":     upd.Method,
			"extraction_confidence": upd.Confidence,
			"school_id":             upd.SchoolID,
			"subject_id":            upd.SubjectID,
			"test_type":             upd.TestType,
			"sheet_number":          upd.SheetNumber,
			"status":                DocumentValid,
			"error_message":         nil,
		}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateSlot
	}
	if err != nil {
		return fmt.Errorf("store: saving extraction for %s: %w", documentID, err)
	}
	return nil
}

// SaveExtractionFailure marks the document failed and clears the
// identifying fields. The raw extracted string and method are recorded only
// when they belong to this attempt; when the attempt produced no candidate
// they are cleared too, so an error row never pairs a stale read with a new
// message.
func (s *Store) SaveExtractionFailure(ctx context.Context, documentID uuid.UUID,
	extractedID, method string, confidence float64, message string,
) error {
	updates := map[string]interface{}{
		"school_id":             nil,
		"subject_id":            nil,
		"test_type":             nil,
		"sheet_number":          nil,
		"extracted_id":          nil,
		"extraction_method":     nil,
		"extraction_confidence": confidence,
		"status":                DocumentError,
		"error_message":         message,
	}
	if extractedID != "" {
		updates["extracted_id"] = extractedID
	}
	if method != "" {
		updates["extraction_method"] = method
	}
	err := s.db.WithContext(ctx).Model(&Document{}).
		Where("id = ?", documentID).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("store: saving extraction failure for %s: %w", documentID, err)
	}
	return nil
}

// GetBatch fetches a batch by ID.
func (s *Store) GetBatch(ctx context.Context, id uuid.UUID) (*Batch, error) {
	var batch Batch
	if err := s.db.WithContext(ctx).First(&batch, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("store: loading batch %s: %w", id, err)
	}
	return &batch, nil
}

// CreateBatch creates a batch over the given documents.
func (s *Store) CreateBatch(ctx context.Context, name string, documentIDs []uuid.UUID) (*Batch, error) {
	batch := &Batch{Name: name, Status: BatchPending, TotalFiles: len(documentIDs)}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(batch).Error; err != nil {
			return err
		}
		for _, docID := range documentIDs {
			item := &BatchDocument{BatchID: batch.ID, DocumentID: docID, ProcessingStatus: ItemPending}
			if err := tx.Create(item).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: creating batch: %w", err)
	}
	return batch, nil
}

// ListBatchDocuments returns the batch items with their documents preloaded.
func (s *Store) ListBatchDocuments(ctx context.Context, batchID uuid.UUID) ([]BatchDocument, error) {
	var items []BatchDocument
	err := s.db.WithContext(ctx).Preload("Document").
		Where("batch_id = ?", batchID).
		Order("created_at").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("store: listing batch %s documents: %w", batchID, err)
	}
	return items, nil
}

// UpdateBatchDocument records the outcome of processing one batch item.
func (s *Store) UpdateBatchDocument(ctx context.Context, itemID uuid.UUID, status string, errorMessage string) error {
	updates := map[string]interface{}{"processing_status": status}
	if errorMessage != "" {
		updates["error_message"] = errorMessage
	} else {
		updates["error_message"] = nil
	}
	err := s.db.WithContext(ctx).Model(&BatchDocument{}).
		Where("id = ?", itemID).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("store: updating batch item %s: %w", itemID, err)
	}
	return nil
}

// UpdateBatchStatus records the batch lifecycle state and counters.
func (s *Store) UpdateBatchStatus(ctx context.Context, batchID uuid.UUID, status BatchStatus, processed, failed int) error {
	err := s.db.WithContext(ctx).Model(&Batch{}).
		Where("id = ?", batchID).
		Updates(map[string]interface{}{
			"status":          status,
			"processed_files": processed,
			"failed_files":    failed,
		}).Error
	if err != nil {
		return fmt.Errorf("store: updating batch %s: %w", batchID, err)
	}
	return nil
}
