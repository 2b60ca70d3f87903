// Package store persists documents, batches, and the reference entities the
// extraction engine validates against. Schools, subjects, and their
// association set are maintained by administrative flows and are read-only
// here; the engine writes only the extraction fields of a document.
package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentStatus tracks the validation state of a scanned sheet.
type DocumentStatus string

const (
	DocumentPending DocumentStatus = "pending"
	DocumentValid   DocumentStatus = "valid"
	DocumentError   DocumentStatus = "error"
)

// BatchStatus tracks the lifecycle of a submission batch.
type BatchStatus string

const (
	BatchPending    BatchStatus = "pending"
	BatchProcessing BatchStatus = "processing"
	BatchCompleted  BatchStatus = "completed"
	BatchFailed     BatchStatus = "failed"
)

// Per-document processing state within a batch.
const (
	ItemPending    = "pending"
	ItemProcessing = "processing"
	ItemCompleted  = "completed"
	ItemFailed     = "failed"
)

// School is a reference entity keyed by its fixed six-character code.
type School struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code      string    `gorm:"type:char(6);uniqueIndex;not null" json:"code"`
	Name      string    `gorm:"not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *School) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Subject is a reference entity keyed by its fixed four-character code.
type Subject struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code      string    `gorm:"type:char(4);uniqueIndex;not null" json:"code"`
	Name      string    `gorm:"not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Subject) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// SchoolSubject is the association restricting which subjects a school may
// submit sheets for.
type SchoolSubject struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SchoolID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_school_subject" json:"school_id"`
	SubjectID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_school_subject" json:"subject_id"`
	School    *School   `gorm:"foreignKey:SchoolID;references:ID" json:"school,omitempty"`
	Subject   *Subject  `gorm:"foreignKey:SubjectID;references:ID" json:"subject,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (a *SchoolSubject) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Document is one scanned answer sheet. The identifying fields stay null
// until extraction succeeds; the partial unique index on the sheet slot is
// the authoritative duplicate signal at commit time.
type Document struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ExamID   uuid.UUID `gorm:"type:uuid;not null;index" json:"exam_id"`
	FilePath string    `gorm:"not null" json:"file_path"`
	Checksum string    `gorm:"type:char(64)" json:"checksum"`

	SchoolID    *uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_valid_slot,where:status = 'valid'" json:"school_id,omitempty"`
	SubjectID   *uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_valid_slot,where:status = 'valid'" json:"subject_id,omitempty"`
	TestType    *string    `gorm:"type:char(1);uniqueIndex:idx_valid_slot,where:status = 'valid'" json:"test_type,omitempty"`
	SheetNumber *string    `gorm:"type:char(2);uniqueIndex:idx_valid_slot,where:status = 'valid'" json:"sheet_number,omitempty"`

	ExtractedID          *string        `gorm:"type:char(13)" json:"extracted_id,omitempty"`
	ExtractionMethod     *string        `gorm:"type:varchar(16)" json:"extraction_method,omitempty"`
	ExtractionConfidence float64        `json:"extraction_confidence"`
	Status               DocumentStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	ErrorMessage         *string        `json:"error_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *Document) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// Batch is a named group of documents processed together.
type Batch struct {
	ID             uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string      `gorm:"not null" json:"name"`
	Status         BatchStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	TotalFiles     int         `json:"total_files"`
	ProcessedFiles int         `json:"processed_files"`
	FailedFiles    int         `json:"failed_files"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

func (b *Batch) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// BatchDocument links a document into a batch with its per-item state.
type BatchDocument struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BatchID          uuid.UUID `gorm:"type:uuid;not null;index" json:"batch_id"`
	DocumentID       uuid.UUID `gorm:"type:uuid;not null;index" json:"document_id"`
	ProcessingStatus string    `gorm:"type:varchar(16);not null;default:'pending'" json:"processing_status"`
	ErrorMessage     *string   `json:"error_message,omitempty"`
	Document         *Document `gorm:"foreignKey:DocumentID;references:ID" json:"document,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (bd *BatchDocument) BeforeCreate(*gorm.DB) error {
	if bd.ID == uuid.Nil {
		bd.ID = uuid.New()
	}
	return nil
}
