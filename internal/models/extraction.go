// internal/models/extraction.go
package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// MaxExtractionFiles bounds how many PDFs a single auto-fill batch may
// carry, to limit load on the extraction service.
const MaxExtractionFiles = 5

// ExtractionBatch is a multi-file auto-fill session. Files are processed
// strictly one at a time: the file at CurrentIndex is the only one
// in-flight, and the cursor advances only when the user confirms a save.
type ExtractionBatch struct {
	BaseModel
	UserID       uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	FileCount    int       `json:"file_count" gorm:"not null"`
	CurrentIndex int       `json:"current_index" gorm:"default:0"`
	CompletedAt  *time.Time `json:"completed_at"`

	// Relationships
	Files []ExtractionFile `json:"files,omitempty" gorm:"foreignKey:BatchID"`
}

type ExtractionFile struct {
	BaseModel
	BatchID    uuid.UUID            `json:"batch_id" gorm:"type:uuid;not null;index"`
	Position   int                  `json:"position" gorm:"not null"`
	FileName   string               `json:"file_name" gorm:"size:255;not null"`
	StorageKey string               `json:"storage_key" gorm:"size:512;not null"`
	Status     ExtractionFileStatus `json:"status" gorm:"type:varchar(20);default:'queued';index"`
	ExtractedData JSONB             `json:"extracted_data" gorm:"type:jsonb"`
	ErrorMessage  string            `json:"error_message" gorm:"type:text"`
	PolicyID      *uuid.UUID        `json:"policy_id" gorm:"type:uuid"`
}

var ErrBatchExhausted = errors.New("no files left in extraction batch")

// CurrentFile returns the file at the batch cursor. Files must be ordered
// by position.
func (b *ExtractionBatch) CurrentFile() (*ExtractionFile, error) {
	if b.CurrentIndex >= len(b.Files) {
		return nil, ErrBatchExhausted
	}
	return &b.Files[b.CurrentIndex], nil
}

// Advance moves the cursor past the current file and reports whether any
// file remains.
func (b *ExtractionBatch) Advance() bool {
	b.CurrentIndex++
	return b.CurrentIndex < b.FileCount
}

// IsComplete reports whether every file has reached a terminal status.
func (b *ExtractionBatch) IsComplete() bool {
	return b.CurrentIndex >= b.FileCount
}
