package models

import "time"

// PDFDocument is the metadata row for an uploaded PDF. FilePath is relative
// to the upload directory.
type PDFDocument struct {
	ID          int64     `json:"id" db:"id"`
	UniqueID    string    `json:"unique_id" db:"unique_id"`
	Filename    string    `json:"filename" db:"filename"`
	DisplayName string    `json:"display_name" db:"display_name"`
	FilePath    string    `json:"file_path" db:"file_path"`
	FileSize    int64     `json:"file_size" db:"file_size"`
	Description string    `json:"description" db:"description"`
	FolderID    *int64    `json:"folder_id" db:"folder_id"`
	Version     int       `json:"version" db:"version"`
	UploadedAt  time.Time `json:"uploaded_at" db:"uploaded_at"`
	UploadedBy  string    `json:"uploaded_by" db:"uploaded_by"`

	URL      string            `json:"url,omitempty"`      // Computed public URL, not stored
	Metadata map[string]string `json:"metadata,omitempty"` // Loaded from pdf_metadata on demand
}

// PDFVersion records one uploaded revision of a document.
type PDFVersion struct {
	ID            int64     `json:"id" db:"id"`
	PDFID         int64     `json:"pdf_id" db:"pdf_id"`
	VersionNumber int       `json:"version_number" db:"version_number"`
	FilePath      string    `json:"file_path" db:"file_path"`
	FileSize      int64     `json:"file_size" db:"file_size"`
	Description   string    `json:"description" db:"description"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	CreatedBy     string    `json:"created_by" db:"created_by"`

	URL string `json:"url,omitempty"`
}

// Metadata keys written after a PDF has been inspected.
const (
	MetaPageCount   = "page_count"
	MetaTextExcerpt = "text_excerpt"
	MetaProcessedAt = "processed_at"
	MetaError       = "processing_error"
)
