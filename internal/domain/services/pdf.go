package services

import (
	"context"
	"io"
	"time"

	"valvx/internal/domain/models"
)

// PDFService handles uploaded PDF documents
type PDFService interface {
	// Upload stores a PDF and records its metadata. When req.DocumentID is set
	// the file becomes a new version of that document.
	Upload(ctx context.Context, req *UploadRequest) (*models.PDFDocument, error)

	// List returns documents newest first, optionally limited to one folder
	List(ctx context.Context, folderID *int64) ([]models.PDFDocument, error)

	// Get returns a document with its metadata
	Get(ctx context.Context, uniqueID string) (*models.PDFDocument, error)

	// Delete removes the document row, then its files; file errors are logged only
	Delete(ctx context.Context, uniqueID string) error

	Versions(ctx context.Context, uniqueID string) ([]models.PDFVersion, error)

	// OpenContent opens the current file of a document; the caller closes it
	OpenContent(ctx context.Context, uniqueID string) (*PDFContent, error)

	// ApplyInspection records the result of background PDF inspection
	ApplyInspection(ctx context.Context, uniqueID string, result *InspectionResult) error
}

type UploadRequest struct {
	File        io.Reader
	Filename    string // Original client filename
	FolderID    *int64
	Title       string
	Description string
	DocumentID  string // Optional unique_id of an existing document
	UploadedBy  string
}

type PDFContent struct {
	Content    io.ReadSeekCloser
	Name       string
	ModifiedAt time.Time
}

type InspectionResult struct {
	Pages       int
	TextExcerpt string
	Err         string
}
