package repositories

import (
	"context"
	"time"

	"valvx/internal/domain/models"
)

// PDFRepository defines data access operations for PDF documents, their
// versions and key/value metadata.
type PDFRepository interface {
	// Create inserts a document and fills in ID and UploadedAt
	Create(ctx context.Context, doc *models.PDFDocument) error

	GetByUniqueID(ctx context.Context, uniqueID string) (*models.PDFDocument, error)

	// GetByUniqueIDForUpdate also locks the row until the transaction ends.
	GetByUniqueIDForUpdate(ctx context.Context, uniqueID string) (*models.PDFDocument, error)

	// List returns documents newest first; a nil folderID lists all documents
	List(ctx context.Context, folderID *int64) ([]models.PDFDocument, error)

	// UpdateFile points a document at a new stored file and version number
	UpdateFile(ctx context.Context, id int64, filePath string, fileSize int64, version int, uploadedAt time.Time) error

	// Delete removes the row and returns the file paths that belonged to it
	// (current file plus every recorded version).
	Delete(ctx context.Context, uniqueID string) ([]string, error)

	CreateVersion(ctx context.Context, v *models.PDFVersion) error
	ListVersions(ctx context.Context, pdfID int64) ([]models.PDFVersion, error)

	SetMetadata(ctx context.Context, pdfID int64, values map[string]string) error
	GetMetadata(ctx context.Context, pdfID int64) (map[string]string, error)
}
