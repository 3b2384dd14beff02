package repositories

import (
	"context"

	"valvx/internal/domain/models"
)

// FolderRepository defines data access operations for folders
type FolderRepository interface {
	// Create inserts a folder and fills in ID and CreatedAt
	Create(ctx context.Context, folder *models.Folder) error

	GetByID(ctx context.Context, id int64) (*models.Folder, error)

	// GetRoot returns the top-level folder named "root"
	GetRoot(ctx context.Context) (*models.Folder, error)

	// List returns every folder ordered by name
	List(ctx context.Context) ([]models.Folder, error)

	// ListChildren lists immediate child folders; nil parent lists top level
	ListChildren(ctx context.Context, parentID *int64) ([]models.Folder, error)

	Update(ctx context.Context, folder *models.Folder) error
	Delete(ctx context.Context, id int64) error

	// CountContents returns the number of subfolders and PDFs directly inside a folder
	CountContents(ctx context.Context, id int64) (folders, pdfs int, err error)
}
