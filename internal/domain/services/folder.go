package services

import (
	"context"

	"valvx/internal/domain/models"
	"valvx/internal/httputil"
)

// FolderService handles folder business logic
type FolderService interface {
	// ListFolders returns every folder as a flat list ordered by name
	ListFolders(ctx context.Context) ([]models.Folder, error)

	// CreateFolder creates a folder; a taken sibling name gets a " (n)" suffix
	CreateFolder(ctx context.Context, req *CreateFolderRequest) (*models.Folder, error)

	// UpdateFolder renames, re-describes or moves a folder
	UpdateFolder(ctx context.Context, id int64, req *UpdateFolderRequest) (*models.Folder, error)

	// DeleteFolder deletes an empty, non-root folder
	DeleteFolder(ctx context.Context, id int64) error

	// GetTree builds the nested folder/PDF tree
	GetTree(ctx context.Context) (*models.Tree, error)
}

type CreateFolderRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ParentID    *int64 `json:"parent_id"`
}

// UpdateFolderRequest uses a tri-state ParentID: absent keeps the parent,
// null moves the folder to the top level.
type UpdateFolderRequest struct {
	Name        *string                `json:"name,omitempty"`
	Description *string                `json:"description,omitempty"`
	ParentID    httputil.OptionalInt64 `json:"parent_id"`
}
