package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"valvx/internal/domain"
	"valvx/internal/domain/models"
	"valvx/internal/domain/repositories"
)

// PostgresFolderRepository implements the FolderRepository interface
type PostgresFolderRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewFolderRepository creates a new folder repository
func NewFolderRepository(config *RepositoryConfig) repositories.FolderRepository {
	return &PostgresFolderRepository{
		pool:   config.Pool,
		logger: config.Logger,
	}
}

const folderColumns = `id, name, COALESCE(description, ''), parent_id, created_at`

func scanFolder(row pgx.Row, folder *models.Folder) error {
	return row.Scan(
		&folder.ID,
		&folder.Name,
		&folder.Description,
		&folder.ParentID,
		&folder.CreatedAt,
	)
}

// Create creates a new folder
func (r *PostgresFolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	query := `
		INSERT INTO folders (name, description, parent_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		folder.Name,
		folder.Description,
		folder.ParentID,
	).Scan(&folder.ID, &folder.CreatedAt)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("parent folder does not exist: %w", domain.ErrValidation)
		}
		if IsPgDuplicateError(err) {
			return siblingConflict(folder)
		}
		return fmt.Errorf("create folder: %w", err)
	}

	return nil
}

// GetByID retrieves a folder by ID
func (r *PostgresFolderRepository) GetByID(ctx context.Context, id int64) (*models.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders WHERE id = $1`

	var folder models.Folder
	err := scanFolder(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id), &folder)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("folder %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get folder: %w", err)
	}

	return &folder, nil
}

// GetRoot retrieves the top-level root folder
func (r *PostgresFolderRepository) GetRoot(ctx context.Context) (*models.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders WHERE name = $1 AND parent_id IS NULL ORDER BY id LIMIT 1`

	var folder models.Folder
	err := scanFolder(GetExecutor(ctx, r.pool).QueryRow(ctx, query, models.RootFolderName), &folder)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("root folder: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get root folder: %w", err)
	}

	return &folder, nil
}

// List returns all folders ordered by name
func (r *PostgresFolderRepository) List(ctx context.Context) ([]models.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders ORDER BY name ASC, id ASC`
	return r.queryFolders(ctx, query)
}

// ListChildren lists immediate child folders
func (r *PostgresFolderRepository) ListChildren(ctx context.Context, parentID *int64) ([]models.Folder, error) {
	if parentID == nil {
		query := `SELECT ` + folderColumns + ` FROM folders WHERE parent_id IS NULL ORDER BY name ASC`
		return r.queryFolders(ctx, query)
	}
	query := `SELECT ` + folderColumns + ` FROM folders WHERE parent_id = $1 ORDER BY name ASC`
	return r.queryFolders(ctx, query, *parentID)
}

func (r *PostgresFolderRepository) queryFolders(ctx context.Context, query string, args ...any) ([]models.Folder, error) {
	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	folders := []models.Folder{}
	for rows.Next() {
		var folder models.Folder
		if err := scanFolder(rows, &folder); err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, folder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}

	return folders, nil
}

// Update updates a folder's name, description and parent
func (r *PostgresFolderRepository) Update(ctx context.Context, folder *models.Folder) error {
	query := `
		UPDATE folders
		SET name = $1, description = $2, parent_id = $3
		WHERE id = $4
	`

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		folder.Name,
		folder.Description,
		folder.ParentID,
		folder.ID,
	)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("parent folder does not exist: %w", domain.ErrValidation)
		}
		if IsPgDuplicateError(err) {
			return siblingConflict(folder)
		}
		return fmt.Errorf("update folder: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %d: %w", folder.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete deletes a folder
func (r *PostgresFolderRepository) Delete(ctx context.Context, id int64) error {
	result, err := GetExecutor(ctx, r.pool).Exec(ctx, `DELETE FROM folders WHERE id = $1`, id)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return &domain.ConflictError{
				Message:      "folder is not empty",
				ResourceType: "folder",
				ResourceID:   fmt.Sprint(id),
			}
		}
		return fmt.Errorf("delete folder: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

// CountContents returns the number of direct subfolders and PDFs
func (r *PostgresFolderRepository) CountContents(ctx context.Context, id int64) (int, int, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM folders WHERE parent_id = $1),
			(SELECT COUNT(*) FROM pdf_documents WHERE folder_id = $1)
	`

	var folders, pdfs int
	if err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, id).Scan(&folders, &pdfs); err != nil {
		return 0, 0, fmt.Errorf("count folder contents: %w", err)
	}
	return folders, pdfs, nil
}

// siblingConflict reports a folder name already used under the same parent.
// idx_folders_parent_name enforces this when two writers race past the
// service's own sibling check.
func siblingConflict(folder *models.Folder) error {
	parent := "top level"
	if folder.ParentID != nil {
		parent = fmt.Sprintf("folder %d", *folder.ParentID)
	}
	return &domain.ConflictError{
		Message:      fmt.Sprintf("a folder named %q already exists in %s", folder.Name, parent),
		ResourceType: "folder",
		ResourceID:   folder.Name,
	}
}
