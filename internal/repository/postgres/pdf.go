package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"valvx/internal/domain"
	"valvx/internal/domain/models"
	"valvx/internal/domain/repositories"
)

// PostgresPDFRepository implements the PDFRepository interface
type PostgresPDFRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPDFRepository creates a new PDF repository
func NewPDFRepository(config *RepositoryConfig) repositories.PDFRepository {
	return &PostgresPDFRepository{
		pool:   config.Pool,
		logger: config.Logger,
	}
}

const pdfColumns = `id, unique_id, filename, COALESCE(display_name, filename), file_path, file_size,
	COALESCE(description, ''), folder_id, version, uploaded_at, uploaded_by`

func scanPDF(row pgx.Row, doc *models.PDFDocument) error {
	return row.Scan(
		&doc.ID,
		&doc.UniqueID,
		&doc.Filename,
		&doc.DisplayName,
		&doc.FilePath,
		&doc.FileSize,
		&doc.Description,
		&doc.FolderID,
		&doc.Version,
		&doc.UploadedAt,
		&doc.UploadedBy,
	)
}

// Create creates a new document
func (r *PostgresPDFRepository) Create(ctx context.Context, doc *models.PDFDocument) error {
	query := `
		INSERT INTO pdf_documents
			(unique_id, filename, display_name, file_path, file_size, description, folder_id, version, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, uploaded_at
	`

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		doc.UniqueID,
		doc.Filename,
		doc.DisplayName,
		doc.FilePath,
		doc.FileSize,
		doc.Description,
		doc.FolderID,
		doc.Version,
		doc.UploadedBy,
	).Scan(&doc.ID, &doc.UploadedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("pdf '%s' already exists", doc.UniqueID),
				ResourceType: "pdf",
				ResourceID:   doc.UniqueID,
			}
		}
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("folder does not exist: %w", domain.ErrValidation)
		}
		return fmt.Errorf("create pdf: %w", err)
	}

	return nil
}

// GetByUniqueID retrieves a document by its public unique_id
func (r *PostgresPDFRepository) GetByUniqueID(ctx context.Context, uniqueID string) (*models.PDFDocument, error) {
	return r.getByUniqueID(ctx, `SELECT `+pdfColumns+` FROM pdf_documents WHERE unique_id = $1`, uniqueID)
}

// GetByUniqueIDForUpdate is GetByUniqueID with a row lock held until the
// surrounding transaction ends.
func (r *PostgresPDFRepository) GetByUniqueIDForUpdate(ctx context.Context, uniqueID string) (*models.PDFDocument, error) {
	return r.getByUniqueID(ctx, `SELECT `+pdfColumns+` FROM pdf_documents WHERE unique_id = $1 FOR UPDATE`, uniqueID)
}

func (r *PostgresPDFRepository) getByUniqueID(ctx context.Context, query, uniqueID string) (*models.PDFDocument, error) {
	var doc models.PDFDocument
	if err := scanPDF(GetExecutor(ctx, r.pool).QueryRow(ctx, query, uniqueID), &doc); err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("pdf %s: %w", uniqueID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get pdf: %w", err)
	}
	return &doc, nil
}

// List returns documents newest first
func (r *PostgresPDFRepository) List(ctx context.Context, folderID *int64) ([]models.PDFDocument, error) {
	var query string
	var args []any

	if folderID == nil {
		query = `SELECT ` + pdfColumns + ` FROM pdf_documents ORDER BY uploaded_at DESC, id DESC`
	} else {
		query = `SELECT ` + pdfColumns + ` FROM pdf_documents WHERE folder_id = $1 ORDER BY uploaded_at DESC, id DESC`
		args = append(args, *folderID)
	}

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pdfs: %w", err)
	}
	defer rows.Close()

	docs := []models.PDFDocument{}
	for rows.Next() {
		var doc models.PDFDocument
		if err := scanPDF(rows, &doc); err != nil {
			return nil, fmt.Errorf("scan pdf: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pdfs: %w", err)
	}

	return docs, nil
}

// UpdateFile points the document at a newly stored revision
func (r *PostgresPDFRepository) UpdateFile(ctx context.Context, id int64, filePath string, fileSize int64, version int, uploadedAt time.Time) error {
	query := `
		UPDATE pdf_documents
		SET file_path = $1, file_size = $2, version = $3, uploaded_at = $4
		WHERE id = $5
	`

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, filePath, fileSize, version, uploadedAt, id)
	if err != nil {
		return fmt.Errorf("update pdf file: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("pdf %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Delete removes the document. Versions, metadata and annotations go with it
// through ON DELETE CASCADE; the returned paths are every file it referenced.
func (r *PostgresPDFRepository) Delete(ctx context.Context, uniqueID string) ([]string, error) {
	// The SELECT sees the statement snapshot, so version rows are still visible
	// while the cascade removes them.
	query := `
		WITH doc AS (
			DELETE FROM pdf_documents WHERE unique_id = $1
			RETURNING id, file_path
		)
		SELECT file_path FROM doc
		UNION
		SELECT v.file_path FROM pdf_versions v JOIN doc ON v.pdf_id = doc.id
	`

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, uniqueID)
	if err != nil {
		return nil, fmt.Errorf("delete pdf: %w", err)
	}
	paths, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("delete pdf: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("pdf %s: %w", uniqueID, domain.ErrNotFound)
	}
	return paths, nil
}

// CreateVersion records one uploaded revision
func (r *PostgresPDFRepository) CreateVersion(ctx context.Context, v *models.PDFVersion) error {
	query := `
		INSERT INTO pdf_versions (pdf_id, version_number, file_path, file_size, description, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		v.PDFID,
		v.VersionNumber,
		v.FilePath,
		v.FileSize,
		v.Description,
		v.CreatedBy,
	).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("version %d already exists", v.VersionNumber),
				ResourceType: "pdf_version",
				ResourceID:   fmt.Sprint(v.VersionNumber),
			}
		}
		return fmt.Errorf("create pdf version: %w", err)
	}
	return nil
}

// ListVersions returns every revision, newest first
func (r *PostgresPDFRepository) ListVersions(ctx context.Context, pdfID int64) ([]models.PDFVersion, error) {
	query := `
		SELECT id, pdf_id, version_number, file_path, file_size, COALESCE(description, ''), created_at, created_by
		FROM pdf_versions
		WHERE pdf_id = $1
		ORDER BY version_number DESC
	`

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, pdfID)
	if err != nil {
		return nil, fmt.Errorf("list pdf versions: %w", err)
	}
	defer rows.Close()

	versions := []models.PDFVersion{}
	for rows.Next() {
		var v models.PDFVersion
		err := rows.Scan(&v.ID, &v.PDFID, &v.VersionNumber, &v.FilePath, &v.FileSize, &v.Description, &v.CreatedAt, &v.CreatedBy)
		if err != nil {
			return nil, fmt.Errorf("scan pdf version: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pdf versions: %w", err)
	}
	return versions, nil
}

// SetMetadata upserts key/value pairs for a document
func (r *PostgresPDFRepository) SetMetadata(ctx context.Context, pdfID int64, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	query := `
		INSERT INTO pdf_metadata (pdf_id, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (pdf_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`

	batch := &pgx.Batch{}
	for k, v := range values {
		batch.Queue(query, pdfID, k, v)
	}

	results := GetExecutor(ctx, r.pool).SendBatch(ctx, batch)
	defer results.Close()
	for range values {
		if _, err := results.Exec(); err != nil {
			if IsPgForeignKeyError(err) {
				return fmt.Errorf("pdf %d: %w", pdfID, domain.ErrNotFound)
			}
			return fmt.Errorf("set pdf metadata: %w", err)
		}
	}
	return nil
}

// GetMetadata returns all key/value pairs for a document
func (r *PostgresPDFRepository) GetMetadata(ctx context.Context, pdfID int64) (map[string]string, error) {
	rows, err := GetExecutor(ctx, r.pool).Query(ctx,
		`SELECT key, COALESCE(value, '') FROM pdf_metadata WHERE pdf_id = $1`, pdfID)
	if err != nil {
		return nil, fmt.Errorf("get pdf metadata: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan pdf metadata: %w", err)
		}
		meta[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pdf metadata: %w", err)
	}
	return meta, nil
}
