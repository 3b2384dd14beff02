package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"valvx/internal/domain"
	"valvx/internal/domain/models"
	"valvx/internal/domain/repositories"
)

// PostgresAnnotationRepository implements the AnnotationRepository interface
type PostgresAnnotationRepository struct {
	pool *pgxpool.Pool
}

// NewAnnotationRepository creates a new annotation repository
func NewAnnotationRepository(config *RepositoryConfig) repositories.AnnotationRepository {
	return &PostgresAnnotationRepository{pool: config.Pool}
}

const annotationColumns = `id, pdf_id, page_number, x, y, width, height, color, comment, status,
	created_by, assigned_to, deadline, created_at, updated_at`

func scanAnnotation(row pgx.Row, a *models.PDFAnnotation) error {
	return row.Scan(
		&a.ID,
		&a.PDFID,
		&a.Rect.PageNumber,
		&a.Rect.X,
		&a.Rect.Y,
		&a.Rect.Width,
		&a.Rect.Height,
		&a.Color,
		&a.Comment,
		&a.Status,
		&a.CreatedBy,
		&a.AssignedTo,
		&a.Deadline,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
}

// Create inserts an annotation and fills in ID and timestamps
func (r *PostgresAnnotationRepository) Create(ctx context.Context, a *models.PDFAnnotation) error {
	query := `
		INSERT INTO pdf_annotations
			(pdf_id, page_number, x, y, width, height, color, comment, status, created_by, assigned_to, deadline)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		a.PDFID,
		a.Rect.PageNumber,
		a.Rect.X,
		a.Rect.Y,
		a.Rect.Width,
		a.Rect.Height,
		a.Color,
		a.Comment,
		a.Status,
		a.CreatedBy,
		a.AssignedTo,
		a.Deadline,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("pdf %d: %w", a.PDFID, domain.ErrNotFound)
		}
		return fmt.Errorf("create annotation: %w", err)
	}
	return nil
}

// GetByID retrieves an annotation by ID
func (r *PostgresAnnotationRepository) GetByID(ctx context.Context, id int64) (*models.PDFAnnotation, error) {
	query := `SELECT ` + annotationColumns + ` FROM pdf_annotations WHERE id = $1`

	var a models.PDFAnnotation
	if err := scanAnnotation(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id), &a); err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("annotation %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get annotation: %w", err)
	}
	return &a, nil
}

// List returns a document's annotations in page then creation order
func (r *PostgresAnnotationRepository) List(ctx context.Context, pdfID int64, filter models.AnnotationFilter) ([]models.PDFAnnotation, error) {
	conditions := []string{"pdf_id = $1"}
	args := []any{pdfID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.PageNumber > 0 {
		args = append(args, filter.PageNumber)
		conditions = append(conditions, fmt.Sprintf("page_number = $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM pdf_annotations WHERE %s ORDER BY page_number ASC, created_at ASC, id ASC`,
		annotationColumns, strings.Join(conditions, " AND "))

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list annotations: %w", err)
	}
	defer rows.Close()

	annotations := []models.PDFAnnotation{}
	for rows.Next() {
		var a models.PDFAnnotation
		if err := scanAnnotation(rows, &a); err != nil {
			return nil, fmt.Errorf("scan annotation: %w", err)
		}
		annotations = append(annotations, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate annotations: %w", err)
	}
	return annotations, nil
}

// Update writes the mutable fields and bumps updated_at
func (r *PostgresAnnotationRepository) Update(ctx context.Context, a *models.PDFAnnotation) error {
	query := `
		UPDATE pdf_annotations
		SET color = $1, comment = $2, status = $3, assigned_to = $4, deadline = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		a.Color,
		a.Comment,
		a.Status,
		a.AssignedTo,
		a.Deadline,
		a.ID,
	).Scan(&a.UpdatedAt)
	if err != nil {
		if IsPgNoRowsError(err) {
			return fmt.Errorf("annotation %d: %w", a.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("update annotation: %w", err)
	}
	return nil
}

// Delete deletes an annotation
func (r *PostgresAnnotationRepository) Delete(ctx context.Context, id int64) error {
	result, err := GetExecutor(ctx, r.pool).Exec(ctx, `DELETE FROM pdf_annotations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete annotation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("annotation %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
