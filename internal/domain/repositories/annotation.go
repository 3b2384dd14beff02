package repositories

import (
	"context"

	"valvx/internal/domain/models"
)

// AnnotationRepository defines data access operations for PDF annotations
type AnnotationRepository interface {
	Create(ctx context.Context, a *models.PDFAnnotation) error
	GetByID(ctx context.Context, id int64) (*models.PDFAnnotation, error)
	List(ctx context.Context, pdfID int64, filter models.AnnotationFilter) ([]models.PDFAnnotation, error)
	Update(ctx context.Context, a *models.PDFAnnotation) error
	Delete(ctx context.Context, id int64) error
}
