package services

import (
	"context"
	"time"

	"valvx/internal/domain/models"
	"valvx/internal/httputil"
)

// AnnotationService manages review annotations on PDFs
type AnnotationService interface {
	List(ctx context.Context, pdfUniqueID string, filter models.AnnotationFilter) ([]models.PDFAnnotation, error)
	Create(ctx context.Context, pdfUniqueID string, req *CreateAnnotationRequest) (*models.PDFAnnotation, error)
	Update(ctx context.Context, id int64, req *UpdateAnnotationRequest) (*models.PDFAnnotation, error)
	Delete(ctx context.Context, id int64) error
}

type CreateAnnotationRequest struct {
	Rect       models.AnnotationRect   `json:"rect"`
	Color      string                  `json:"color"`
	Comment    string                  `json:"comment"`
	Status     models.AnnotationStatus `json:"status"`
	AssignedTo *string                 `json:"assignedTo"`
	Deadline   *time.Time              `json:"deadline"`
	CreatedBy  string                  `json:"-"`
}

type UpdateAnnotationRequest struct {
	Color      *string                  `json:"color,omitempty"`
	Comment    *string                  `json:"comment,omitempty"`
	Status     *models.AnnotationStatus `json:"status,omitempty"`
	AssignedTo httputil.OptionalString  `json:"assignedTo"`
}
