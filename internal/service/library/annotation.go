package library

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"valvx/internal/config"
	"valvx/internal/domain"
	"valvx/internal/domain/models"
	"valvx/internal/domain/repositories"
	"valvx/internal/domain/services"
	"valvx/internal/events"
)

// DefaultAnnotationColor is used when a new annotation has no color.
const DefaultAnnotationColor = "#ffeb3b"

type annotationService struct {
	annotationRepo repositories.AnnotationRepository
	pdfRepo        repositories.PDFRepository
	events         EventPublisher
	logger         *slog.Logger
}

func NewAnnotationService(
	annotationRepo repositories.AnnotationRepository,
	pdfRepo repositories.PDFRepository,
	events EventPublisher,
	logger *slog.Logger,
) services.AnnotationService {
	return &annotationService{
		annotationRepo: annotationRepo,
		pdfRepo:        pdfRepo,
		events:         events,
		logger:         logger,
	}
}

func (s *annotationService) List(ctx context.Context, pdfUniqueID string, filter models.AnnotationFilter) ([]models.PDFAnnotation, error) {
	if filter.Status != "" && !validStatus(filter.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, filter.Status)
	}
	if filter.PageNumber < 0 {
		return nil, fmt.Errorf("%w: page must be positive", domain.ErrValidation)
	}

	doc, err := s.pdfRepo.GetByUniqueID(ctx, pdfUniqueID)
	if err != nil {
		return nil, err
	}
	return s.annotationRepo.List(ctx, doc.ID, filter)
}

func (s *annotationService) Create(ctx context.Context, pdfUniqueID string, req *services.CreateAnnotationRequest) (*models.PDFAnnotation, error) {
	if req.Color == "" {
		req.Color = DefaultAnnotationColor
	}
	if req.Status == "" {
		req.Status = models.StatusNewComment
	}
	req.Comment = strings.TrimSpace(req.Comment)
	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}

	doc, err := s.pdfRepo.GetByUniqueID(ctx, pdfUniqueID)
	if err != nil {
		return nil, err
	}

	a := &models.PDFAnnotation{
		PDFID:      doc.ID,
		Rect:       req.Rect,
		Color:      strings.ToLower(req.Color),
		Comment:    req.Comment,
		Status:     req.Status,
		CreatedBy:  uploader(req.CreatedBy),
		AssignedTo: req.AssignedTo,
		Deadline:   req.Deadline,
	}
	if err := s.annotationRepo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info("annotation created", "id", a.ID, "pdf", pdfUniqueID, "page", a.Rect.PageNumber, "status", a.Status)
	s.events.Publish(events.AnnotationCreated, a)
	return a, nil
}

func (s *annotationService) Update(ctx context.Context, id int64, req *services.UpdateAnnotationRequest) (*models.PDFAnnotation, error) {
	if err := s.validateUpdateRequest(req); err != nil {
		return nil, err
	}

	a, err := s.annotationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Color != nil {
		a.Color = strings.ToLower(*req.Color)
	}
	if req.Comment != nil {
		a.Comment = strings.TrimSpace(*req.Comment)
	}
	if req.Status != nil {
		a.Status = *req.Status
	}
	if req.AssignedTo.Present {
		a.AssignedTo = req.AssignedTo.Value
	}

	if err := s.annotationRepo.Update(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info("annotation updated", "id", a.ID, "status", a.Status)
	s.events.Publish(events.AnnotationUpdated, a)
	return a, nil
}

func (s *annotationService) Delete(ctx context.Context, id int64) error {
	if err := s.annotationRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("annotation deleted", "id", id)
	s.events.Publish(events.AnnotationDeleted, map[string]int64{"id": id})
	return nil
}

func (s *annotationService) validateCreateRequest(req *services.CreateAnnotationRequest) error {
	rect := &req.Rect
	if err := validation.ValidateStruct(rect,
		validation.Field(&rect.PageNumber, validation.Required, validation.Min(1)),
		validation.Field(&rect.X, validation.Min(0.0)),
		validation.Field(&rect.Y, validation.Min(0.0)),
		validation.Field(&rect.Width, validation.Required, validation.Min(0.0)),
		validation.Field(&rect.Height, validation.Required, validation.Min(0.0)),
	); err != nil {
		return validationError(fmt.Errorf("rect: %w", err))
	}

	return validationError(validation.ValidateStruct(req,
		validation.Field(&req.Color, validation.Match(colorPattern).Error("must be a #rrggbb color")),
		validation.Field(&req.Comment, validation.RuneLength(0, config.MaxCommentLength)),
		validation.Field(&req.Status, validation.By(statusRule)),
		validation.Field(&req.AssignedTo, validation.NilOrNotEmpty, validation.RuneLength(0, 255)),
	))
}

func (s *annotationService) validateUpdateRequest(req *services.UpdateAnnotationRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Color, validation.Match(colorPattern).Error("must be a #rrggbb color")),
		validation.Field(&req.Comment, validation.RuneLength(0, config.MaxCommentLength)),
		validation.Field(&req.Status, validation.By(statusRule)),
	)
	if err == nil && req.AssignedTo.Value != nil && len(*req.AssignedTo.Value) > 255 {
		err = fmt.Errorf("assignedTo: the length must be no more than 255")
	}
	return validationError(err)
}

func statusRule(value interface{}) error {
	var status models.AnnotationStatus
	switch v := value.(type) {
	case models.AnnotationStatus:
		status = v
	case *models.AnnotationStatus:
		if v == nil {
			return nil
		}
		status = *v
	}
	if !validStatus(status) {
		return validation.NewError("validation_status", fmt.Sprintf("unknown status %q", status))
	}
	return nil
}

func validStatus(status models.AnnotationStatus) bool {
	return slices.Contains(models.AnnotationStatuses, status)
}
