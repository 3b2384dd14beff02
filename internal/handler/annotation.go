package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"valvx/internal/domain/models"
	"valvx/internal/domain/services"
	"valvx/internal/httputil"
)

// AnnotationHandler handles review annotations on PDFs
type AnnotationHandler struct {
	annotationService services.AnnotationService
	logger            *slog.Logger
}

func NewAnnotationHandler(annotationService services.AnnotationService, logger *slog.Logger) *AnnotationHandler {
	return &AnnotationHandler{
		annotationService: annotationService,
		logger:            logger,
	}
}

// List returns a PDF's annotations, optionally filtered by ?status= and ?page=
// GET /api/pdfs/{id}/annotations
func (h *AnnotationHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := models.AnnotationFilter{
		Status: models.AnnotationStatus(r.URL.Query().Get("status")),
	}
	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			respondFailure(w, http.StatusBadRequest, "invalid page")
			return
		}
		filter.PageNumber = page
	}

	annotations, err := h.annotationService.List(r.Context(), r.PathValue("id"), filter)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, annotations)
}

// Create adds an annotation to a PDF
// POST /api/pdfs/{id}/annotations
func (h *AnnotationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.CreateAnnotationRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		respondFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.CreatedBy = httputil.Username(r)

	a, err := h.annotationService.Create(r.Context(), r.PathValue("id"), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, a)
}

// Update changes colour, comment, status or assignee
// PATCH /api/annotations/{id}
func (h *AnnotationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathInt64(r, "id")
	if err != nil {
		respondFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	var req services.UpdateAnnotationRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		respondFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := h.annotationService.Update(r.Context(), id, &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, a)
}

// DELETE /api/annotations/{id}
func (h *AnnotationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathInt64(r, "id")
	if err != nil {
		respondFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.annotationService.Delete(r.Context(), id); err != nil {
		handleError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
