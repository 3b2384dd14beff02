package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"valvx/internal/domain/services"
	"valvx/internal/httputil"
)

const (
	// multipartMemory is how much of a multipart form is kept in memory
	// before spilling to temporary files.
	multipartMemory = 8 << 20

	// formOverhead covers the non-file fields and multipart framing.
	formOverhead = 1 << 20
)

// PDFHandler handles upload, listing and retrieval of PDF documents
type PDFHandler struct {
	pdfService services.PDFService
	maxBytes   int64
	logger     *slog.Logger
}

// NewPDFHandler creates a new PDF handler. maxBytes is the per-file limit.
func NewPDFHandler(pdfService services.PDFService, maxBytes int64, logger *slog.Logger) *PDFHandler {
	return &PDFHandler{
		pdfService: pdfService,
		maxBytes:   maxBytes,
		logger:     logger,
	}
}

// Upload accepts a multipart form with fields file, folderId, title,
// description and optionally documentId for a new version.
// POST /api/upload
func (h *PDFHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+formOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			respondFailure(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("file exceeds the %d MB limit", h.maxBytes>>20))
			return
		}
		respondFailure(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondFailure(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	folderID, err := parseFolderID(r.FormValue("folderId"))
	if err != nil {
		respondFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.pdfService.Upload(r.Context(), &services.UploadRequest{
		File:        file,
		Filename:    header.Filename,
		FolderID:    folderID,
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		DocumentID:  r.FormValue("documentId"),
		UploadedBy:  httputil.Username(r),
	})
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"file":    doc,
	})
}

// parseFolderID accepts an empty value or "root" as "no explicit folder".
func parseFolderID(raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "root" || raw == "null" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("invalid folderId: %q", raw)
	}
	return &id, nil
}

// ListPDFs lists documents, optionally filtered by ?folderId=
// GET /api/pdfs
func (h *PDFHandler) ListPDFs(w http.ResponseWriter, r *http.Request) {
	folderID, err := parseFolderID(r.URL.Query().Get("folderId"))
	if err != nil {
		respondFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	docs, err := h.pdfService.List(r.Context(), folderID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, docs)
}

// GetPDF returns one document with its metadata
// GET /api/pdfs/{id}
func (h *PDFHandler) GetPDF(w http.ResponseWriter, r *http.Request) {
	doc, err := h.pdfService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, doc)
}

// DeletePDF removes a document and its files
// DELETE /api/pdfs/{id}
func (h *PDFHandler) DeletePDF(w http.ResponseWriter, r *http.Request) {
	if err := h.pdfService.Delete(r.Context(), r.PathValue("id")); err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Versions lists every uploaded revision, newest first
// GET /api/pdfs/{id}/versions
func (h *PDFHandler) Versions(w http.ResponseWriter, r *http.Request) {
	versions, err := h.pdfService.Versions(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, versions)
}

// Content streams the current file inline with range support
// GET /api/pdfs/{id}/content
func (h *PDFHandler) Content(w http.ResponseWriter, r *http.Request) {
	content, err := h.pdfService.OpenContent(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	defer content.Content.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": content.Name}))
	http.ServeContent(w, r, content.Name, content.ModifiedAt, content.Content)
}
