package handler

import (
	"log/slog"
	"net/http"
	"os"

	"valvx/internal/httputil"
)

// FileOpener opens a stored upload by name.
type FileOpener interface {
	Open(name string) (*os.File, error)
}

// FilesHandler serves stored uploads. Unlike http.FileServer it never lists
// the directory and never exposes in-progress temporary files.
type FilesHandler struct {
	store  FileOpener
	logger *slog.Logger
}

func NewFilesHandler(store FileOpener, logger *slog.Logger) *FilesHandler {
	return &FilesHandler{store: store, logger: logger}
}

// Serve streams one uploaded file
// GET /uploads/{file}
func (h *FilesHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("file")
	f, err := h.store.Open(name)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		httputil.RespondError(w, http.StatusNotFound, "not found")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeContent(w, r, name, info.ModTime(), f)
}
