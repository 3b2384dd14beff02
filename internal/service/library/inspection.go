package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"valvx/internal/config"
	"valvx/internal/domain"
	"valvx/internal/domain/services"
	"valvx/internal/pdfinfo"
	"valvx/internal/queue"
)

// Inspector is the queue handler that extracts page count and a text excerpt
// from uploaded PDFs and stores them as document metadata.
type Inspector struct {
	pdfs   services.PDFService
	store  FileStore
	logger *slog.Logger
}

func NewInspector(pdfs services.PDFService, store FileStore, logger *slog.Logger) *Inspector {
	return &Inspector{pdfs: pdfs, store: store, logger: logger}
}

// Handle processes one job. Jobs for deleted documents or superseded
// versions are skipped.
func (i *Inspector) Handle(ctx context.Context, job queue.Job) error {
	doc, err := i.pdfs.Get(ctx, job.UniqueID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			i.logger.Debug("skipping inspection of deleted pdf", "unique_id", job.UniqueID)
			return nil
		}
		return err
	}
	if doc.FilePath != job.FilePath {
		i.logger.Debug("skipping inspection of superseded version", "unique_id", job.UniqueID, "version", job.Version)
		return nil
	}

	result := i.inspect(job.FilePath)
	return i.pdfs.ApplyInspection(ctx, job.UniqueID, result)
}

func (i *Inspector) inspect(name string) *services.InspectionResult {
	f, err := i.store.Open(name)
	if err != nil {
		return &services.InspectionResult{Err: fmt.Sprintf("open file: %v", err)}
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return &services.InspectionResult{Err: fmt.Sprintf("stat file: %v", err)}
	}

	info, err := pdfinfo.Inspect(f, stat.Size(), config.TextExcerptLength)
	if err != nil {
		return &services.InspectionResult{Err: err.Error()}
	}
	return &services.InspectionResult{Pages: info.Pages, TextExcerpt: info.TextExcerpt}
}
