package library

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"valvx/internal/config"
	"valvx/internal/domain"
	"valvx/internal/domain/models"
	"valvx/internal/domain/repositories"
	"valvx/internal/domain/services"
	"valvx/internal/events"
	"valvx/internal/pdfinfo"
	"valvx/internal/queue"
	"valvx/internal/storage"
)

type pdfService struct {
	pdfRepo    repositories.PDFRepository
	folderRepo repositories.FolderRepository
	txManager  repositories.TransactionManager
	store      FileStore
	jobs       JobPublisher
	events     EventPublisher
	maxBytes   int64
	logger     *slog.Logger
	now        func() time.Time
}

// NewPDFService creates a new PDF service. jobs may be nil to skip
// background inspection.
func NewPDFService(
	pdfRepo repositories.PDFRepository,
	folderRepo repositories.FolderRepository,
	txManager repositories.TransactionManager,
	store FileStore,
	jobs JobPublisher,
	events EventPublisher,
	maxBytes int64,
	logger *slog.Logger,
) services.PDFService {
	return &pdfService{
		pdfRepo:    pdfRepo,
		folderRepo: folderRepo,
		txManager:  txManager,
		store:      store,
		jobs:       jobs,
		events:     events,
		maxBytes:   maxBytes,
		logger:     logger,
		now:        time.Now,
	}
}

// Upload stores the file, then records it. A failed insert removes the
// stored file again.
func (s *pdfService) Upload(ctx context.Context, req *services.UploadRequest) (*models.PDFDocument, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validateUploadRequest(req); err != nil {
		return nil, err
	}

	body := bufio.NewReaderSize(req.File, 4096)
	header, _ := body.Peek(pdfinfo.HeaderSize)
	if !pdfinfo.IsPDF(header) {
		return nil, fmt.Errorf("only PDF files are allowed: %w", domain.ErrUnsupportedMedia)
	}

	var existing *models.PDFDocument
	if req.DocumentID != "" {
		var err error
		if existing, err = s.pdfRepo.GetByUniqueID(ctx, req.DocumentID); err != nil {
			return nil, err
		}
	}

	folderID, err := s.resolveFolder(ctx, req.FolderID, existing)
	if err != nil {
		return nil, err
	}

	saved, err := s.store.Save(ctx, req.Filename, body, s.maxBytes)
	if err != nil {
		return nil, err
	}

	var doc *models.PDFDocument
	if existing != nil {
		doc, err = s.recordNewVersion(ctx, existing, saved, req)
	} else {
		doc, err = s.recordNew(ctx, folderID, saved, req)
	}
	if err != nil {
		if rmErr := s.store.Remove(saved.Name); rmErr != nil {
			s.logger.Warn("failed to remove orphaned upload", "file", saved.Name, "error", rmErr)
		}
		return nil, err
	}

	doc.URL = s.store.PublicURL(doc.FilePath)

	s.logger.Info("pdf uploaded",
		"unique_id", doc.UniqueID,
		"file", doc.FilePath,
		"size", doc.FileSize,
		"version", doc.Version,
		"folder_id", doc.FolderID,
		"uploaded_by", req.UploadedBy,
	)

	if s.jobs != nil {
		job := queue.Job{UniqueID: doc.UniqueID, FilePath: doc.FilePath, Version: doc.Version}
		if err := s.jobs.Publish(ctx, job); err != nil {
			s.logger.Warn("failed to enqueue pdf inspection", "unique_id", doc.UniqueID, "error", err)
		}
	}
	s.events.Publish(events.PDFUploaded, doc)

	return doc, nil
}

// resolveFolder picks the target folder: the explicit one (which must exist),
// the existing document's folder for a new version, or the root folder.
func (s *pdfService) resolveFolder(ctx context.Context, folderID *int64, existing *models.PDFDocument) (*int64, error) {
	if existing != nil {
		return existing.FolderID, nil
	}
	if folderID != nil {
		if _, err := s.folderRepo.GetByID(ctx, *folderID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("folder %d does not exist: %w", *folderID, domain.ErrValidation)
			}
			return nil, err
		}
		return folderID, nil
	}

	root, err := s.folderRepo.GetRoot(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &root.ID, nil
}

func (s *pdfService) recordNew(ctx context.Context, folderID *int64, saved *storage.Saved, req *services.UploadRequest) (*models.PDFDocument, error) {
	now := s.now()
	displayName := req.Title
	if displayName == "" {
		displayName = DisplayNameFromFilename(req.Filename)
	}

	doc := &models.PDFDocument{
		UniqueID:    NewUniqueID(now),
		Filename:    filepath.Base(req.Filename),
		DisplayName: displayName,
		FilePath:    saved.Name,
		FileSize:    saved.Size,
		Description: req.Description,
		FolderID:    folderID,
		Version:     1,
		UploadedBy:  uploader(req.UploadedBy),
	}

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.pdfRepo.Create(ctx, doc); err != nil {
			return err
		}
		return s.pdfRepo.CreateVersion(ctx, &models.PDFVersion{
			PDFID:         doc.ID,
			VersionNumber: 1,
			FilePath:      doc.FilePath,
			FileSize:      doc.FileSize,
			Description:   doc.Description,
			CreatedBy:     doc.UploadedBy,
		})
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *pdfService) recordNewVersion(ctx context.Context, doc *models.PDFDocument, saved *storage.Saved, req *services.UploadRequest) (*models.PDFDocument, error) {
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		// The row lock serializes concurrent uploads of the same document.
		current, err := s.pdfRepo.GetByUniqueIDForUpdate(ctx, doc.UniqueID)
		if err != nil {
			return err
		}
		version := current.Version + 1
		uploadedAt := s.now()

		if err := s.pdfRepo.CreateVersion(ctx, &models.PDFVersion{
			PDFID:         current.ID,
			VersionNumber: version,
			FilePath:      saved.Name,
			FileSize:      saved.Size,
			Description:   req.Description,
			CreatedBy:     uploader(req.UploadedBy),
		}); err != nil {
			return err
		}
		if err := s.pdfRepo.UpdateFile(ctx, current.ID, saved.Name, saved.Size, version, uploadedAt); err != nil {
			return err
		}

		current.FilePath = saved.Name
		current.FileSize = saved.Size
		current.Version = version
		current.UploadedAt = uploadedAt
		doc = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *pdfService) List(ctx context.Context, folderID *int64) ([]models.PDFDocument, error) {
	docs, err := s.pdfRepo.List(ctx, folderID)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		docs[i].URL = s.store.PublicURL(docs[i].FilePath)
	}
	return docs, nil
}

func (s *pdfService) Get(ctx context.Context, uniqueID string) (*models.PDFDocument, error) {
	doc, err := s.pdfRepo.GetByUniqueID(ctx, uniqueID)
	if err != nil {
		return nil, err
	}
	doc.URL = s.store.PublicURL(doc.FilePath)

	meta, err := s.pdfRepo.GetMetadata(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		doc.Metadata = meta
	}
	return doc, nil
}

// Delete removes the database row first; only then are the files removed.
// File removal errors are logged and do not fail the delete.
func (s *pdfService) Delete(ctx context.Context, uniqueID string) error {
	paths, err := s.pdfRepo.Delete(ctx, uniqueID)
	if err != nil {
		return err
	}

	for _, p := range paths {
		if err := s.store.Remove(p); err != nil {
			s.logger.Error("failed to remove pdf file", "unique_id", uniqueID, "file", p, "error", err)
		}
	}

	s.logger.Info("pdf deleted", "unique_id", uniqueID, "files", len(paths))
	s.events.Publish(events.PDFDeleted, map[string]string{"unique_id": uniqueID})
	return nil
}

func (s *pdfService) Versions(ctx context.Context, uniqueID string) ([]models.PDFVersion, error) {
	doc, err := s.pdfRepo.GetByUniqueID(ctx, uniqueID)
	if err != nil {
		return nil, err
	}
	versions, err := s.pdfRepo.ListVersions(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	for i := range versions {
		versions[i].URL = s.store.PublicURL(versions[i].FilePath)
	}
	return versions, nil
}

func (s *pdfService) OpenContent(ctx context.Context, uniqueID string) (*services.PDFContent, error) {
	doc, err := s.pdfRepo.GetByUniqueID(ctx, uniqueID)
	if err != nil {
		return nil, err
	}

	f, err := s.store.Open(doc.FilePath)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat pdf file: %w", err)
	}

	return &services.PDFContent{
		Content:    f,
		Name:       doc.Filename,
		ModifiedAt: info.ModTime(),
	}, nil
}

func (s *pdfService) ApplyInspection(ctx context.Context, uniqueID string, result *services.InspectionResult) error {
	doc, err := s.pdfRepo.GetByUniqueID(ctx, uniqueID)
	if err != nil {
		return err
	}

	values := map[string]string{
		models.MetaProcessedAt: s.now().UTC().Format(time.RFC3339),
	}
	if result.Err != "" {
		values[models.MetaError] = result.Err
	} else {
		values[models.MetaPageCount] = strconv.Itoa(result.Pages)
		values[models.MetaTextExcerpt] = result.TextExcerpt
		values[models.MetaError] = ""
	}

	if err := s.pdfRepo.SetMetadata(ctx, doc.ID, values); err != nil {
		return err
	}

	s.logger.Info("pdf inspected", "unique_id", uniqueID, "pages", result.Pages, "error", result.Err)
	s.events.Publish(events.PDFProcessed, map[string]any{
		"unique_id": uniqueID,
		"metadata":  values,
	})
	return nil
}

func (s *pdfService) validateUploadRequest(req *services.UploadRequest) error {
	if req.File == nil {
		return fmt.Errorf("%w: no file uploaded", domain.ErrValidation)
	}
	return validationError(validation.ValidateStruct(req,
		validation.Field(&req.Filename, validation.Required, validation.RuneLength(1, config.MaxFilenameLength), validation.By(storableText)),
		validation.Field(&req.Title, validation.RuneLength(0, config.MaxTitleLength)),
		validation.Field(&req.Description, validation.RuneLength(0, config.MaxDescriptionLength)),
		validation.Field(&req.FolderID, validation.Min(int64(1))),
	))
}

// NewUniqueID returns pdf_<unixmillis>_<6 random base36 chars>.
func NewUniqueID(now time.Time) string {
	return fmt.Sprintf("pdf_%d_%s", now.UnixMilli(), storage.RandomSuffix())
}

// DisplayNameFromFilename drops any directory and a trailing .pdf extension.
func DisplayNameFromFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if ext := filepath.Ext(base); strings.EqualFold(ext, ".pdf") {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

func uploader(username string) string {
	if username == "" {
		return "system"
	}
	return username
}
