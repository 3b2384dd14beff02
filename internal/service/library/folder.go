package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"valvx/internal/config"
	"valvx/internal/domain"
	"valvx/internal/domain/models"
	"valvx/internal/domain/repositories"
	"valvx/internal/domain/services"
	"valvx/internal/events"
)

type folderService struct {
	folderRepo repositories.FolderRepository
	pdfRepo    repositories.PDFRepository
	txManager  repositories.TransactionManager
	store      FileStore
	events     EventPublisher
	logger     *slog.Logger
}

// NewFolderService creates a new folder service
func NewFolderService(
	folderRepo repositories.FolderRepository,
	pdfRepo repositories.PDFRepository,
	txManager repositories.TransactionManager,
	store FileStore,
	events EventPublisher,
	logger *slog.Logger,
) services.FolderService {
	return &folderService{
		folderRepo: folderRepo,
		pdfRepo:    pdfRepo,
		txManager:  txManager,
		store:      store,
		events:     events,
		logger:     logger,
	}
}

func (s *folderService) ListFolders(ctx context.Context) ([]models.Folder, error) {
	return s.folderRepo.List(ctx)
}

// CreateFolder creates a folder under req.ParentID (nil = top level). When a
// sibling already uses the name, " (1)", " (2)", ... is appended.
func (s *folderService) CreateFolder(ctx context.Context, req *services.CreateFolderRequest) (*models.Folder, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}

	folder := &models.Folder{
		Description: req.Description,
		ParentID:    req.ParentID,
	}

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if req.ParentID != nil {
			if _, err := s.folderRepo.GetByID(ctx, *req.ParentID); err != nil {
				return parentError(*req.ParentID, err)
			}
		}

		siblings, err := s.folderRepo.ListChildren(ctx, req.ParentID)
		if err != nil {
			return fmt.Errorf("failed to check for duplicate names: %w", err)
		}
		folder.Name = uniqueName(req.Name, siblings)

		return s.folderRepo.Create(ctx, folder)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("folder created",
		"id", folder.ID,
		"name", folder.Name,
		"parent_id", folder.ParentID,
	)
	s.events.Publish(events.FolderCreated, folder)

	return folder, nil
}

// UpdateFolder applies a partial update. Moving a folder below itself or one
// of its descendants is rejected, and the root folder cannot be renamed or moved.
func (s *folderService) UpdateFolder(ctx context.Context, id int64, req *services.UpdateFolderRequest) (*models.Folder, error) {
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}
	if err := s.validateUpdateRequest(req); err != nil {
		return nil, err
	}

	var folder *models.Folder
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		var err error
		folder, err = s.folderRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		renaming := req.Name != nil && *req.Name != folder.Name
		if folder.IsRoot() && (renaming || req.ParentID.Present) {
			return fmt.Errorf("the root folder cannot be renamed or moved: %w", domain.ErrForbidden)
		}

		if req.ParentID.Present {
			if err := s.checkMove(ctx, folder.ID, req.ParentID.Value); err != nil {
				return err
			}
			folder.ParentID = req.ParentID.Value
		}
		if req.Description != nil {
			folder.Description = *req.Description
		}

		if renaming || req.ParentID.Present {
			name := folder.Name
			if req.Name != nil {
				name = *req.Name
			}
			siblings, err := s.folderRepo.ListChildren(ctx, folder.ParentID)
			if err != nil {
				return fmt.Errorf("failed to check for duplicate names: %w", err)
			}
			if sibling := siblingNamed(siblings, name, folder.ID); sibling != nil {
				return &domain.ConflictError{
					Message:      fmt.Sprintf("a folder named %q already exists in this location", name),
					ResourceType: "folder",
					ResourceID:   fmt.Sprint(sibling.ID),
				}
			}
			folder.Name = name
		}

		return s.folderRepo.Update(ctx, folder)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("folder updated", "id", folder.ID, "name", folder.Name, "parent_id", folder.ParentID)
	s.events.Publish(events.FolderUpdated, folder)

	return folder, nil
}

// checkMove verifies newParent exists and is not id or one of its descendants.
func (s *folderService) checkMove(ctx context.Context, id int64, newParent *int64) error {
	seen := map[int64]bool{}
	for cur := newParent; cur != nil; {
		if *cur == id {
			return fmt.Errorf("cannot move a folder into itself or its subfolders: %w", domain.ErrValidation)
		}
		if seen[*cur] {
			break
		}
		seen[*cur] = true

		parent, err := s.folderRepo.GetByID(ctx, *cur)
		if err != nil {
			return parentError(*cur, err)
		}
		cur = parent.ParentID
	}
	return nil
}

// DeleteFolder deletes an empty folder. The root folder is never deleted.
func (s *folderService) DeleteFolder(ctx context.Context, id int64) error {
	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		folder, err := s.folderRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if folder.IsRoot() {
			return fmt.Errorf("the root folder cannot be deleted: %w", domain.ErrForbidden)
		}

		subfolders, pdfs, err := s.folderRepo.CountContents(ctx, id)
		if err != nil {
			return err
		}
		if subfolders > 0 || pdfs > 0 {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("folder is not empty (%d folders, %d pdfs)", subfolders, pdfs),
				ResourceType: "folder",
				ResourceID:   fmt.Sprint(id),
			}
		}

		return s.folderRepo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("folder deleted", "id", id)
	s.events.Publish(events.FolderDeleted, map[string]int64{"id": id})
	return nil
}

func (s *folderService) validateCreateRequest(req *services.CreateFolderRequest) error {
	return validationError(validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.Required,
			validation.RuneLength(1, config.MaxFolderNameLength),
			validation.Match(folderNamePattern).Error("folder name cannot contain slashes"),
		),
		validation.Field(&req.Description, validation.RuneLength(0, config.MaxDescriptionLength)),
		validation.Field(&req.ParentID, validation.Min(int64(1))),
	))
}

func (s *folderService) validateUpdateRequest(req *services.UpdateFolderRequest) error {
	return validationError(validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.NilOrNotEmpty,
			validation.RuneLength(1, config.MaxFolderNameLength),
			validation.Match(folderNamePattern).Error("folder name cannot contain slashes"),
		),
		validation.Field(&req.Description, validation.RuneLength(0, config.MaxDescriptionLength)),
	))
}

// uniqueName returns name, or name with the first free " (n)" suffix among
// the sibling folders.
func uniqueName(name string, siblings []models.Folder) string {
	candidate := name
	for n := 1; siblingNamed(siblings, candidate, 0) != nil; n++ {
		candidate = fmt.Sprintf("%s (%d)", name, n)
	}
	return candidate
}

// siblingNamed returns the sibling called name, ignoring the folder skipID.
func siblingNamed(siblings []models.Folder, name string, skipID int64) *models.Folder {
	for i := range siblings {
		if siblings[i].ID != skipID && siblings[i].Name == name {
			return &siblings[i]
		}
	}
	return nil
}

func parentError(id int64, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("parent folder %d does not exist: %w", id, domain.ErrValidation)
	}
	return err
}
