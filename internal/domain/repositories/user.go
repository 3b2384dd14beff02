package repositories

import (
	"context"

	"valvx/internal/domain/models"
)

// UserRepository defines data access operations for accounts
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}
