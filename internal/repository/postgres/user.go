package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"valvx/internal/domain"
	"valvx/internal/domain/models"
	"valvx/internal/domain/repositories"
)

// PostgresUserRepository implements the UserRepository interface
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(config *RepositoryConfig) repositories.UserRepository {
	return &PostgresUserRepository{pool: config.Pool}
}

// Create inserts a user
func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		user.Username,
		user.Name,
		user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("user '%s' already exists", user.Username),
				ResourceType: "user",
				ResourceID:   user.Username,
			}
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `WHERE username = $1`, username)
}

func (r *PostgresUserRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT id, username, name, password_hash, created_at FROM users ` + where

	var user models.User
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Name,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("user %v: %w", arg, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// UpdatePassword replaces a user's password hash
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := GetExecutor(ctx, r.pool).Exec(ctx,
		`UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
