package user

import (
	"context"
	"errors"
	"fmt"

	"logistics-backoffice/internal/db"
	"logistics-backoffice/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines methods for interacting with user storage.
type RepositoryInterface interface {
	FindByID(ctx context.Context, userID string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	List(ctx context.Context, page, limit int) ([]models.User, int, error)
	CountByType(ctx context.Context, userType models.UserType) (int, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const userColumns = `id, name, phone, email, password_hash, user_type, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Name, &user.Phone, &user.Email, &user.PasswordHash, &user.UserType, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *Repository) FindByID(ctx context.Context, userID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}
	return user, nil
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("repository.FindByEmail: %w", err)
	}
	return user, nil
}

func (r *Repository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
        INSERT INTO users (name, phone, email, password_hash, user_type)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		user.Name, user.Phone, user.Email, user.PasswordHash, user.UserType,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, "users_email_key") {
			return nil, fmt.Errorf("repository.Create: %w: email address is already in use", models.ErrConflict)
		}
		return nil, fmt.Errorf("repository.Create: %w", err)
	}
	return user, nil
}

func (r *Repository) List(ctx context.Context, page, limit int) ([]models.User, int, error) {
	offset := (page - 1) * limit
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("repository.List.Query: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repository.List.Scan: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository.List.Rows: %w", err)
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository.List.Count: %w", err)
	}
	return users, total, nil
}

func (r *Repository) CountByType(ctx context.Context, userType models.UserType) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM users WHERE user_type = $1", userType).Scan(&n); err != nil {
		return 0, fmt.Errorf("repository.CountByType: %w", err)
	}
	return n, nil
}
