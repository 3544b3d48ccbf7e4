// Package cockroach holds CockroachDB-backed repositories.
package cockroach

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"chatwave-backend/internal/domain"
	"chatwave-backend/pkg/database"
)

// UserRepository manages user accounts in CockroachDB
type UserRepository struct {
	db *database.CockroachDB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.CockroachDB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user account
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (user_id, email, username, password_hash, full_name, profile_pic, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.Pool.Exec(ctx, query,
		user.UserID, user.Email, user.Username, user.PasswordHash,
		user.FullName, user.ProfilePic, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID. Returns nil when no user exists.
func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	query := `
		SELECT user_id, email, username, password_hash, full_name, profile_pic, created_at, updated_at
		FROM users WHERE user_id = $1`

	return r.scanOne(r.db.Pool.QueryRow(ctx, query, userID))
}

// GetByEmail retrieves a user by email. Returns nil when no user exists.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT user_id, email, username, password_hash, full_name, profile_pic, created_at, updated_at
		FROM users WHERE email = $1`

	return r.scanOne(r.db.Pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) scanOne(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(&user.UserID, &user.Email, &user.Username, &user.PasswordHash,
		&user.FullName, &user.ProfilePic, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// EmailExists checks whether an email is already registered
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

// UsernameExists checks whether a username is already taken
func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}

// UpdateProfile updates a user's full name and profile picture URL
func (r *UserRepository) UpdateProfile(ctx context.Context, userID uuid.UUID, fullName string, profilePic *string) error {
	query := `
		UPDATE users SET full_name = $2, profile_pic = $3, updated_at = $4
		WHERE user_id = $1`

	tag, err := r.db.Pool.Exec(ctx, query, userID, fullName, profilePic, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found", userID)
	}
	return nil
}

// ListOthers returns every user except the given one, for the contact sidebar
func (r *UserRepository) ListOthers(ctx context.Context, userID uuid.UUID) ([]*domain.User, error) {
	query := `
		SELECT user_id, email, username, password_hash, full_name, profile_pic, created_at, updated_at
		FROM users WHERE user_id != $1
		ORDER BY username`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.UserID, &user.Email, &user.Username, &user.PasswordHash,
			&user.FullName, &user.ProfilePic, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}
