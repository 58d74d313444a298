package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"cardlink/internal/domain"
	"cardlink/internal/store"

	"go.uber.org/zap"
)

type ProfileRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewProfileRepository(db *sql.DB, logger *zap.Logger) *ProfileRepository {
	return &ProfileRepository{
		db:     db,
		logger: logger,
	}
}

// CreateProfile inserts a new profile row
func (r *ProfileRepository) CreateProfile(ctx context.Context, profile *domain.Profile) error {
	query := `
		INSERT INTO profiles (
			id, email, display_name, role, password_hash, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`

	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		profile.ID, profile.Email, profile.DisplayName, profile.Role,
		profile.Password, now, now,
	)

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrDuplicateEmail
		}
		r.logger.Error("Failed to create profile", zap.Error(err))
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

// GetProfileByID retrieves a profile by its id
func (r *ProfileRepository) GetProfileByID(ctx context.Context, id string) (*domain.Profile, error) {
	query := `
		SELECT id, email, display_name, role, password_hash, created_at, updated_at
		FROM profiles
		WHERE id = ?`

	return r.scanProfile(r.db.QueryRowContext(ctx, query, id))
}

// GetProfileByEmail retrieves a profile by email
func (r *ProfileRepository) GetProfileByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	query := `
		SELECT id, email, display_name, role, password_hash, created_at, updated_at
		FROM profiles
		WHERE email = ?`

	return r.scanProfile(r.db.QueryRowContext(ctx, query, email))
}

func (r *ProfileRepository) scanProfile(row *sql.Row) (*domain.Profile, error) {
	profile := &domain.Profile{}
	err := row.Scan(
		&profile.ID, &profile.Email, &profile.DisplayName, &profile.Role,
		&profile.Password, &profile.CreatedAt, &profile.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrNotFound
		}
		r.logger.Error("Failed to get profile", zap.Error(err))
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return profile, nil
}

// UpdateProfile updates the mutable profile fields
func (r *ProfileRepository) UpdateProfile(ctx context.Context, profile *domain.Profile) error {
	query := `
		UPDATE profiles SET
			display_name = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query, profile.DisplayName, profile.ID)
	if err != nil {
		r.logger.Error("Failed to update profile", zap.Error(err), zap.String("profile_id", profile.ID))
		return fmt.Errorf("failed to update profile: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	return nil
}
