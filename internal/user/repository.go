package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/notebook-api/internal/database"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("username or email already exists")
)

// Repository is the adapter to the user directory. It is the only place
// that touches the users table; callers get single-row atomicity and
// nothing more.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user into the database
func (r *Repository) Create(ctx context.Context, username, email, passwordHash string) (*User, error) {
	dbUser := &database.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		OTPConsumed:  false,
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmail retrieves a user by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByUsername retrieves a user by username
func (r *Repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("username = ?", username).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// SetOTP stores a freshly issued code together with its expiry, resetting the
// consumed flag. A previously outstanding code is overwritten unconditionally:
// the last-issued code always wins. Code and expiry are always written in the
// same update, never one without the other.
func (r *Repository) SetOTP(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("otp = ?", code).
		Set("otp_expires_at = ?", expiresAt).
		Set("otp_consumed = ?", false).
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to set otp: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// ConsumeOTP marks the outstanding code as used. The update is conditional on
// otp_consumed still being false, so when two verifiers race exactly one of
// them wins; the loser sees consumed == false.
func (r *Repository) ConsumeOTP(ctx context.Context, userID uuid.UUID) (bool, error) {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("otp_consumed = ?", true).
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Where("otp_consumed = ?", false).
		Exec(ctx)

	if err != nil {
		return false, fmt.Errorf("failed to consume otp: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// ResetPassword sets a new password hash and clears all OTP state in a single
// update conditional on otp_consumed being true. Clearing the flag closes the
// one-shot authorization window; a zero row count means the caller was not
// (or no longer) authorized.
func (r *Repository) ResetPassword(ctx context.Context, userID uuid.UUID, passwordHash string) (bool, error) {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("otp = ?", nil).
		Set("otp_expires_at = ?", nil).
		Set("otp_consumed = ?", false).
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Where("otp_consumed = ?", true).
		Exec(ctx)

	if err != nil {
		return false, fmt.Errorf("failed to reset password: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:           dbu.ID,
		Username:     dbu.Username,
		Email:        dbu.Email,
		PasswordHash: dbu.PasswordHash,
		OTP:          dbu.OTP,
		OTPExpiresAt: dbu.OTPExpiresAt,
		OTPConsumed:  dbu.OTPConsumed,
		CreatedAt:    dbu.CreatedAt,
		UpdatedAt:    dbu.UpdatedAt,
	}
}
