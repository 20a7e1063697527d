package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/notebook-api/internal/user"
)

// UserRepository defines the user directory operations the auth service needs
type UserRepository interface {
	Create(ctx context.Context, username, email, passwordHash string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByUsername(ctx context.Context, username string) (*user.User, error)
	SetOTP(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) error
	ConsumeOTP(ctx context.Context, userID uuid.UUID) (bool, error)
	ResetPassword(ctx context.Context, userID uuid.UUID, passwordHash string) (bool, error)
}

// EmailService defines the interface for email operations
type EmailService interface {
	SendOTPEmail(ctx context.Context, toEmail, code string) error
	SendWelcomeEmail(ctx context.Context, toEmail, username string) error
}

// RateLimiter defines the interface for request rate limiting
type RateLimiter interface {
	CheckIPRateLimit(ctx context.Context, ip, purpose string) (bool, error)
	RecordIPRequest(ctx context.Context, ip, purpose string) error
}
