package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/redmonkez12/notebook-api/internal/logging"
	"github.com/redmonkez12/notebook-api/internal/user"
)

var (
	ErrUsernameRequired   = errors.New("username is required")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrInvalidCredentials = errors.New("invalid password")
	ErrOTPRequired        = errors.New("email and otp are required")
	ErrInvalidOTP         = errors.New("invalid otp")
	ErrOTPAlreadyUsed     = errors.New("otp already used")
	ErrOTPExpired         = errors.New("otp expired")
	ErrResetNotAuthorized = errors.New("otp verification required")
)

// Service handles authentication business logic: registration, login and the
// OTP-based password reset protocol (issue -> verify -> reset).
type Service struct {
	userRepo     UserRepository
	emailService EmailService
	logger       *logging.Logger
	otpTTL       time.Duration
}

func NewService(
	userRepo UserRepository,
	emailService EmailService,
	logger *logging.Logger,
	otpTTL time.Duration,
) *Service {
	return &Service{
		userRepo:     userRepo,
		emailService: emailService,
		logger:       logger,
		otpTTL:       otpTTL,
	}
}

// Register creates a new user account and sends a welcome email
func (s *Service) Register(ctx context.Context, username, password, email string) (*user.User, error) {
	// Validate input
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(email) > 254 {
		return nil, ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmailFormat
	}

	// Hash password using argon2id
	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Create user in database
	newUser, err := s.userRepo.Create(ctx, username, email, passwordHash)
	if err != nil {
		if errors.Is(err, user.ErrDuplicate) {
			return nil, user.ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Send welcome email in a goroutine (non-blocking)
	go func() {
		// Create a new context for the goroutine to avoid cancellation issues
		emailCtx := context.Background()
		if err := s.emailService.SendWelcomeEmail(emailCtx, email, username); err != nil {
			// Log error but don't fail registration
			s.logger.Warn("failed to send welcome email", "email", email, "error", err)
		}
	}()

	return newUser, nil
}

// Login authenticates a user and returns the public identity fields
func (s *Service) Login(ctx context.Context, username, password string) (*user.User, error) {
	// Validate input
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	// Get user from database
	existingUser, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	// Verify password
	if !verifyPassword(existingUser.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return existingUser, nil
}

// IssueOTP generates a one-time passcode for the given email, persists it
// with its expiry and dispatches it by mail. A previously outstanding code is
// overwritten unconditionally. Delivery is best-effort: the code stays valid
// even if the mail never arrives, and delivery failures never surface to the
// caller once the code is stored.
func (s *Service) IssueOTP(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailRequired
	}

	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.ErrNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	code, err := generateOTPCode()
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}

	expiresAt := time.Now().UTC().Add(s.otpTTL)

	if err := s.userRepo.SetOTP(ctx, existingUser.ID, code, expiresAt); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}

	// Send OTP email in a goroutine (non-blocking)
	go func() {
		emailCtx := context.Background()
		if err := s.emailService.SendOTPEmail(emailCtx, email, code); err != nil {
			s.logger.Warn("failed to send otp email", "email", email, "error", err)
		}
	}()

	return nil
}

// VerifyOTP validates a submitted code against the stored state and marks it
// consumed. Consumption makes the code unusable for further verification but
// leaves it valid as a one-shot authorization for a single password reset.
//
// Checks run in a fixed order for deterministic error reporting:
// match -> consumed -> expiry. A correct code that is both consumed and
// expired therefore reports ErrOTPAlreadyUsed, not ErrOTPExpired.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) error {
	email = strings.TrimSpace(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return ErrOTPRequired
	}

	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.ErrNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if existingUser.OTP == nil || *existingUser.OTP != code {
		return ErrInvalidOTP
	}

	if existingUser.OTPConsumed {
		return ErrOTPAlreadyUsed
	}

	if existingUser.OTPExpiresAt == nil || time.Now().UTC().After(existingUser.OTPExpiresAt.UTC()) {
		return ErrOTPExpired
	}

	// Conditional update: when two verifications race, only one may win
	consumed, err := s.userRepo.ConsumeOTP(ctx, existingUser.ID)
	if err != nil {
		return fmt.Errorf("failed to consume otp: %w", err)
	}
	if !consumed {
		return ErrOTPAlreadyUsed
	}

	return nil
}

// ResetPassword consumes the verified-OTP state to authorize exactly one
// password change, then clears all OTP fields. A second reset without an
// intervening successful verification fails ErrResetNotAuthorized.
func (s *Service) ResetPassword(ctx context.Context, email, newPassword string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailRequired
	}
	if newPassword == "" {
		return ErrPasswordRequired
	}

	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.ErrNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !existingUser.OTPConsumed {
		return ErrResetNotAuthorized
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// Conditional update keyed on otp_consumed closes the authorization
	// window even under concurrent reset attempts
	updated, err := s.userRepo.ResetPassword(ctx, existingUser.ID, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if !updated {
		return ErrResetNotAuthorized
	}

	return nil
}
