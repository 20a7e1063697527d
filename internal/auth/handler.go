package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/redmonkez12/notebook-api/internal/httputil"
	"github.com/redmonkez12/notebook-api/internal/logging"
	"github.com/redmonkez12/notebook-api/internal/user"
)

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service     *Service
	rateLimiter RateLimiter
	logger      *logging.Logger
}

func NewHandler(service *Service, rateLimiter RateLimiter, logger *logging.Logger) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SendOTPRequest represents the OTP issuance request body
type SendOTPRequest struct {
	Email string `json:"email"`
}

// VerifyOTPRequest represents the OTP verification request body
type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// ResetPasswordRequest represents the password reset request body
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}

// UserResponse represents a user's public identity in API responses
type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// LoginResponse represents a successful login
type LoginResponse struct {
	Success bool         `json:"success"`
	User    UserResponse `json:"user"`
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create a new user account. A welcome email is sent best-effort.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration fields"
// @Success      201 {object} httputil.Envelope
// @Failure      400 {object} httputil.Envelope "Missing or invalid fields"
// @Failure      409 {object} httputil.Envelope "Username or email already exists"
// @Failure      500 {object} httputil.Envelope "Internal server error"
// @Router       /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	// Rate limit by IP
	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimit(r.Context(), ip, "register")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for register", "ip", ip)
		respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"username": req.Username})

	// Record IP request for rate limiting
	if err := h.rateLimiter.RecordIPRequest(r.Context(), ip, "register"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	newUser, err := h.service.Register(r.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrDuplicate) {
			logger.Warn("registration failed: user already exists")
			respondError(w, "user already exists", httputil.CodeUserAlreadyExists, http.StatusConflict)
			return
		}
		if errors.Is(err, ErrUsernameRequired) {
			respondError(w, err.Error(), httputil.CodeUsernameRequired, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrPasswordRequired) {
			respondError(w, err.Error(), httputil.CodePasswordRequired, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrEmailRequired) {
			respondError(w, err.Error(), httputil.CodeEmailRequired, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrInvalidEmailFormat) {
			respondError(w, err.Error(), httputil.CodeInvalidEmailFormat, http.StatusBadRequest)
			return
		}
		logger.Error("registration failed: internal error", "error", err.Error())
		respondError(w, "failed to register user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user registered successfully", "user_id", newUser.ID)

	httputil.RespondSuccess(w, "registration successful", http.StatusCreated)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate a user and return the public identity fields
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} LoginResponse
// @Failure      400 {object} httputil.Envelope "Invalid request body"
// @Failure      401 {object} httputil.Envelope "Invalid password"
// @Failure      404 {object} httputil.Envelope "Unknown username"
// @Failure      500 {object} httputil.Envelope "Internal server error"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"username": req.Username})

	loggedInUser, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			logger.Warn("login failed: user not found")
			respondError(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid password")
			respondError(w, "invalid password", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
			return
		}
		if errors.Is(err, ErrUsernameRequired) || errors.Is(err, ErrPasswordRequired) {
			respondError(w, err.Error(), httputil.CodeInvalidRequestBody, http.StatusBadRequest)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		respondError(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in successfully", "user_id", loggedInUser.ID)

	respondJSON(w, LoginResponse{
		Success: true,
		User: UserResponse{
			ID:       loggedInUser.ID,
			Username: loggedInUser.Username,
			Email:    loggedInUser.Email,
		},
	}, http.StatusOK)
}

// SendOTP handles one-time passcode issuance
// @Summary      Send a password reset OTP
// @Description  Generate a 6-digit code, store it with its expiry and email it to the user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body SendOTPRequest true "Email address"
// @Success      200 {object} httputil.Envelope
// @Failure      400 {object} httputil.Envelope "Missing email"
// @Failure      404 {object} httputil.Envelope "Unknown email"
// @Failure      500 {object} httputil.Envelope "Internal server error"
// @Router       /auth/send-otp [post]
func (h *Handler) SendOTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req SendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid send-otp request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if err := h.service.IssueOTP(r.Context(), req.Email); err != nil {
		if errors.Is(err, ErrEmailRequired) {
			respondError(w, err.Error(), httputil.CodeEmailRequired, http.StatusBadRequest)
			return
		}
		if errors.Is(err, user.ErrNotFound) {
			logger.Warn("send-otp failed: email not registered")
			respondError(w, "email not registered", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		logger.Error("send-otp failed: internal error", "error", err.Error())
		respondError(w, "failed to send otp", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("otp issued")

	httputil.RespondSuccess(w, "", http.StatusOK)
}

// VerifyOTP handles one-time passcode verification
// @Summary      Verify a password reset OTP
// @Description  Validate the submitted code and mark it consumed, authorizing a single password reset
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body VerifyOTPRequest true "Email and code"
// @Success      200 {object} httputil.Envelope
// @Failure      400 {object} httputil.Envelope "Missing, invalid, used or expired code"
// @Failure      404 {object} httputil.Envelope "Unknown email"
// @Failure      500 {object} httputil.Envelope "Internal server error"
// @Router       /auth/verify-otp [post]
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid verify-otp request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if err := h.service.VerifyOTP(r.Context(), req.Email, req.OTP); err != nil {
		if errors.Is(err, ErrOTPRequired) {
			respondError(w, "email and otp required", httputil.CodeOTPRequired, http.StatusBadRequest)
			return
		}
		if errors.Is(err, user.ErrNotFound) {
			logger.Warn("verify-otp failed: user not found")
			respondError(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		if errors.Is(err, ErrInvalidOTP) {
			logger.Warn("verify-otp failed: invalid code")
			respondError(w, "invalid otp", httputil.CodeInvalidOTP, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrOTPAlreadyUsed) {
			logger.Warn("verify-otp failed: code already used")
			respondError(w, "otp already used", httputil.CodeOTPAlreadyUsed, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrOTPExpired) {
			logger.Warn("verify-otp failed: code expired")
			respondError(w, "otp expired", httputil.CodeOTPExpired, http.StatusBadRequest)
			return
		}
		logger.Error("verify-otp failed: internal error", "error", err.Error())
		respondError(w, "failed to verify otp", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("otp verified")

	httputil.RespondSuccess(w, "", http.StatusOK)
}

// ResetPassword handles the final step of the OTP reset protocol
// @Summary      Reset password
// @Description  Set a new password; only authorized by a prior successful OTP verification
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ResetPasswordRequest true "Email and new password"
// @Success      200 {object} httputil.Envelope
// @Failure      400 {object} httputil.Envelope "Missing fields"
// @Failure      403 {object} httputil.Envelope "OTP verification required"
// @Failure      404 {object} httputil.Envelope "Unknown email"
// @Failure      500 {object} httputil.Envelope "Internal server error"
// @Router       /auth/reset-password [post]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid reset-password request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if err := h.service.ResetPassword(r.Context(), req.Email, req.NewPassword); err != nil {
		if errors.Is(err, ErrEmailRequired) {
			respondError(w, err.Error(), httputil.CodeEmailRequired, http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrPasswordRequired) {
			respondError(w, err.Error(), httputil.CodePasswordRequired, http.StatusBadRequest)
			return
		}
		if errors.Is(err, user.ErrNotFound) {
			logger.Warn("reset-password failed: user not found")
			respondError(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		if errors.Is(err, ErrResetNotAuthorized) {
			logger.Warn("reset-password failed: otp not verified")
			respondError(w, "otp verification required", httputil.CodeResetNotAuthorized, http.StatusForbidden)
			return
		}
		logger.Error("reset-password failed: internal error", "error", err.Error())
		respondError(w, "failed to reset password", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("password reset successfully")

	httputil.RespondSuccess(w, "password reset successfully", http.StatusOK)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	httputil.RespondJSON(w, data, statusCode)
}

// respondError sends an error response with a machine-readable code
func respondError(w http.ResponseWriter, message string, code string, statusCode int) {
	httputil.RespondErrorWithCode(w, message, code, statusCode)
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first (behind proxy/load balancer)
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		// X-Forwarded-For can contain multiple IPs, take the first one
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	// Check X-Real-IP header
	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}

	// Fallback to RemoteAddr
	ip := r.RemoteAddr
	// RemoteAddr format is "IP:port", extract just the IP
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
