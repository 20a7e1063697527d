package auth

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/notebook-api/internal/logging"
	"github.com/redmonkez12/notebook-api/internal/user"
)

// --- fakes ---

// fakeUserRepo is an in-memory user directory with the same conditional
// update semantics as the real repository.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*user.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, username, email, passwordHash string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == username || u.Email == email {
			return nil, user.ErrDuplicate
		}
	}

	u := &user.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	r.users[u.ID] = u

	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, user.ErrNotFound
}

func (r *fakeUserRepo) SetOTP(_ context.Context, userID uuid.UUID, code string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return user.ErrNotFound
	}

	u.OTP = &code
	u.OTPExpiresAt = &expiresAt
	u.OTPConsumed = false
	return nil
}

func (r *fakeUserRepo) ConsumeOTP(_ context.Context, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return false, user.ErrNotFound
	}
	if u.OTPConsumed {
		return false, nil
	}

	u.OTPConsumed = true
	return true, nil
}

func (r *fakeUserRepo) ResetPassword(_ context.Context, userID uuid.UUID, passwordHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return false, user.ErrNotFound
	}
	if !u.OTPConsumed {
		return false, nil
	}

	u.PasswordHash = passwordHash
	u.OTP = nil
	u.OTPExpiresAt = nil
	u.OTPConsumed = false
	return true, nil
}

// setRawOTP plants OTP state directly, bypassing the service, for expiry and
// tie-break cases.
func (r *fakeUserRepo) setRawOTP(email string, code *string, expiresAt *time.Time, consumed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			u.OTP = code
			u.OTPExpiresAt = expiresAt
			u.OTPConsumed = consumed
			return
		}
	}
}

func (r *fakeUserRepo) storedOTP(email string) (string, time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			var code string
			var expiresAt time.Time
			if u.OTP != nil {
				code = *u.OTP
			}
			if u.OTPExpiresAt != nil {
				expiresAt = *u.OTPExpiresAt
			}
			return code, expiresAt, u.OTPConsumed
		}
	}
	return "", time.Time{}, false
}

type fakeEmailService struct {
	otpSent     chan string
	welcomeSent chan string
	sendErr     error
}

func newFakeEmailService() *fakeEmailService {
	return &fakeEmailService{
		otpSent:     make(chan string, 8),
		welcomeSent: make(chan string, 8),
	}
}

func (s *fakeEmailService) SendOTPEmail(_ context.Context, _, code string) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.otpSent <- code
	return nil
}

func (s *fakeEmailService) SendWelcomeEmail(_ context.Context, _, username string) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.welcomeSent <- username
	return nil
}

func waitForSend(t *testing.T, ch chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for email send")
		return ""
	}
}

func newTestService(t *testing.T) (*Service, *fakeUserRepo, *fakeEmailService) {
	t.Helper()
	repo := newFakeUserRepo()
	emails := newFakeEmailService()
	svc := NewService(repo, emails, logging.NewLogger(true), 10*time.Minute)
	return svc, repo, emails
}

// --- tests ---

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		email    string
		wantErr  error
	}{
		{"missing username", "", "pw1", "a@x.com", ErrUsernameRequired},
		{"missing password", "alice", "", "a@x.com", ErrPasswordRequired},
		{"missing email", "alice", "pw1", "", ErrEmailRequired},
		{"malformed email", "alice", "pw1", "not-an-email", ErrInvalidEmailFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.username, tt.password, tt.email)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	svc, _, emails := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "pw1", "a@x.com")
	require.NoError(t, err)
	waitForSend(t, emails.welcomeSent)

	_, err = svc.Register(ctx, "alice", "other", "other@x.com")
	require.ErrorIs(t, err, user.ErrDuplicate)

	_, err = svc.Register(ctx, "bob", "other", "a@x.com")
	require.ErrorIs(t, err, user.ErrDuplicate)
}

func TestRegisterAndLogin(t *testing.T) {
	svc, repo, emails := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice", "pw1", "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", registered.Username)
	assert.Equal(t, "a@x.com", registered.Email)
	assert.Equal(t, "alice", waitForSend(t, emails.welcomeSent))

	// Stored credential must be a hash, never the plaintext
	stored, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", stored.PasswordHash)
	assert.Contains(t, stored.PasswordHash, "$argon2id$")

	loggedIn, err := svc.Login(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, loggedIn.ID)
	assert.Equal(t, "alice", loggedIn.Username)
	assert.Equal(t, "a@x.com", loggedIn.Email)

	_, err = svc.Login(ctx, "alice", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody", "pw1")
	require.ErrorIs(t, err, user.ErrNotFound)
}

func TestIssueOTP(t *testing.T) {
	svc, repo, emails := newTestService(t)
	ctx := context.Background()

	err := svc.IssueOTP(ctx, "missing@x.com")
	require.ErrorIs(t, err, user.ErrNotFound)

	err = svc.IssueOTP(ctx, "")
	require.ErrorIs(t, err, ErrEmailRequired)

	_, err = svc.Register(ctx, "alice", "pw1", "a@x.com")
	require.NoError(t, err)
	waitForSend(t, emails.welcomeSent)

	before := time.Now().UTC()
	require.NoError(t, svc.IssueOTP(ctx, "a@x.com"))

	code, expiresAt, consumed := repo.storedOTP("a@x.com")
	require.Len(t, code, 6)
	n, err := strconv.Atoi(code)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 100000)
	assert.LessOrEqual(t, n, 999999)
	assert.False(t, consumed)

	// Expiry sits 10 minutes out
	assert.WithinDuration(t, before.Add(10*time.Minute), expiresAt, 5*time.Second)

	// The emailed code matches the stored one
	assert.Equal(t, code, waitForSend(t, emails.otpSent))

	// Re-issuing overwrites: the stored code tracks the last email sent
	require.NoError(t, svc.IssueOTP(ctx, "a@x.com"))
	emailed := waitForSend(t, emails.otpSent)
	stored, _, consumed := repo.storedOTP("a@x.com")
	assert.Equal(t, emailed, stored)
	assert.False(t, consumed)
}

func TestIssueOTPDeliveryFailure(t *testing.T) {
	svc, repo, emails := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "pw1", "a@x.com")
	require.NoError(t, err)
	waitForSend(t, emails.welcomeSent)

	emails.sendErr = errors.New("smtp unreachable")

	// Delivery failure never unwinds issuance: the code is stored and valid
	require.NoError(t, svc.IssueOTP(ctx, "a@x.com"))

	code, _, _ := repo.storedOTP("a@x.com")
	require.NotEmpty(t, code)
	require.NoError(t, svc.VerifyOTP(ctx, "a@x.com", code))
}

func TestVerifyOTP(t *testing.T) {
	svc, repo, emails := newTestService(t)
	ctx := context.Background()

	require.Error(t, svc.VerifyOTP(ctx, "", ""))
	require.ErrorIs(t, svc.VerifyOTP(ctx, "a@x.com", ""), ErrOTPRequired)
	require.ErrorIs(t, svc.VerifyOTP(ctx, "", "123456"), ErrOTPRequired)

	require.ErrorIs(t, svc.VerifyOTP(ctx, "missing@x.com", "123456"), user.ErrNotFound)

	_, err := svc.Register(ctx, "alice", "pw1", "a@x.com")
	require.NoError(t, err)
	waitForSend(t, emails.welcomeSent)

	// No code issued yet
	require.ErrorIs(t, svc.VerifyOTP(ctx, "a@x.com", "123456"), ErrInvalidOTP)

	require.NoError(t, svc.IssueOTP(ctx, "a@x.com"))
	code := waitForSend(t, emails.otpSent)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	require.ErrorIs(t, svc.VerifyOTP(ctx, "a@x.com", wrong), ErrInvalidOTP)

	// Surrounding whitespace is tolerated
	require.NoError(t, svc.VerifyOTP(ctx, " a@x.com ", "  "+code+"  "))

	_, _, consumed := repo.storedOTP("a@x.com")
	assert.True(t, consumed)

	// The code is single-use for verification
	require.ErrorIs(t, svc.VerifyOTP(ctx, "a@x.com", code), ErrOTPAlreadyUsed)
}

func TestVerifyOTPExpiry(t *testing.T) {
	svc, repo, emails := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "pw1", "a@x.com")
	require.NoError(t, err)
	waitForSend(t, emails.welcomeSent)

	code := "654321"
	past := time.Now().UTC().Add(-time.Minute)
	future := time.Now().UTC().Add(10 * time.Minute)

	// Correct but expired code
	repo.setRawOTP("a@x.com", &code, &past, false)
	require.ErrorIs(t, svc.VerifyOTP(ctx, "a@x.com", code), ErrOTPExpired)

	// A code without an expiry on record counts as expired
	repo.setRawOTP("a@x.com", &code, nil, false)
	require.ErrorIs(t, svc.VerifyOTP(ctx, "a@x.com", code), ErrOTPExpired)

	// Tie-break: consumed wins over expired for a matching code
	repo.setRawOTP("a@x.com", &code, &past, true)
	require.ErrorIs(t, svc.VerifyOTP(ctx, "a@x.com", code), ErrOTPAlreadyUsed)

	// An unexpired, unconsumed code still verifies
	repo.setRawOTP("a@x.com", &code, &future, false)
	require.NoError(t, svc.VerifyOTP(ctx, "a@x.com", code))
}

func TestResetPassword(t *testing.T) {
	svc, repo, emails := newTestService(t)
	ctx := context.Background()

	require.ErrorIs(t, svc.ResetPassword(ctx, "", "newpw"), ErrEmailRequired)
	require.ErrorIs(t, svc.ResetPassword(ctx, "a@x.com", ""), ErrPasswordRequired)
	require.ErrorIs(t, svc.ResetPassword(ctx, "missing@x.com", "newpw"), user.ErrNotFound)

	_, err := svc.Register(ctx, "alice", "pw1", "a@x.com")
	require.NoError(t, err)
	waitForSend(t, emails.welcomeSent)

	// Reset without a verified OTP is not authorized
	require.ErrorIs(t, svc.ResetPassword(ctx, "a@x.com", "newpw"), ErrResetNotAuthorized)

	// Full protocol: issue -> verify -> reset
	require.NoError(t, svc.IssueOTP(ctx, "a@x.com"))
	code := waitForSend(t, emails.otpSent)
	require.NoError(t, svc.VerifyOTP(ctx, "a@x.com", code))
	require.NoError(t, svc.ResetPassword(ctx, "a@x.com", "newpw"))

	// OTP state is cleared, closing the authorization window
	storedCode, _, consumed := repo.storedOTP("a@x.com")
	assert.Empty(t, storedCode)
	assert.False(t, consumed)

	// New password works, old one does not
	_, err = svc.Login(ctx, "alice", "newpw")
	require.NoError(t, err)
	_, err = svc.Login(ctx, "alice", "pw1")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	// A second reset without re-verification fails
	require.ErrorIs(t, svc.ResetPassword(ctx, "a@x.com", "again"), ErrResetNotAuthorized)

	// The consumed code cannot be verified again either
	require.ErrorIs(t, svc.VerifyOTP(ctx, "a@x.com", code), ErrInvalidOTP)
}
