package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"cryptoJournal/internal/domain"
	"cryptoJournal/internal/ports"
)

const (
	registrationCodeLength   = 6
	registrationCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	minPasswordLength        = 6
)

// AuthConfig holds the account and session policy.
type AuthConfig struct {
	SessionTTL              time.Duration
	AccountValidity         time.Duration // Lifetime of a freshly registered account
	RequireRegistrationCode bool
	BcryptCost              int // Defaults to bcrypt.DefaultCost
}

// RegisterInput carries the sign-up form.
type RegisterInput struct {
	Username         string
	Password         string
	Email            string
	RegistrationCode string
}

// ProfileInput carries the editable profile fields.
type ProfileInput struct {
	Email         string
	Bio           string
	RiskTolerance string
}

// AuthService handles accounts, sessions and registration codes.
type AuthService struct {
	users    ports.UserRepository
	codes    ports.RegistrationCodeRepository
	sessions ports.SessionStore
	clock    ports.Clock
	logger   ports.Logger
	cfg      AuthConfig
}

// NewAuthService creates a new auth service instance.
func NewAuthService(
	users ports.UserRepository,
	codes ports.RegistrationCodeRepository,
	sessions ports.SessionStore,
	clock ports.Clock,
	logger ports.Logger,
	cfg AuthConfig,
) (*AuthService, error) {
	if users == nil || codes == nil || sessions == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for AuthService")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("session TTL must be positive, got %s", cfg.SessionTTL)
	}
	if cfg.AccountValidity <= 0 {
		return nil, fmt.Errorf("account validity must be positive, got %s", cfg.AccountValidity)
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &AuthService{users: users, codes: codes, sessions: sessions, clock: clock, logger: logger, cfg: cfg}, nil
}

// Register creates a regular account valid for the configured period.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if s.cfg.RequireRegistrationCode {
		ok, err := s.VerifyRegistrationCode(ctx, in.RegistrationCode)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.logger.Warn(ctx, "Registration rejected: invalid code", map[string]interface{}{"username": in.Username})
			return nil, ports.ErrInvalidRegistrationCode
		}
	}

	user, err := s.createUser(ctx, in.Username, in.Password, in.Email, false)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "User registered", map[string]interface{}{"userID": user.ID, "username": user.Username})
	return user, nil
}

// CreateAdmin creates an administrator account. Admin accounts never expire.
func (s *AuthService) CreateAdmin(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.createUser(ctx, username, password, "", true)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "Admin user created", map[string]interface{}{"userID": user.ID, "username": user.Username})
	return user, nil
}

func (s *AuthService) createUser(ctx context.Context, username, password, email string, admin bool) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username must be set", ports.ErrInvalidRequest)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ports.ErrInvalidRequest, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.clock.Now().UTC()
	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Email:        strings.TrimSpace(email),
		IsAdmin:      admin,
		Level:        1,
		ExpiryDate:   now.Add(s.cfg.AccountValidity),
		CreatedAt:    now,
	}
	if _, err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ports.ErrDuplicateEntry) {
			return nil, fmt.Errorf("username %q is taken: %w", username, err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and opens a session. Expired non-admin accounts cannot log in.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Session, *domain.User, error) {
	user, err := s.users.FindUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.logger.Warn(ctx, "Login failed", map[string]interface{}{"username": username})
		return nil, nil, ports.ErrInvalidCredentials
	}
	now := s.clock.Now()
	if user.IsExpired(now) {
		s.logger.Warn(ctx, "Login rejected: account expired", map[string]interface{}{"userID": user.ID})
		return nil, nil, ports.ErrAccountExpired
	}

	session := &domain.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("failed to store session: %w", err)
	}
	s.logger.Info(ctx, "User logged in", map[string]interface{}{"userID": user.ID})
	return session, user, nil
}

// Logout drops the session behind token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Authenticate resolves a bearer token into its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ports.ErrUnauthorized
	}
	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, ports.ErrUnauthorized
	}
	user, err := s.users.FindUserByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		_ = s.sessions.Delete(ctx, token)
		return nil, ports.ErrUnauthorized
	}
	if user.IsExpired(s.clock.Now()) {
		return nil, ports.ErrAccountExpired
	}
	return user, nil
}

// UpdateProfile changes the actor's own profile fields.
func (s *AuthService) UpdateProfile(ctx context.Context, actor *domain.User, in ProfileInput) (*domain.User, error) {
	if actor == nil {
		return nil, ports.ErrUnauthorized
	}
	updated := *actor
	updated.Email = strings.TrimSpace(in.Email)
	updated.Bio = in.Bio
	updated.RiskTolerance = in.RiskTolerance
	if err := s.users.UpdateProfile(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &updated, nil
}

// CurrentRegistrationCode returns today's code, generating one if none exists yet.
func (s *AuthService) CurrentRegistrationCode(ctx context.Context) (string, error) {
	code, err := s.codes.LatestRegistrationCode(ctx, s.today())
	if err != nil {
		return "", fmt.Errorf("failed to load registration code: %w", err)
	}
	if code != nil {
		return code.Code, nil
	}
	return s.GenerateRegistrationCode(ctx)
}

// GenerateRegistrationCode creates and stores a fresh code for today, superseding earlier ones.
func (s *AuthService) GenerateRegistrationCode(ctx context.Context) (string, error) {
	code, err := randomCode(registrationCodeLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate registration code: %w", err)
	}
	if err := s.codes.SaveRegistrationCode(ctx, &domain.RegistrationCode{Code: code, Day: s.today()}); err != nil {
		return "", fmt.Errorf("failed to store registration code: %w", err)
	}
	s.logger.Info(ctx, "Registration code generated")
	return code, nil
}

// VerifyRegistrationCode reports whether code matches today's latest code (case-insensitive).
func (s *AuthService) VerifyRegistrationCode(ctx context.Context, code string) (bool, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return false, nil
	}
	current, err := s.codes.LatestRegistrationCode(ctx, s.today())
	if err != nil {
		return false, fmt.Errorf("failed to load registration code: %w", err)
	}
	return current != nil && current.Code == code, nil
}

// ListUsers returns every account. Admin only.
func (s *AuthService) ListUsers(ctx context.Context, actor *domain.User) ([]*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// ExtendExpiry sets a new expiry date on an account. Admin only.
func (s *AuthService) ExtendExpiry(ctx context.Context, actor *domain.User, userID int64, expiry time.Time) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if expiry.IsZero() {
		return fmt.Errorf("%w: expiry date must be set", ports.ErrInvalidRequest)
	}
	if err := s.users.UpdateExpiry(ctx, userID, expiry.UTC()); err != nil {
		return fmt.Errorf("failed to update expiry of user %d: %w", userID, err)
	}
	s.logger.Info(ctx, "User expiry updated", map[string]interface{}{"userID": userID, "expiry": expiry.UTC().Format(time.RFC3339)})
	return nil
}

// DeleteUser removes an account with its trades and sessions. Admin only; admins cannot be deleted.
func (s *AuthService) DeleteUser(ctx context.Context, actor *domain.User, userID int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if actor.ID == userID {
		return fmt.Errorf("admins cannot delete their own account: %w", ports.ErrPermissionDenied)
	}
	target, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	if target == nil {
		return fmt.Errorf("user %d: %w", userID, ports.ErrNotFound)
	}
	if target.IsAdmin {
		return fmt.Errorf("admin accounts cannot be deleted: %w", ports.ErrPermissionDenied)
	}

	if err := s.users.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user %d: %w", userID, err)
	}
	if err := s.sessions.DeleteByUserID(ctx, userID); err != nil {
		s.logger.Error(ctx, err, "Failed to drop sessions of deleted user", map[string]interface{}{"userID": userID})
	}
	s.logger.Info(ctx, "User deleted", map[string]interface{}{"userID": userID, "by": actor.ID})
	return nil
}

func (s *AuthService) today() time.Time {
	now := s.clock.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func randomCode(n int) (string, error) {
	max := big.NewInt(int64(len(registrationCodeAlphabet)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(registrationCodeAlphabet[idx.Int64()])
	}
	return b.String(), nil
}
