package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"storefront/internal/auth"
	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"go.uber.org/zap"
)

const (
	maxUsernameLength = 150
	minPasswordLength = 8
	// bcrypt ignores input past 72 bytes
	maxPasswordLength = 72
)

// SignupInput is the registration payload
type SignupInput struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password2"`
}

// AccountService handles signup, login and token lifecycle
type AccountService struct {
	store   *store.Store
	hasher  *auth.PasswordHasher
	tokens  *auth.Manager
	revoker TokenRevoker
	logger  *zap.Logger
}

// NewAccountService creates a new account service
func NewAccountService(store *store.Store, hasher *auth.PasswordHasher, tokens *auth.Manager, revoker TokenRevoker) *AccountService {
	return &AccountService{
		store:   store,
		hasher:  hasher,
		tokens:  tokens,
		revoker: revoker,
		logger:  util.GetLogger(),
	}
}

// Signup registers a new user
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "AccountService.Signup")
	defer span.End()

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateSignup(in); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User signed up", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

func validateSignup(in SignupInput) error {
	if in.Username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidSignup)
	}
	if len(in.Username) > maxUsernameLength {
		return fmt.Errorf("%w: username must be at most %d characters", ErrInvalidSignup, maxUsernameLength)
	}
	for _, r := range in.Username {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !strings.ContainsRune("@.+-_", r) {
			return fmt.Errorf("%w: username may contain only letters, digits and @/./+/-/_", ErrInvalidSignup)
		}
	}
	if in.Email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidSignup)
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return fmt.Errorf("%w: enter a valid email address", ErrInvalidSignup)
	}
	if len(in.Password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidSignup, minPasswordLength)
	}
	if len(in.Password) > maxPasswordLength {
		return fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidSignup, maxPasswordLength)
	}
	if in.Password != in.PasswordConfirm {
		return fmt.Errorf("%w: password fields didn't match", ErrInvalidSignup)
	}
	return nil
}

// Login verifies credentials and issues a token pair
func (s *AccountService) Login(ctx context.Context, username, password string) (*auth.TokenPair, error) {
	ctx, span := util.StartSpan(ctx, "AccountService.Login")
	defer span.End()

	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		s.logger.Info("Failed login attempt", zap.String("username", username))
		return nil, ErrInvalidCredentials
	}

	return s.tokens.IssuePair(user.ID, user.Username)
}

// Refresh exchanges a refresh token for a new pair and revokes the old one
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	ctx, span := util.StartSpan(ctx, "AccountService.Refresh")
	defer span.End()

	claims, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	revoked, err := s.revoker.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check token denylist: %w", err)
	}
	if revoked {
		return nil, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.revoke(ctx, claims); err != nil {
		return nil, err
	}
	return s.tokens.IssuePair(user.ID, user.Username)
}

// Logout revokes the access token and, when given, the refresh token
func (s *AccountService) Logout(ctx context.Context, access *auth.Claims, refreshToken string) error {
	ctx, span := util.StartSpan(ctx, "AccountService.Logout")
	defer span.End()

	if refreshToken != "" {
		claims, err := s.tokens.ValidateRefresh(refreshToken)
		if err != nil {
			return ErrInvalidCredentials
		}
		if claims.UserID != access.UserID {
			return ErrInvalidCredentials
		}
		if err := s.revoke(ctx, claims); err != nil {
			return err
		}
	}
	return s.revoke(ctx, access)
}

func (s *AccountService) revoke(ctx context.Context, claims *auth.Claims) error {
	var ttl time.Duration
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if err := s.revoker.RevokeToken(ctx, claims.ID, ttl); err != nil {
		s.logger.Error("Failed to revoke token", zap.String("jti", claims.ID), zap.Error(err))
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// Authenticate validates an access token and checks it was not logged out
func (s *AccountService) Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error) {
	claims, err := s.tokens.ValidateAccess(accessToken)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revoker.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		// an unreachable denylist fails closed
		return nil, fmt.Errorf("failed to check token denylist: %w", err)
	}
	if revoked {
		return nil, auth.ErrInvalidToken
	}
	return claims, nil
}

// Profile returns the authenticated user's account
func (s *AccountService) Profile(ctx context.Context, userID int64) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "AccountService.Profile")
	defer span.End()

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}
