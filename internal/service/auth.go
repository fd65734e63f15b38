package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/crudkit/identity/internal/auth"
	"github.com/crudkit/identity/internal/domain"
	"github.com/crudkit/identity/internal/repository"
	apperrors "github.com/crudkit/identity/pkg/errors"
)

// resetTokenBytes is the entropy of a password reset token; the resulting
// hex string is twice as long.
const resetTokenBytes = 32

// EventPublisher publishes identity domain events. Implemented by
// event.Producer; mocked in tests.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, user *domain.User) error
	PublishUserPasswordReset(ctx context.Context, userID int64, email, resetToken string) error
}

// AuthService implements the authentication lifecycle: registration, login,
// token rotation, and the password reset and change flows.
type AuthService struct {
	userRepo  repository.UserRepository
	roleRepo  repository.RoleRepository
	tokens    *auth.TokenManager
	hasher    *auth.PasswordHasher
	publisher EventPublisher
	resetTTL  time.Duration
	logger    *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	tokens *auth.TokenManager,
	hasher *auth.PasswordHasher,
	publisher EventPublisher,
	resetTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		roleRepo:  roleRepo,
		tokens:    tokens,
		hasher:    hasher,
		publisher: publisher,
		resetTTL:  resetTTL,
		logger:    logger,
	}
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email    string
	Password string
}

// Register creates a new user account with the default role, hashes the
// password, and returns the user with a fresh token pair.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, *domain.TokenPair, error) {
	if input.Email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if err := auth.ValidateStrength(input.Password); err != nil {
		return nil, nil, err
	}

	role, err := s.roleRepo.GetByName(ctx, domain.RoleUser)
	if err != nil {
		return nil, nil, fmt.Errorf("get default role: %w", err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        input.Email,
		PasswordHash: hash,
		Name:         input.Name,
		IsActive:     true,
		RoleID:       role.ID,
		RoleName:     role.Name,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	tokens, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	// Publish registration event (non-blocking on failure).
	if err := s.publisher.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.Int64("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, tokens, nil
}

// Login authenticates a user with email and password, returning tokens. The
// error for an unknown email and a wrong password is identical so responses
// do not reveal which emails are registered.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*domain.User, *domain.TokenPair, error) {
	if input.Email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, nil, apperrors.InvalidInput("password is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	if !user.IsActive {
		return nil, nil, apperrors.Forbidden("account is deactivated")
	}

	tokens, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.Int64("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, tokens, nil
}

// RefreshToken rotates a valid refresh token into a new pair. Each user holds
// at most one live refresh token; presenting a token that no longer matches
// the stored hash counts as reuse and invalidates the session entirely.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if refreshToken == "" {
		return nil, apperrors.InvalidInput("refresh token is required")
	}

	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired refresh token")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired refresh token")
	}

	if !user.IsActive {
		return nil, apperrors.Forbidden("account is deactivated")
	}

	presented := hashToken(refreshToken)
	if user.RefreshTokenHash == nil || *user.RefreshTokenHash != presented {
		// The token was already rotated or the session revoked. Clear the
		// stored session so a stolen old token cannot race a legitimate one.
		if err := s.userRepo.UpdateRefreshToken(ctx, user.ID, nil); err != nil {
			s.logger.ErrorContext(ctx, "failed to clear session after token reuse",
				slog.Int64("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
		s.logger.WarnContext(ctx, "refresh token reuse detected",
			slog.Int64("user_id", user.ID),
		)
		return nil, apperrors.Unauthorized("invalid or expired refresh token")
	}

	tokens, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "tokens refreshed",
		slog.Int64("user_id", user.ID),
	)

	return tokens, nil
}

// Logout invalidates the user's stored refresh token. The access token stays
// valid until it expires; only the refresh path is cut.
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	if err := s.userRepo.UpdateRefreshToken(ctx, userID, nil); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged out",
		slog.Int64("user_id", userID),
	)

	return nil
}

// ForgotPassword initiates a password reset. The outcome is identical whether
// or not the email is registered; for known accounts a single-use token is
// stored and handed to the mailer via the password_reset event.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return apperrors.InvalidInput("email is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		// Do not reveal whether the email exists.
		s.logger.InfoContext(ctx, "password reset requested for unknown email",
			slog.String("email", email),
		)
		return nil
	}

	token, err := auth.GenerateResetToken(resetTokenBytes)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	expiresAt := time.Now().UTC().Add(s.resetTTL)
	if err := s.userRepo.UpdateResetToken(ctx, user.ID, &token, &expiresAt); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	// Publish password reset event (notification service sends the email).
	if err := s.publisher.PublishUserPasswordReset(ctx, user.ID, user.Email, token); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.password_reset event",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "password reset requested",
		slog.Int64("user_id", user.ID),
	)

	return nil
}

// ResetPassword consumes a reset token and sets a new password. Expired and
// unknown tokens fail identically. A successful reset clears the token and
// any live session.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return apperrors.InvalidInput("reset token is required")
	}
	if err := auth.ValidateStrength(newPassword); err != nil {
		return err
	}

	user, err := s.userRepo.GetByResetToken(ctx, token)
	if err != nil {
		return apperrors.InvalidInput("invalid or expired reset token")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	// Single use: the token is gone after a successful reset.
	if err := s.userRepo.UpdateResetToken(ctx, user.ID, nil, nil); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear reset token",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	// Force re-login everywhere.
	if err := s.userRepo.UpdateRefreshToken(ctx, user.ID, nil); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear session after password reset",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "password reset completed",
		slog.Int64("user_id", user.ID),
	)

	return nil
}

// ChangePassword lets an authenticated user change their password after
// proving the current one. The live session is invalidated afterwards.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	if currentPassword == "" {
		return apperrors.InvalidInput("current password is required")
	}
	if err := auth.ValidateStrength(newPassword); err != nil {
		return err
	}
	if currentPassword == newPassword {
		return apperrors.InvalidInput("new password must be different from current password")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user for password change: %w", err)
	}

	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		return apperrors.Unauthorized("current password is incorrect")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.userRepo.UpdateRefreshToken(ctx, userID, nil); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear session after password change",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "password changed",
		slog.Int64("user_id", userID),
	)

	return nil
}

// Me retrieves the authenticated user's profile.
func (s *AuthService) Me(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user profile: %w", err)
	}
	return user, nil
}

// issuePair creates an access/refresh token pair and stores the refresh
// token's hash on the user row, replacing any previous session.
func (s *AuthService) issuePair(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	tokens, err := s.tokens.IssuePair(user.ID, user.Email, user.RoleName)
	if err != nil {
		return nil, err
	}

	hash := hashToken(tokens.RefreshToken)
	if err := s.userRepo.UpdateRefreshToken(ctx, user.ID, &hash); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return tokens, nil
}

// hashToken returns the SHA256 hex digest of the given token string.
func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
