package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vidstream/account-service/internal/core/domain"
	"github.com/vidstream/account-service/internal/core/password"
	"github.com/vidstream/account-service/internal/core/ports"
	"github.com/vidstream/account-service/internal/core/token"
)

// SessionService implements registration, login, logout, refresh-token
// rotation, password change, and profile reads/updates.
//
// Login failures are reported as domain.ErrInvalidCredentials whether the
// identifier was unknown or the password wrong; the distinction is only
// logged, so responses cannot be used to enumerate usernames.
type SessionService struct {
	repo   ports.UserRepository
	tokens *token.Manager
	logger zerolog.Logger
}

func NewSessionService(repo ports.UserRepository, tokens *token.Manager, logger zerolog.Logger) *SessionService {
	return &SessionService{repo: repo, tokens: tokens, logger: logger}
}

// Register creates an account after checking username/email uniqueness.
// No tokens are issued: registering is not logging in.
func (s *SessionService) Register(ctx context.Context, in ports.RegisterInput) (*domain.SessionView, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.ToLower(strings.TrimSpace(in.Username))

	if fullName == "" || email == "" || username == "" || strings.TrimSpace(in.Password) == "" {
		return nil, domain.NewValidationError("full name, email, username and password are required")
	}
	if in.AvatarURL == "" {
		return nil, domain.NewValidationError("avatar is required")
	}

	for _, ident := range []string{username, email} {
		if _, err := s.repo.FindByIdentifier(ctx, ident); err == nil {
			return nil, domain.ErrUserExists
		} else if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
	}

	hash, err := password.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.repo.Create(ctx, &domain.UserAccount{
		Username:     username,
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		Avatar:       in.AvatarURL,
		CoverImage:   in.CoverImageURL,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", created.ID).Str("username", username).Msg("user registered")
	return created.View(), nil
}

// Login verifies credentials, issues a fresh token pair, and overwrites the
// stored refresh token, invalidating any previously active session.
func (s *SessionService) Login(ctx context.Context, identifier, plain string) (*ports.LoginResult, error) {
	ident := strings.ToLower(strings.TrimSpace(identifier))
	if ident == "" || plain == "" {
		return nil, domain.NewValidationError("username or email and password are required")
	}

	user, err := s.repo.FindByIdentifier(ctx, ident)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Debug().Str("identifier", ident).Msg("login: unknown identifier")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !password.Verify(plain, user.PasswordHash) {
		s.logger.Debug().Str("user_id", user.ID).Msg("login: wrong password")
		return nil, domain.ErrInvalidCredentials
	}

	pair, err := s.issuePair(user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Msg("user logged in")
	return &ports.LoginResult{User: user.View(), Tokens: pair}, nil
}

// Logout clears the session slot. Logging out an already-logged-out or even
// a deleted account is not an error.
func (s *SessionService) Logout(ctx context.Context, userID string) error {
	if err := s.repo.ClearRefreshToken(ctx, userID); err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}
	return nil
}

// Refresh redeems presented for a new token pair. The stored value is the
// single source of truth: a cryptographically valid token that is no longer
// on file has been rotated away and is rejected. The swap itself is a
// compare-and-swap in the repository, so of two concurrent redemptions of
// the same token exactly one wins.
func (s *SessionService) Refresh(ctx context.Context, presented string) (*ports.LoginResult, error) {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return nil, domain.ErrInvalidCredentials
	}

	ident, err := s.tokens.VerifyRefresh(presented)
	if err != nil {
		s.logger.Debug().Err(err).Msg("refresh: token rejected")
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByID(ctx, ident.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if user.RefreshToken != presented {
		s.logger.Warn().Str("user_id", user.ID).Msg("refresh: stale token presented")
		return nil, domain.ErrInvalidCredentials
	}

	pair, err := s.issuePair(user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.RotateRefreshToken(ctx, user.ID, presented, pair.RefreshToken); err != nil {
		if errors.Is(err, domain.ErrTokenMismatch) || errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Warn().Str("user_id", user.ID).Msg("refresh: lost rotation race")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	return &ports.LoginResult{User: user.View(), Tokens: pair}, nil
}

// ChangePassword replaces the password hash after verifying the old
// password, then clears the session slot so a stolen refresh token does not
// survive the reset.
func (s *SessionService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword, confirmPassword string) error {
	if oldPassword == "" || newPassword == "" || confirmPassword == "" {
		return domain.NewValidationError("all password fields are required")
	}
	if newPassword != confirmPassword {
		return domain.NewValidationError("new password and confirmation do not match")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !password.Verify(oldPassword, user.PasswordHash) {
		return domain.ErrInvalidCredentials
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	if err := s.repo.ClearRefreshToken(ctx, user.ID); err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	s.logger.Info().Str("user_id", user.ID).Msg("password changed, sessions cleared")
	return nil
}

// CurrentSession returns the caller's own public view.
func (s *SessionService) CurrentSession(ctx context.Context, userID string) (*domain.SessionView, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.View(), nil
}

// UpdateProfile sets full name and email, both required.
func (s *SessionService) UpdateProfile(ctx context.Context, userID, fullName, email string) (*domain.SessionView, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	if fullName == "" || email == "" {
		return nil, domain.NewValidationError("full name and email are required")
	}

	user, err := s.repo.UpdateProfile(ctx, userID, fullName, email)
	if err != nil {
		return nil, err
	}
	return user.View(), nil
}

func (s *SessionService) issuePair(userID string) (domain.TokenPair, error) {
	access, err := s.tokens.IssueAccess(userID)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefresh(userID)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	return domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
