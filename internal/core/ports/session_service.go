package ports

import (
	"context"

	"github.com/vidstream/account-service/internal/core/domain"
)

// RegisterInput carries the fields required to create an account. AvatarURL
// must already point at an uploaded object; registration does not talk to
// the media store itself.
type RegisterInput struct {
	FullName      string
	Email         string
	Username      string
	Password      string
	AvatarURL     string
	CoverImageURL string // optional
}

// LoginResult bundles the public view with the freshly issued token pair.
type LoginResult struct {
	User   *domain.SessionView
	Tokens domain.TokenPair
}

// SessionService orchestrates the account/session lifecycle.
type SessionService interface {
	// Register creates an account. It never issues tokens: registering is
	// not logging in.
	Register(ctx context.Context, in RegisterInput) (*domain.SessionView, error)

	// Login verifies credentials for a username or email identifier, issues
	// a token pair, and overwrites the stored refresh token (one active
	// session per account).
	Login(ctx context.Context, identifier, password string) (*LoginResult, error)

	// Logout clears the account's session slot. Idempotent.
	Logout(ctx context.Context, userID string) error

	// Refresh redeems a refresh token for a new pair, rotating the stored
	// value. A token that is expired, forged, or no longer the one on file
	// fails with domain.ErrInvalidCredentials.
	Refresh(ctx context.Context, presented string) (*LoginResult, error)

	// ChangePassword replaces the password after verifying the old one, and
	// clears the session slot so existing sessions do not survive the reset.
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword, confirmPassword string) error

	// CurrentSession returns the caller's own public view.
	CurrentSession(ctx context.Context, userID string) (*domain.SessionView, error)

	// UpdateProfile sets full name and email, both required.
	UpdateProfile(ctx context.Context, userID, fullName, email string) (*domain.SessionView, error)
}
