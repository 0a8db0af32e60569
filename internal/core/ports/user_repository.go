package ports

import (
	"context"

	"github.com/vidstream/account-service/internal/core/domain"
)

// UserRepository is the persistence boundary for user accounts. The stored
// refresh token is the only shared mutable state in the system, so the two
// write paths that touch it have distinct contracts: SetRefreshToken
// overwrites unconditionally (login), RotateRefreshToken is a
// compare-and-swap conditioned on the previous value (refresh).
type UserRepository interface {
	// Create persists a new account and returns it with its assigned ID.
	// Uniqueness violations on username or email return domain.ErrUserExists.
	Create(ctx context.Context, user *domain.UserAccount) (*domain.UserAccount, error)

	// FindByID returns the account or domain.ErrUserNotFound.
	FindByID(ctx context.Context, id string) (*domain.UserAccount, error)

	// FindByIdentifier looks an account up by username (lowercase) or email.
	FindByIdentifier(ctx context.Context, identifier string) (*domain.UserAccount, error)

	// SetRefreshToken overwrites the stored refresh token, invalidating any
	// previously issued one.
	SetRefreshToken(ctx context.Context, id, tok string) error

	// RotateRefreshToken replaces old with next only if old is still the
	// stored value. A lost race or already-rotated token returns
	// domain.ErrTokenMismatch; an unknown id returns domain.ErrUserNotFound.
	RotateRefreshToken(ctx context.Context, id, old, next string) error

	// ClearRefreshToken empties the session slot. Clearing an already-empty
	// slot is not an error.
	ClearRefreshToken(ctx context.Context, id string) error

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// UpdateProfile sets full name and email and returns the updated account.
	UpdateProfile(ctx context.Context, id, fullName, email string) (*domain.UserAccount, error)
}
