package domain

import "time"

// UserAccount is the core aggregate of the service: identity, credentials,
// and the single session slot (the currently valid refresh token).
type UserAccount struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"` // stored lowercase, unique
	Email        string    `json:"email"`    // unique
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	RefreshToken string    `json:"-"` // empty means logged out
	Avatar       string    `json:"avatar"`
	CoverImage   string    `json:"cover_image,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SessionView is the public projection of a UserAccount. It never carries
// the password hash or the refresh token.
type SessionView struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FullName   string    `json:"full_name"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"cover_image,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// View returns the public projection of the account.
func (u *UserAccount) View() *SessionView {
	return &SessionView{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// TokenPair bundles a freshly issued access/refresh token pair. The refresh
// token's current value is mirrored into UserAccount.RefreshToken, which is
// the single source of truth for whether it is still redeemable.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
