package domain

import "time"

// AuthAction identifies the kind of session event recorded in the audit trail.
type AuthAction string

const (
	ActionRegister       AuthAction = "register"
	ActionLogin          AuthAction = "login"
	ActionLogout         AuthAction = "logout"
	ActionRefresh        AuthAction = "refresh"
	ActionPasswordChange AuthAction = "password_change"
	ActionProfileUpdate  AuthAction = "profile_update"
)

// AuthEvent represents a single auditable session operation. Events are
// recorded outside the request path; losing one must never fail the request.
type AuthEvent struct {
	UserID    string
	Action    AuthAction
	Timestamp time.Time
	RequestID string
	RemoteIP  string
}
