package models

import "time"

// Identity is the authenticated principal issued by the remote auth
// service. It carries no application attributes; those live on Profile.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session pairs an Identity with its bearer token.
type Session struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Identity    Identity  `json:"user"`
}

// Expired reports whether the session's token is past its expiry.
func (s Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// Profile is the one-to-one application record for an Identity. The row
// may not exist yet within a narrow window after sign-up, so callers
// must tolerate a not-found read.
type Profile struct {
	ID        string `json:"id" db:"id"`
	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`
	Role      Role   `json:"role" db:"role"`
}

// AuthEvent identifies a session state transition delivered to listeners.
type AuthEvent string

const (
	EventSignedIn       AuthEvent = "SIGNED_IN"
	EventSignedOut      AuthEvent = "SIGNED_OUT"
	EventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
)

// ProfileFields carries the profile attributes supplied at sign-up.
type ProfileFields struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
}
