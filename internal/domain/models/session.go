package models

import "time"

// Credential is a backend session token with an absolute expiry. A zero
// ExpiresAt means the backend did not advertise a max-age; such a token
// is treated as expired on process restart and never reused.
type Credential struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Valid reports whether the credential can still be presented at `now`.
func (c Credential) Valid(now time.Time) bool {
	return c.Token != "" && !c.ExpiresAt.IsZero() && now.Before(c.ExpiresAt)
}
