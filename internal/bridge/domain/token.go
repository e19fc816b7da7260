package domain

import "time"

// AuthorizationCode is a pending single-use grant created by the
// interactive authorize flow. Records live in memory only and are removed
// either at redemption or when they expire.
type AuthorizationCode struct {
	Code                string
	UserID              string
	Username            string
	ClientID            string
	RedirectURI         string
	CodeChallenge       string
	CodeChallengeMethod string
	ExpiresAt           time.Time
}

// Expired reports whether the code can no longer be redeemed.
func (c AuthorizationCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// RefreshToken is a long-lived opaque credential held server-side. Each
// token is valid for exactly one exchange; the exchange mints a successor.
type RefreshToken struct {
	Token     string
	UserID    string
	Username  string
	Scope     string
	ExpiresAt time.Time
}

// Expired reports whether the refresh token has passed its lifetime.
func (t RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Principal is the identity recovered from a valid access token.
type Principal struct {
	UserID    string
	Username  string
	Scope     string
	ExpiresAt time.Time
}

// TokenPair is the result of a successful grant exchange.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	Scope            string
}
