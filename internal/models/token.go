package models

import (
	"time"
)

const TokenTypeBearer = "Bearer"

// Claims carried by a verified access token
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

type AccessToken struct {
	Value     string
	Type      string
	ExpiresAt time.Time
}

type RefreshToken struct {
	ID        string
	Secret    string
	ExpiresAt time.Time

	// Username the session was opened for
	// Server side only: not a part of the wire form and not compared by Equal
	Username string
}

// Equal reports whether both tokens have the same id, secret and expiration
func (t RefreshToken) Equal(other RefreshToken) bool {
	return t.ID == other.ID &&
		t.Secret == other.Secret &&
		t.ExpiresAt.Unix() == other.ExpiresAt.Unix()
}

// Expired reports whether the token is expired at the given moment
func (t RefreshToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Unix() <= now.Unix()
}

// Token pair issued on login
type TokenPair struct {
	Access  AccessToken
	Refresh RefreshToken
}
