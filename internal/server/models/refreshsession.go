package models

import "time"

// RefreshSession is one live refresh token. Rotation rewrites the row in
// place, so a session lineage always occupies exactly one row.
type RefreshSession struct {
	ID           int64     `db:"id"`
	RefreshToken string    `db:"refresh_token"`
	ExpiresIn    int64     `db:"expires_in"` // seconds
	CreatedAt    time.Time `db:"created_at"`
	UserID       string    `db:"user_id"`
}

// ExpiresAt is the first instant at which the session is no longer valid.
func (s *RefreshSession) ExpiresAt() time.Time {
	return s.CreatedAt.Add(time.Duration(s.ExpiresIn) * time.Second)
}

// Expired reports whether the session is past its lifetime at now.
func (s *RefreshSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt())
}

// TokenPair is what a successful login or refresh hands to the client.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
}
