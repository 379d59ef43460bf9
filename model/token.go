// file: model/token.go

package model

import (
	"database/sql"
	"time"
)

// RefreshToken holds the data for a refresh token in the database.
// Only the SHA-256 hash of the client-held secret is ever stored.
type RefreshToken struct {
	ID        int            `json:"id"`
	UserID    int            `json:"user_id"`
	TokenHash string         `json:"-"` // The hash is not exposed in JSON responses.
	CreatedAt time.Time      `json:"created_at"`
	ExpiredAt time.Time      `json:"expired_at"`
	RevokedAt sql.NullTime   `json:"-"`
	IPAddress sql.NullString `json:"-"`
	UserAgent sql.NullString `json:"-"`
}

// Active reports whether the token is usable at the given instant.
// Status is derived from the two nullable timestamps rather than a
// stored flag, so the row can never contradict itself.
func (t *RefreshToken) Active(now time.Time) bool {
	return !t.RevokedAt.Valid && t.ExpiredAt.After(now)
}
