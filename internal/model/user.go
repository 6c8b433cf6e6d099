// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Username and email are stored lowercased and trimmed; both carry UNIQUE
// constraints in the database. PasswordHash holds the bcrypt hash; the
// plaintext password never survives past registration. RefreshToken holds
// the single currently-active refresh token for the account ("" when logged
// out); issuing a new one replaces it, which is what invalidates older
// tokens on rotation.
//
// PasswordHash and RefreshToken are tagged `json:"-"` so that a User is
// always safe to put in an API response: the sensitive fields can never be
// serialized, no matter which handler returns the record.
type User struct {
	ID            string    `json:"id"            db:"id"`
	Username      string    `json:"username"      db:"username"`
	Email         string    `json:"email"         db:"email"`
	FullName      string    `json:"fullName"      db:"full_name"`
	PasswordHash  string    `json:"-"             db:"password_hash"`
	AvatarURL     string    `json:"avatarUrl"     db:"avatar_url"`
	CoverImageURL string    `json:"coverImageUrl" db:"cover_image_url"`
	RefreshToken  string    `json:"-"             db:"refresh_token"`
	CreatedAt     time.Time `json:"createdAt"     db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt"     db:"updated_at"`
}
