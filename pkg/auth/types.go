package auth

import "time"

// User is a registered account. PasswordHash is the bcrypt hash of the
// user's password; the plaintext is never persisted or logged.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Email        string    `json:"email,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the authenticated principal attached to a request after the
// session cookie resolves. It carries only what handlers need to attribute
// writes; everything else lives in the user record.
type Identity struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
}
