package models

import "time"

// User is an account that can sign in to the document library.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Name         string    `json:"name" db:"name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	UserID    int64     `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"-"`
	External  bool      `json:"-"` // Issued by an external identity provider
}
