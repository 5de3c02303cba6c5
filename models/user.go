package models

import "time"

// User represents an account that owns uploaded files.
// Files are looked up by owner id; the user holds no references to them.
type User struct {
	ID           int64     `json:"id"`
	Login        string    `json:"login"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize password hash
	CreatedAt    time.Time `json:"created_at"`
}
