// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const (
	MaxScreennameLen = 64
	MaxEmailLen      = 255
)

var (
	ErrScreennameEmpty   = errors.New("screenname empty")
	ErrScreennameTooLong = errors.New("screenname too long")
	ErrEmailEmpty        = errors.New("email empty")
	ErrEmailTooLong      = errors.New("email too long")
)

type UserID int64

type User struct {
	ID         UserID `json:"id"`
	Screenname string `json:"screenname"`
	Email      string `json:"email"`
	// PasswordHash is never sent to clients.
	PasswordHash string `json:"-"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
// The ID is assigned by the datastore on insert.
func NewUser(screenname, email string) (*User, error) {
	if len(screenname) == 0 {
		return nil, ErrScreennameEmpty
	}
	if len(screenname) > MaxScreennameLen {
		return nil, ErrScreennameTooLong
	}
	if len(email) == 0 {
		return nil, ErrEmailEmpty
	}
	if len(email) > MaxEmailLen {
		return nil, ErrEmailTooLong
	}
	return &User{Screenname: screenname, Email: email}, nil
}
