// Package domain contains entities without logic, just meta-data.
package domain

import "errors"

const MaxDisplayNameLen = 64

var (
	ErrNameEmpty   = errors.New("display name empty")
	ErrNameTooLong = errors.New("display name too long")
)

// UserID is the durable account key. It is owned by the external account
// store; the engine treats it as an opaque immutable string.
type UserID string

type User struct {
	ID          UserID `json:"id"`
	DisplayName string `json:"display_name"`
}

func (u *User) SetDisplayName(name string) error {
	if len(name) == 0 {
		return ErrNameEmpty
	}
	if len(name) > MaxDisplayNameLen {
		return ErrNameTooLong
	}
	u.DisplayName = name
	return nil
}
