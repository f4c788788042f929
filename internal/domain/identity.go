// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const (
	MaxUsernameLen = 36

	// DefaultRole is assigned to every issued token; there is no
	// external authorization lookup.
	DefaultRole = "employee"
)

var (
	ErrUsernameEmpty   = errors.New("username empty")
	ErrUsernameTooLong = errors.New("username too long")
)

// ConnID identifies one live signaling connection. Assigned at upgrade
// time, unique for the lifetime of the process.
type ConnID string

// RoomID names a discovery scope. Rooms are created on first join and
// deleted when their last member leaves.
type RoomID string

// Identity is the verified subject of a connection. It is attached
// exactly once, at authentication time, and never changes afterwards.
type Identity struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// NewIdentity validates the username and pairs it with a role.
func NewIdentity(username, role string) (Identity, error) {
	if username == "" {
		return Identity{}, ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return Identity{}, ErrUsernameTooLong
	}
	return Identity{Username: username, Role: role}, nil
}
