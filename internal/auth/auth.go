// Package auth defines the principal seen by the resolvers. Credential
// checking and session hashing live with the application; this package only
// carries the active user into the objects that need it.
package auth

import "sync"

// User is an authenticated actor.
type User interface {
	ID() string
	Username() string
	IsAdmin() bool
}

// PrincipalAware objects accept the active user after construction.
type PrincipalAware interface {
	SetUser(user User) error
}

// Auth is the source of the active user.
type Auth interface {
	User() User
	IsLoggedIn() bool
}

// SameUser reports whether a and b are the same actor.
func SameUser(a, b User) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID() == b.ID()
}

// BasicUser is a plain User value.
type BasicUser struct {
	UserID string `json:"id" yaml:"id"`
	Name   string `json:"username" yaml:"username"`
	Admin  bool   `json:"admin" yaml:"admin"`
}

// NewUser creates a BasicUser.
func NewUser(id, username string, admin bool) *BasicUser {
	return &BasicUser{UserID: id, Name: username, Admin: admin}
}

func (u *BasicUser) ID() string { return u.UserID }
func (u *BasicUser) Username() string { return u.Name }
func (u *BasicUser) IsAdmin() bool { return u.Admin }

// NoAuth never has a user.
type NoAuth struct{}

// NewNoAuth creates an Auth without a user.
func NewNoAuth() *NoAuth {
	return &NoAuth{}
}

func (NoAuth) User() User { return nil }
func (NoAuth) IsLoggedIn() bool { return false }

// StaticAuth always reports the same user, typically an admin for CLI runs.
type StaticAuth struct {
	user User
	mu   sync.RWMutex
}

// NewStaticAuth creates an Auth reporting user.
func NewStaticAuth(user User) *StaticAuth {
	return &StaticAuth{user: user}
}

// User returns the configured user.
func (a *StaticAuth) User() User {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.user
}

// IsLoggedIn reports whether a user is configured.
func (a *StaticAuth) IsLoggedIn() bool {
	return a.User() != nil
}

// Logout drops the user.
func (a *StaticAuth) Logout() {
	a.mu.Lock()
	a.user = nil
	a.mu.Unlock()
}
