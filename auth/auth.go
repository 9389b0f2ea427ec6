// Package auth checks operator credentials against bcrypt hashes.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// DemoUsers are the stock operators used when none are configured.
var DemoUsers = map[string]string{
	"admin":  "1234",
	"chunks": "Chunks123",
}

// Authenticator holds username -> bcrypt hash.
type Authenticator struct {
	hashes map[string][]byte
}

// New uses pre-hashed credentials.
func New(hashes map[string]string) *Authenticator {
	a := &Authenticator{hashes: make(map[string][]byte, len(hashes))}
	for user, h := range hashes {
		a.hashes[user] = []byte(h)
	}
	return a
}

// FromPlaintext hashes each password once at startup.
func FromPlaintext(users map[string]string, cost int) (*Authenticator, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	a := &Authenticator{hashes: make(map[string][]byte, len(users))}
	for user, pw := range users {
		h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
		if err != nil {
			return nil, fmt.Errorf("hashing password for %s: %w", user, err)
		}
		a.hashes[user] = h
	}
	return a, nil
}

// Check returns ErrInvalidCredentials for an unknown user or wrong password.
func (a *Authenticator) Check(user, password string) error {
	h, ok := a.hashes[user]
	if !ok {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(h, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Hash returns a bcrypt hash suitable for the auth.users config section.
func Hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
