// Package server keeps the in-memory account store backing the registration
// and login endpoints.
package server

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Account store failures. The login failure message deliberately does not
// distinguish a missing user from a wrong password.
var (
	ErrUserExists         = errors.New("Username already exists")
	ErrInvalidCredentials = errors.New("User does not exist or wrong password")
)

// UserStore holds registered accounts keyed by username. Passwords are stored
// as bcrypt hashes and accounts live only for the lifetime of the process.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]string
}

// NewUserStore creates an empty account store.
func NewUserStore() *UserStore {
	return &UserStore{
		users: make(map[string]string),
	}
}

// Register creates a new account, hashing the password with bcrypt.
func (s *UserStore) Register(username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return ErrUserExists
	}

	s.users[username] = string(hash)
	return nil
}

// Authenticate checks a username/password pair against the store.
func (s *UserStore) Authenticate(username, password string) error {
	s.mu.RLock()
	hash, exists := s.users[username]
	s.mu.RUnlock()

	if !exists {
		return ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}

	return nil
}
