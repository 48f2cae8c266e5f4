// Package server defines the fixed server-to-client notices and small shared
// helpers reused across client and hub logic.
package server

import (
	"errors"
	"fmt"
	"strings"
)

// Fixed notices. Clients match on these strings, so they must not change.
const (
	noticeCapacity = "Maximum users reached, wait a bit and try again"
	noticeThrottle = "You are sending messages too fast, slow down."
)

func noticeWelcome(username string) string {
	return fmt.Sprintf("Welcome %s!", username)
}

func noticeJoined(username string) string {
	return fmt.Sprintf("%s joined.", username)
}

func noticeLeft(username string) string {
	return fmt.Sprintf("%s left.", username)
}

func noticeError(err error) string {
	return fmt.Sprintf("Error: %s", err)
}

func formatChat(username, text string) string {
	return fmt.Sprintf("%s: %s", username, text)
}

var (
	errUsernameTooShort = errors.New("Username must be at least 4 characters long.")
	errPasswordTooShort = errors.New("Password must be at least 8 characters long.")
)

// RegisterLoginRequest is the JSON payload accepted by the registration and
// login endpoints.
type RegisterLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate enforces the minimum credential lengths shared by registration
// and login.
func (r RegisterLoginRequest) Validate() error {
	if len(r.Username) < 4 {
		return errUsernameTooShort
	}

	if len(r.Password) < 8 {
		return errPasswordTooShort
	}

	return nil
}

// RegisterLoginResponse is the JSON payload returned by the registration and
// login endpoints. Token is set only on a successful login.
type RegisterLoginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
