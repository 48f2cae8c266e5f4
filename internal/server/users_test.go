package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestUserStoreRegisterAndAuthenticate covers the happy path and the
// undifferentiated login failure.
func TestUserStoreRegisterAndAuthenticate(t *testing.T) {
	s := NewUserStore()

	if err := s.Register("alice", "correct horse battery"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := s.Authenticate("alice", "correct horse battery"); err != nil {
		t.Errorf("Authenticate failed for correct password: %v", err)
	}

	if err := s.Authenticate("alice", "wrong password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for wrong password, got %v", err)
	}

	if err := s.Authenticate("nobody", "whatever password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

// TestUserStoreRejectsDuplicate verifies usernames are unique in the store.
func TestUserStoreRejectsDuplicate(t *testing.T) {
	s := NewUserStore()

	if err := s.Register("alice", "first password"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := s.Register("alice", "second password"); !errors.Is(err, ErrUserExists) {
		t.Errorf("Expected ErrUserExists, got %v", err)
	}
}

// TestCredentialValidation pins the length rules and their messages.
func TestCredentialValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     RegisterLoginRequest
		wantMsg string
	}{
		{
			name:    "username too short",
			req:     RegisterLoginRequest{Username: "al", Password: "long enough password"},
			wantMsg: "Username must be at least 4 characters long.",
		},
		{
			name:    "password too short",
			req:     RegisterLoginRequest{Username: "alice", Password: "short"},
			wantMsg: "Password must be at least 8 characters long.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("Expected message %q, got %q", tt.wantMsg, err.Error())
			}
		})
	}

	valid := RegisterLoginRequest{Username: "alice", Password: "long enough"}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected valid request, got %v", err)
	}
}

func postJSON(t *testing.T, handler http.HandlerFunc, body interface{}) RegisterLoginResponse {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler(rec, req)

	var resp RegisterLoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return resp
}

// TestRegistrationAndLoginFlow walks the JSON API end to end: register,
// duplicate registration, failed login, successful login, and verification of
// the minted token.
func TestRegistrationAndLoginFlow(t *testing.T) {
	SetConfig(nil)

	creds := RegisterLoginRequest{Username: "frank", Password: "a fine password"}

	resp := postJSON(t, PostRegistrationHandler, creds)
	if !resp.Success || resp.Message != "User registered successfully" {
		t.Fatalf("Unexpected registration response: %+v", resp)
	}

	resp = postJSON(t, PostRegistrationHandler, creds)
	if resp.Success || resp.Message != "Username already exists" {
		t.Errorf("Expected duplicate registration to fail, got %+v", resp)
	}

	resp = postJSON(t, PostLoginHandler, RegisterLoginRequest{Username: "frank", Password: "not the password"})
	if resp.Success || resp.Message != "User does not exist or wrong password" {
		t.Errorf("Expected login failure, got %+v", resp)
	}
	if resp.Token != "" {
		t.Error("Failed login must not include a token")
	}

	resp = postJSON(t, PostLoginHandler, creds)
	if !resp.Success || resp.Message != "Login successfull!" {
		t.Fatalf("Unexpected login response: %+v", resp)
	}
	if resp.Token == "" {
		t.Fatal("Successful login must include a token")
	}

	username, err := NewTokenVerifier().Verify(resp.Token)
	if err != nil {
		t.Fatalf("Login token failed verification: %v", err)
	}
	if username != "frank" {
		t.Errorf("Token subject = %q, want %q", username, "frank")
	}
}

// TestRegistrationValidationOverHTTP verifies the endpoint rejects short
// credentials with the fixed messages.
func TestRegistrationValidationOverHTTP(t *testing.T) {
	resp := postJSON(t, PostRegistrationHandler, RegisterLoginRequest{Username: "al", Password: "long enough password"})
	if resp.Success || resp.Message != "Username must be at least 4 characters long." {
		t.Errorf("Unexpected response for short username: %+v", resp)
	}

	resp = postJSON(t, PostRegistrationHandler, RegisterLoginRequest{Username: "alice", Password: "short"})
	if resp.Success || resp.Message != "Password must be at least 8 characters long." {
		t.Errorf("Unexpected response for short password: %+v", resp)
	}
}
