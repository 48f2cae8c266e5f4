// Package server exposes the HTTP handlers: the WebSocket chat endpoint and
// the registration/login JSON API.
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

var (
	store    = NewUserStore()
	verifier = NewTokenVerifier()
)

// GetUserStore returns the global account store.
func GetUserStore() *UserStore {
	return store
}

// JoinHandler upgrades the connection and walks it through the session
// lifecycle: capacity admission first, then the token handshake, then hub
// registration, the join notice, and finally the client's pump goroutines.
func JoinHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	// A full hub rejects the connection before any handshake is attempted.
	if hub.Count() >= currentConfig().MaxClients {
		rejectAtCapacity(conn, r.RemoteAddr)
		return
	}

	client := NewClient(conn, hub, r.RemoteAddr)
	if err := client.Handshake(verifier); err != nil {
		closeConn(conn)
		return
	}

	// Admission is re-checked here; the pre-handshake check is only a fast
	// path and another connection may have taken the last slot meanwhile.
	if err := hub.Register(client); err != nil {
		if errors.Is(err, ErrHubFull) {
			rejectAtCapacity(conn, r.RemoteAddr)
			return
		}
		closeConn(conn)
		return
	}

	hub.Broadcast(noticeJoined(client.Username()))
	hub.startPumps(client)
}

// rejectAtCapacity sends the fixed capacity notice and closes the connection.
// Delivery of the notice is best-effort; the connection is closed regardless.
func rejectAtCapacity(conn *websocket.Conn, addr string) {
	incr(metricRejects, 1)
	log.Printf("Rejected connection from %s: maximum users reached", addr)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(noticeCapacity)); err != nil && !isExpectedCloseError(err) {
		log.Printf("Error writing capacity notice to %s: %v", addr, err)
	}
	closeConn(conn)
}

func closeConn(conn *websocket.Conn) {
	if err := conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil && !isExpectedCloseError(err) {
		log.Printf("Error writing close message: %v", err)
	}
	if err := conn.Close(); err != nil && !isExpectedCloseError(err) {
		log.Printf("Error closing connection: %v", err)
	}
}

// PostRegistrationHandler creates a new account from a JSON request.
func PostRegistrationHandler(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	if err := store.Register(payload.Username, payload.Password); err != nil {
		writeJSON(w, RegisterLoginResponse{Success: false, Message: err.Error()})
		return
	}

	log.Printf("Registered user %q", payload.Username)
	writeJSON(w, RegisterLoginResponse{Success: true, Message: "User registered successfully"})
}

// PostLoginHandler checks credentials and mints a bearer token on success.
// The token is what the client presents in the WebSocket handshake frame.
func PostLoginHandler(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	if err := store.Authenticate(payload.Username, payload.Password); err != nil {
		writeJSON(w, RegisterLoginResponse{Success: false, Message: err.Error()})
		return
	}

	token, err := MintToken(payload.Username)
	if err != nil {
		log.Printf("Failed to mint token for %q: %v", payload.Username, err)
		writeJSON(w, RegisterLoginResponse{Success: false, Message: "JWT token creation error"})
		return
	}

	writeJSON(w, RegisterLoginResponse{Success: true, Message: "Login successfull!", Token: token})
}

// decodeCredentials parses and validates the shared registration/login
// payload, answering the request itself when validation fails.
func decodeCredentials(w http.ResponseWriter, r *http.Request) (RegisterLoginRequest, bool) {
	var payload RegisterLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, RegisterLoginResponse{Success: false, Message: "Invalid request body"})
		return RegisterLoginRequest{}, false
	}

	if err := payload.Validate(); err != nil {
		writeJSON(w, RegisterLoginResponse{Success: false, Message: err.Error()})
		return RegisterLoginRequest{}, false
	}

	return payload, true
}

func writeJSON(w http.ResponseWriter, resp RegisterLoginResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Error writing JSON response: %v", err)
	}
}

// NotFoundHandler answers anything outside the registered routes.
func NotFoundHandler(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "404 page not found", http.StatusNotFound)
}
