// Package server wires the HTTP handlers into a router.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRoutes configures and returns the application router: the HTML pages,
// the registration/login JSON API, and the WebSocket chat endpoint.
func SetupRoutes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", IndexPageHandler).Methods(http.MethodGet)
	r.HandleFunc("/index", IndexPageHandler).Methods(http.MethodGet)
	r.HandleFunc("/join", JoinHandler).Methods(http.MethodGet)
	r.HandleFunc("/chat", ChatPageHandler).Methods(http.MethodGet)
	r.HandleFunc("/register", RegisterPageHandler).Methods(http.MethodGet)
	r.HandleFunc("/register", PostRegistrationHandler).Methods(http.MethodPost)
	r.HandleFunc("/login", LoginPageHandler).Methods(http.MethodGet)
	r.HandleFunc("/login", PostLoginHandler).Methods(http.MethodPost)
	r.NotFoundHandler = http.HandlerFunc(NotFoundHandler)

	return r
}
