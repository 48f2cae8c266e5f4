// Package server implements the core HTTP and WebSocket server functionality
// for the chat service.
//
// The implementation is organized into specialized files for configuration,
// authentication, hub management, clients, routing, and HTTP handlers to keep
// the codebase maintainable and testable as the project grows.
package server
