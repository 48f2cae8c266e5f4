// Package server provides configuration helpers that define runtime defaults,
// validation, and chat policy parameters for the service.
package server

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the server configuration settings including the chat policy
// knobs (capacity, slow mode, message length) and token signing parameters.
type Config struct {
	Port             string
	AllowedOrigins   []string
	MaxClients       int
	SlowModeInterval time.Duration
	MaxMessageLength int
	JWTSecret        string
	JWTExpiry        time.Duration
}

var (
	configMu        sync.RWMutex
	activeConfig    Config
	allowedOrigins  map[string]struct{}
	allowAllOrigins bool
)

func init() {
	SetConfig(nil)
}

func defaultConfig() Config {
	return Config{
		Port: ":3000",
		AllowedOrigins: []string{
			"http://localhost:3000",
		},
		MaxClients:       20,
		SlowModeInterval: 2 * time.Second,
		MaxMessageLength: 100,
		JWTSecret:        "my-32-character-ultra-secure-12",
		JWTExpiry:        60 * time.Minute,
	}
}

func sanitizeConfig(cfg Config) Config {
	if cfg.Port == "" {
		cfg.Port = ":3000"
	}

	if cfg.MaxClients <= 0 {
		cfg.MaxClients = 20
	}

	if cfg.SlowModeInterval <= 0 {
		cfg.SlowModeInterval = 2 * time.Second
	}

	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = 100
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = defaultConfig().JWTSecret
	}

	if cfg.JWTExpiry <= 0 {
		cfg.JWTExpiry = 60 * time.Minute
	}

	canonicalOrigins, allowAll := buildOriginAllowList(cfg.AllowedOrigins)
	cfg.AllowedOrigins = canonicalOrigins

	configMu.Lock()
	defer configMu.Unlock()

	activeConfig = cfg
	allowAllOrigins = allowAll
	allowedOrigins = make(map[string]struct{}, len(canonicalOrigins))
	for _, origin := range canonicalOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	return cfg
}

// SetConfig applies the provided configuration. Passing nil resets to defaults.
func SetConfig(cfg *Config) {
	if cfg == nil {
		defaultCfg := defaultConfig()
		sanitizeConfig(defaultCfg)
		return
	}

	sanitized := Config{
		Port:             cfg.Port,
		AllowedOrigins:   append([]string(nil), cfg.AllowedOrigins...),
		MaxClients:       cfg.MaxClients,
		SlowModeInterval: cfg.SlowModeInterval,
		MaxMessageLength: cfg.MaxMessageLength,
		JWTSecret:        cfg.JWTSecret,
		JWTExpiry:        cfg.JWTExpiry,
	}
	sanitizeConfig(sanitized)
}

func currentConfig() Config {
	configMu.RLock()
	defer configMu.RUnlock()

	cfg := activeConfig
	cfg.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	return cfg
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// NewConfigFromEnv creates a Config instance from environment variables,
// loading a .env file first if one is present. Falls back to default values
// for anything left unset.
func NewConfigFromEnv() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := defaultConfig()

	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Port = port
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseOrigins(origins)
	}

	if maxClients := os.Getenv("MAX_CLIENTS"); maxClients != "" {
		cfg.MaxClients = parseIntValue(maxClients, cfg.MaxClients)
	}

	if interval := os.Getenv("SLOW_MODE_INTERVAL"); interval != "" {
		cfg.SlowModeInterval = parseSeconds(interval, cfg.SlowModeInterval)
	}

	if maxLen := os.Getenv("MAX_MESSAGE_LENGTH"); maxLen != "" {
		cfg.MaxMessageLength = parseIntValue(maxLen, cfg.MaxMessageLength)
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWTSecret = secret
	}

	if expiry := os.Getenv("JWT_EXPIRY_MINUTES"); expiry != "" {
		if minutes, err := strconv.Atoi(expiry); err == nil && minutes > 0 {
			cfg.JWTExpiry = time.Duration(minutes) * time.Minute
		}
	}

	return &cfg
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseIntValue(value string, defaultValue int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return defaultValue
}

func parseSeconds(value string, defaultValue time.Duration) time.Duration {
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
