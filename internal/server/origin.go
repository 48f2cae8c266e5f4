package server

import (
	"log"
	"net/http"
	"net/url"
	"strings"
)

// canonicalOrigin reduces an origin to lowercase "scheme://host" so browser
// headers and configured entries compare equal regardless of case. It reports
// false for anything that is not an absolute URL with a host.
func canonicalOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(strings.TrimSpace(origin))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}

	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}

// buildOriginAllowList canonicalizes the configured origins for the chat
// upgrade endpoint and reports whether a "*" entry opens it to every origin.
// Entries that cannot be canonicalized are skipped with a warning rather than
// silently allowed.
func buildOriginAllowList(origins []string) ([]string, bool) {
	allowed := make([]string, 0, len(origins))
	allowAll := false

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		switch {
		case trimmed == "":
			continue
		case trimmed == "*":
			allowAll = true
		default:
			canonical, ok := canonicalOrigin(trimmed)
			if !ok {
				log.Printf("Skipping unusable origin in ALLOWED_ORIGINS: %q", origin)
				continue
			}
			allowed = append(allowed, canonical)
		}
	}

	return allowed, allowAll
}

// checkOrigin is the upgrader's origin policy: a join request must carry an
// Origin header matching the configured allow-list. Requests without one are
// refused, since every supported client is a browser page served by this
// process.
func checkOrigin(r *http.Request) bool {
	canonical, ok := canonicalOrigin(r.Header.Get("Origin"))
	if ok && originAllowed(canonical) {
		return true
	}

	log.Printf("Refused chat upgrade from disallowed origin: %q", r.Header.Get("Origin"))
	return false
}

func originAllowed(canonical string) bool {
	configMu.RLock()
	defer configMu.RUnlock()

	if allowAllOrigins {
		return true
	}

	_, exists := allowedOrigins[canonical]
	return exists
}
