// Package server sanitizes inbound chat text before it reaches the hub.
package server

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// sanitizer strips all markup; safe for concurrent use.
var sanitizer = bluemonday.StrictPolicy()

// normalizeMessage strips unsafe markup, trims surrounding whitespace, and
// truncates the result to maxLen runes. System join/leave notices never pass
// through here.
func normalizeMessage(text string, maxLen int) string {
	cleaned := strings.TrimSpace(sanitizer.Sanitize(text))

	runes := []rune(cleaned)
	if maxLen > 0 && len(runes) > maxLen {
		return string(runes[:maxLen])
	}

	return cleaned
}
