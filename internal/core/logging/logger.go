package logging

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component creates a new logger with a component identifier.
// Uses the "cmp" key for consistency with zerolog conventions.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}

const (
	maskHead = 8
	maskTail = 4
)

// Mask hides the middle of a secret so it can appear in logs and status
// replies. Secrets too short to keep both ends are masked entirely.
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= maskHead+maskTail {
		return strings.Repeat("*", len(secret))
	}
	return secret[:maskHead] + "..." + secret[len(secret)-maskTail:]
}
