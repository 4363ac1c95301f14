package domain

import (
	"regexp"

	"github.com/google/uuid"
)

// uuidPattern matches a UUID v4 string, case-insensitively. All
// aggregate and event identifiers use this format.
var uuidPattern = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// GenerateUUID mints a cryptographically random UUID v4 string.
func GenerateUUID() string {
	return uuid.New().String()
}

// IsValidUUID reports whether s is a UUID v4 string.
func IsValidUUID(s string) bool {
	return uuidPattern.MatchString(s)
}
