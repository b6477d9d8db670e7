package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/conduitapp/conduit-api/internal/auth"
)

// Validate is a shared validator instance
var Validate = validator.New()

// ValidateRole validates that a string names a concrete role (UNKNOWN is the
// coercion target for bad claims, not an assignable role).
func ValidateRole(value string) error {
	switch auth.Role(value) {
	case auth.RoleVisitor, auth.RoleUser, auth.RoleAdmin:
		return nil
	default:
		return fmt.Errorf("invalid role: %s (must be 'VISITOR', 'USER', or 'ADMIN')", value)
	}
}

// SanitizeText sanitizes text input by trimming whitespace and removing
// control characters except newline and tab.
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}
