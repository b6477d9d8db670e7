package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxPathLength is the maximum length for URL paths in logs
const MaxPathLength = 500

// SanitizePath sanitizes a URL path for safe logging: fixes invalid UTF-8,
// strips control characters and truncates to MaxPathLength. Request paths
// are attacker-controlled and must not be able to forge log lines.
func SanitizePath(path string) string {
	if path == "" {
		return ""
	}

	if !utf8.ValidString(path) {
		path = strings.ToValidUTF8(path, "")
	}

	var builder strings.Builder
	builder.Grow(len(path))
	for _, r := range path {
		if unicode.IsControl(r) {
			continue
		}
		builder.WriteRune(r)
	}
	path = builder.String()

	if len(path) > MaxPathLength {
		path = path[:MaxPathLength] + "..."
	}

	return path
}
