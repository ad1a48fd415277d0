package util

import (
	"errors"
	"strings"
	"unicode"
)

const maxNameLength = 200

// ErrInvalidName is returned for names that are empty or try to escape a prefix.
var ErrInvalidName = errors.New("invalid file name")

// SanitizeFileName makes a title safe to use as an object key segment.
// Path separators and control characters become underscores.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidName
	}
	s := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case unicode.IsControl(r):
			return '_'
		default:
			return r
		}
	}, strings.TrimSpace(name))
	if s == "" {
		return "", ErrInvalidName
	}
	if len(s) > maxNameLength {
		s = strings.ToValidUTF8(s[:maxNameLength], "")
	}
	return s, nil
}
