package utils

import (
	"fmt"
	"path"
	"strings"
	"unicode"
)

// SanitizeContainerPath returns a sanitized version of the given container
// path with any ".git" suffix removed.
func SanitizeContainerPath(p string) string {
	// We need to use an absolute path for the path to be cleaned correctly.
	p = strings.TrimPrefix(p, "/")
	p = "/" + p

	// We're using path instead of filepath here because this is not OS dependent
	// looking at you Windows
	p = path.Clean(p)
	p = strings.TrimSuffix(p, ".git")
	return p[1:]
}

// ValidateUsername returns an error if the given username is invalid.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	if !unicode.IsLetter(rune(username[0])) {
		return fmt.Errorf("username must start with a letter")
	}

	for _, r := range username {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' {
			return fmt.Errorf("username can only contain letters, numbers, and hyphens")
		}
	}

	return nil
}

// ValidateContainerPath returns an error if the given container path is
// invalid.
func ValidateContainerPath(p string) error {
	if p == "" {
		return fmt.Errorf("container path cannot be empty")
	}

	for _, r := range p {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' && r != '.' && r != '/' {
			return fmt.Errorf("container path can only contain letters, numbers, hyphens, underscores, periods, and slashes")
		}
	}

	return nil
}
