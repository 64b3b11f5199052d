package access

import (
	"encoding"
	"errors"
)

// AccessLevel is the level of access an identity holds on a container.
type AccessLevel int // nolint: revive

const (
	// NoAccess denies all access to the container.
	NoAccess AccessLevel = iota

	// ReadOnlyAccess allows fetching from the container.
	ReadOnlyAccess

	// ReadWriteAccess allows fetching from and pushing to the container.
	ReadWriteAccess

	// AdminAccess additionally allows administrative operations such as
	// force-removing other users' locks.
	AdminAccess
)

var levelNames = map[AccessLevel]string{
	NoAccess:        "no-access",
	ReadOnlyAccess:  "read-only",
	ReadWriteAccess: "read-write",
	AdminAccess:     "admin-access",
}

// String returns the string representation of the access level.
func (a AccessLevel) String() string {
	if s, ok := levelNames[a]; ok {
		return s
	}
	return "unknown"
}

// ParseAccessLevel parses an access level string. Unknown strings parse
// to -1.
func ParseAccessLevel(s string) AccessLevel {
	for l, name := range levelNames {
		if s == name {
			return l
		}
	}
	return AccessLevel(-1)
}

var (
	_ encoding.TextMarshaler   = AccessLevel(0)
	_ encoding.TextUnmarshaler = (*AccessLevel)(nil)
)

// ErrInvalidAccessLevel is returned when an invalid access level is provided.
var ErrInvalidAccessLevel = errors.New("invalid access level")

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *AccessLevel) UnmarshalText(text []byte) error {
	l := ParseAccessLevel(string(text))
	if l < 0 {
		return ErrInvalidAccessLevel
	}
	*a = l
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (a AccessLevel) MarshalText() (text []byte, err error) {
	return []byte(a.String()), nil
}
