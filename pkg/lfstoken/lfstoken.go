// Package lfstoken mints and verifies short-lived transfer credentials for
// the Git LFS transfer and locking APIs.
package lfstoken

import (
	"errors"
	"time"

	"github.com/gitgate/gitgate/pkg/config"
	"github.com/gitgate/gitgate/pkg/jwk"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a credential is malformed, expired, or
// scoped to a different container.
var ErrInvalidToken = errors.New("invalid transfer token")

// Claims are the registered claims plus the transfer operation the credential
// is scoped to.
type Claims struct {
	Operation string `json:"operation"`
	jwt.RegisteredClaims
}

// Manager mints and verifies transfer credentials.
type Manager struct {
	cfg  *config.Config
	pair jwk.Pair
}

// NewManager returns a new Manager using the signing key from cfg's data
// directory.
func NewManager(cfg *config.Config) (*Manager, error) {
	pair, err := jwk.NewPair(cfg)
	if err != nil {
		return nil, err
	}
	return &Manager{cfg: cfg, pair: pair}, nil
}

// Mint returns a signed credential granting subject the given operation on
// the container at path, along with its expiry time.
func (m *Manager) Mint(subject, path, operation string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.cfg.LFS.TokenExpiry)
	claims := Claims{
		Operation: operation,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.cfg.HTTP.PublicURL,
			Audience:  []string{path},
		},
	}

	token := jwt.NewWithClaims(jwk.SigningMethod, claims)
	token.Header["kid"] = m.pair.JWK().KeyID
	signed, err := token.SignedString(m.pair.PrivateKey())
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify parses the credential and checks that it was issued by this server
// for the container at path. The caller is responsible for checking the
// claimed operation against the requested one.
func (m *Manager) Verify(credential, path string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(credential, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, errors.New("invalid signing method")
		}
		return m.pair.JWK().Key, nil
	},
		jwt.WithIssuer(m.cfg.HTTP.PublicURL),
		jwt.WithIssuedAt(),
		jwt.WithAudience(path),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !token.Valid || !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
