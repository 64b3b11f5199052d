package backend

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"github.com/charmbracelet/log"
	"golang.org/x/crypto/bcrypt"
)

// Appended to passwords and tokens before hashing.
const hashPepper = "salty-gitgate"

// HashPassword hashes a user password with bcrypt.
func HashPassword(password string) (string, error) {
	crypt, err := bcrypt.GenerateFromPassword([]byte(password+hashPepper), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(crypt), nil
}

// VerifyPassword reports whether password matches the stored bcrypt hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password+hashPepper)) == nil
}

// GenerateToken returns a fresh random token with the gateway prefix. Only
// its hash is ever stored.
func GenerateToken() string {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		log.Error("unable to generate access token")
		return ""
	}
	return "gg_" + hex.EncodeToString(buf)
}

// HashToken hashes a token for storage and lookup.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token + hashPepper))
	return hex.EncodeToString(sum[:])
}
