package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// NewSecureToken returns nBytes of crypto/rand, hex-encoded.
// Used for refresh tokens and trusted-device tokens.
func NewSecureToken(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = 32 // 256 bits by default
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashToken is the storage form of a high-entropy token. A fast digest is
// enough here: the token itself is 256 random bits, unlike the 6-digit
// codes which get bcrypt.
func HashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
