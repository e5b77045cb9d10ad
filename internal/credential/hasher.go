// Package credential implements signup sanitization and login verification:
// username/password validation, salted password hashing, uniqueness checks
// against the account store, and deposit wallet allocation.
package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Hasher salts and hashes passwords with one round of SHA-256, matching the
// hash stored against existing accounts. Upgrading to a slow KDF like
// Argon2id would need a versioned hash record to stay compatible with
// those rows.
type Hasher struct {
	saltSize int
}

// NewHasher returns a Hasher minting salts of saltSize bytes.
func NewHasher(saltSize int) *Hasher {
	return &Hasher{saltSize: saltSize}
}

// NewSalt returns saltSize cryptographically random bytes, hex-encoded.
func (h *Hasher) NewSalt() (string, error) {
	buf := make([]byte, h.saltSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("credential: generating salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Hash returns hex(SHA256(password || salt)).
func (h *Hasher) Hash(password, salt string) string {
	sum := sha256.Sum256([]byte(password + salt))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether password hashes to want under salt.
func (h *Hasher) Verify(password, salt, want string) bool {
	return h.Hash(password, salt) == want
}
