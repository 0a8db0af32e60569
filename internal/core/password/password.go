// Package password provides one-way credential hashing backed by bcrypt.
// bcrypt embeds a random per-call salt, so hashing the same plaintext twice
// yields different strings, and its comparison does not leak where a
// mismatch occurs.
package password

import "golang.org/x/crypto/bcrypt"

// Hash returns a salted bcrypt hash of plaintext.
func Hash(plaintext string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Verify reports whether plaintext matches hash. A malformed hash verifies
// as false, never as an error: callers treat any failure as bad credentials.
func Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
