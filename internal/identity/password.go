package identity

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword derives a bcrypt hash for storage.
func HashPassword(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("accounts.hash_password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword compares a stored hash against a candidate password.
func VerifyPassword(storedHash string, candidate string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(candidate)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}
