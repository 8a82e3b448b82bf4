package security

import (
	"golang.org/x/crypto/bcrypt"
)

// DefaultHashCost is the bcrypt work factor used for stored passwords.
const DefaultHashCost = 12

// MaxPasswordBytes is the longest input bcrypt reads. Longer passwords are
// accepted and only their first MaxPasswordBytes bytes are significant.
const MaxPasswordBytes = 72

func HashPassword(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword(truncate(password), cost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), truncate(password))
	return err == nil
}

func truncate(password string) []byte {
	b := []byte(password)
	if len(b) > MaxPasswordBytes {
		b = b[:MaxPasswordBytes]
	}
	return b
}
