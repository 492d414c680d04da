package auth

import (
	"crypto/rand"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// HashPassword hashes a plaintext password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPassword compares a plaintext password with a bcrypt hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// autoPasswordChars deliberately excludes look-alikes (0/O, 1/l/I)
// since the generated password is read out of an email.
const autoPasswordChars = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateAutoPassword generates a random initial password for a newly
// registered account. The user must change it on first login.
func GenerateAutoPassword(length int) string {
	if length < MinPasswordLength {
		length = 12
	}

	max := big.NewInt(int64(len(autoPasswordChars)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			out[i] = autoPasswordChars[0]
			continue
		}
		out[i] = autoPasswordChars[n.Int64()]
	}
	return string(out)
}
