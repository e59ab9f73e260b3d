package utils

import "golang.org/x/crypto/bcrypt"

// Encode hashes a password with bcrypt.
func Encode(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Matches verifies a password against the encoded representation.
func Matches(encodedPassword, rawPassword string) bool {
	if encodedPassword == "" || rawPassword == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(encodedPassword), []byte(rawPassword)) == nil
}
