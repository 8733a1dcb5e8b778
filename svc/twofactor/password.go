package twofactor

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a primary password with bcrypt. A zero cost uses bcrypt.DefaultCost.
func HashPassword(password string, cost int) ([]byte, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return bcrypt.GenerateFromPassword([]byte(password), cost)
}

// ComparePassword checks password against a bcrypt hash.
// Any mismatch, including an empty hash, is reported as ErrInvalidCredential.
func ComparePassword(hash []byte, password string) error {
	if len(hash) == 0 || password == "" {
		return ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredential
		}
		return errors.Join(ErrInvalidCredential, err)
	}
	return nil
}
