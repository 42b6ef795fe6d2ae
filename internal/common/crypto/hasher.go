package crypto

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/featherline/backend/internal/common/constants"
)

// ErrInvalidCredentialFormat marks a stored hash that bcrypt cannot parse, as
// opposed to a plain password mismatch.
var ErrInvalidCredentialFormat = errors.New("invalid credential hash format")

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) error
}

type BcryptHasher struct{}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), constants.BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *BcryptHasher) Compare(hash string, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil || errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrInvalidCredentialFormat, err)
}
