package user

import (
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/shuleapp/shule/core"
)

const PasswordHashCost = 10

var (
	dummyHash     []byte
	dummyHashInit sync.Once
)

// HashPassword returns a salted bcrypt digest of pwd. Two calls on the same input differ.
// Input over bcrypt's length limit is reported as a validation error on "password".
func HashPassword(pwd string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), PasswordHashCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, core.NewValidationError(core.ErrInvalidInput, core.FieldError{Field: "password", Error: core.PasswordMaxBytesText})
	}
	return hash, err
}

// VerifyPassword reports whether pwd matches hash. A malformed hash never matches.
func VerifyPassword(pwd string, hash []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(pwd)) == nil
}

// BurnVerification runs a verification against a throwaway digest, for lookups that found no user.
func BurnVerification(pwd string) {
	dummyHashInit.Do(func() {
		dummyHash, _ = HashPassword("shule.dummy.password")
	})
	_ = VerifyPassword(pwd, dummyHash)
}
