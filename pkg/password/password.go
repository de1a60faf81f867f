package password

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinLength = 6
	MaxLength = 100
)

var ErrTooWeak = errors.New("password does not meet policy")

// Hasher hashes and verifies account passwords.
type Hasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) bool
}

type bcryptHasher struct {
	cost int
}

// NewHasher returns a bcrypt hasher. Costs outside bcrypt's range use the default.
func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

func (h *bcryptHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *bcryptHasher) Compare(hash, plain string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// MeetsComplexity reports whether p has an upper-case letter, a lower-case
// letter and a digit.
func MeetsComplexity(p string) bool {
	var upper, lower, digit bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

// Validate applies the full account password policy.
func Validate(p string) error {
	n := utf8.RuneCountInString(p)
	if n < MinLength {
		return fmt.Errorf("%w: must be at least %d characters long", ErrTooWeak, MinLength)
	}
	if n > MaxLength {
		return fmt.Errorf("%w: cannot exceed %d characters", ErrTooWeak, MaxLength)
	}
	if !MeetsComplexity(p) {
		return fmt.Errorf("%w: must contain at least one uppercase letter, one lowercase letter, and one digit", ErrTooWeak)
	}
	return nil
}
