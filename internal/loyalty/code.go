package loyalty

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"gorm.io/gorm"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewRedemptionCode returns a random uppercase alphanumeric code used
// as the external in-store verification token.
func NewRedemptionCode(length int) (string, error) {
	buf := make([]byte, length)
	limit := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// InsertWithUniqueCode drives insert with fresh random codes until one
// lands or the retry budget runs out. insert must surface a code
// collision as gorm.ErrDuplicatedKey; any other error aborts
// immediately. Collisions are an internal concern and never become a
// caller-visible failure while retries remain.
func InsertWithUniqueCode(length, retries int, insert func(code string) error) (string, error) {
	for attempt := 0; attempt <= retries; attempt++ {
		code, err := NewRedemptionCode(length)
		if err != nil {
			return "", err
		}

		err = insert(code)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", err
		}
	}
	return "", fmt.Errorf("could not allocate a unique redemption code after %d attempts", retries+1)
}
