// Package otp generates and checks short-lived numeric verification codes.
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// CodeLength is the number of digits in a generated code.
const CodeLength = 4

var codeSpace = big.NewInt(10000) // 10^CodeLength

// Generate returns a fixed-length numeric code drawn from crypto/rand,
// zero-padded so "0042" is as likely as "7421".
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", CodeLength, n.Int64()), nil
}

// Hash returns a bcrypt hash of the code. Only the hash is ever persisted.
func Hash(code string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash code: %w", err)
	}
	return string(h), nil
}

// Compare reports whether code matches the stored bcrypt hash.
func Compare(hash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}
