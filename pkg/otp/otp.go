package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"

	"github.com/xlzd/gotp"
)

const (
	CodeMin    = 100000
	CodeMax    = 999999
	CodeLength = 6
)

// Generator creates one-time verification codes and opaque random secrets.
type Generator interface {
	RandomCode() (string, error)
	RandomSecret(n int) string
}

type GOTPGenerator struct{}

func NewGOTPGenerator() *GOTPGenerator {
	return &GOTPGenerator{}
}

// RandomCode returns a uniformly distributed decimal code in [CodeMin, CodeMax].
func (g *GOTPGenerator) RandomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(CodeMax-CodeMin+1))
	if err != nil {
		return "", fmt.Errorf("read random failed: %w", err)
	}

	return strconv.FormatInt(n.Int64()+CodeMin, 10), nil
}

// RandomSecret returns n random bytes as unpadded base32, so the result is longer than n.
// It is empty if the random source fails.
func (g *GOTPGenerator) RandomSecret(n int) string {
	return gotp.RandomSecret(n)
}

// IsCode reports whether s has the shape of an issued code.
func IsCode(s string) bool {
	if len(s) != CodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s[0] != '0'
}
