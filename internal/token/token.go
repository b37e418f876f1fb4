// Package token generates confirmation tokens. Tokens are URL-safe opaque
// strings drawn from an alphabet with visually ambiguous characters removed,
// sourced from crypto/rand.
package token

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// Length of 32 over a 55-character alphabet gives ~185 bits of entropy.
	Length = 32

	alphabet = "abcdefghjkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

var alphabetLen = big.NewInt(int64(len(alphabet)))

func New() (string, error) {
	buf := make([]byte, Length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf), nil
}
