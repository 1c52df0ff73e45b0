package service

import (
	"crypto/rand"
	"encoding/binary"
	"slices"
)

const (
	alphabet            = "0123456789abcdefghijklmnopqrstuvwxyz"
	generatedSlugLength = 7
	maxSlugAttempts     = 5
)

// randomSlug draws a random number and writes it in base 36, keeping the
// low generatedSlugLength digits.
func randomSlug() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return base36Encode(binary.BigEndian.Uint64(b[:]), generatedSlugLength), nil
}

func base36Encode(n uint64, width int) string {
	res := make([]byte, 0, width)
	for len(res) < width {
		res = append(res, alphabet[n%uint64(len(alphabet))])
		n /= uint64(len(alphabet))
	}
	slices.Reverse(res)
	return string(res)
}
