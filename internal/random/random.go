// Package random generates the identifiers and codes that must be
// unpredictable: session IDs and one-time login codes. Everything here
// reads from crypto/rand; there is no seeded or math/rand path.
package random

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"math/big"
	"strconv"
)

const idSize = 16

// NewID returns a 16-byte random identifier rendered as unpadded
// base64url (22 characters). Used for session IDs.
func NewID() (string, error) {
	var raw [idSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// NumericCode returns a decimal code with exactly the requested number
// of digits, drawn uniformly from [10^(digits-1), 10^digits). The first
// digit is never zero, so the string length always equals digits.
func NumericCode(digits int) (string, error) {
	if digits < 4 || digits > 10 {
		return "", errors.New("invalid code digits")
	}

	low := int64(1)
	for i := 1; i < digits; i++ {
		low *= 10
	}

	n, err := rand.Int(rand.Reader, big.NewInt(9*low))
	if err != nil {
		return "", err
	}

	return strconv.FormatInt(low+n.Int64(), 10), nil
}
