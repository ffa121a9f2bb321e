package services

import (
	"crypto/rand"
	"fmt"
)

const subscriptionTokenLength = 25

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateSubscriptionToken produces an opaque 25-character alphanumeric
// confirmation token from a cryptographic random source. Rejection sampling
// keeps the distribution uniform over the alphabet.
func GenerateSubscriptionToken() (string, error) {
	// Largest multiple of len(tokenAlphabet) representable in a byte.
	const limit = 248

	out := make([]byte, 0, subscriptionTokenLength)
	buf := make([]byte, 32)
	for len(out) < subscriptionTokenLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, tokenAlphabet[int(b)%len(tokenAlphabet)])
			if len(out) == subscriptionTokenLength {
				break
			}
		}
	}

	return string(out), nil
}
