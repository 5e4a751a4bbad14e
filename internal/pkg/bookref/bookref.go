// Package bookref generates booking references: short, human-legible,
// globally unique strings handed to guests and channels. References are
// opaque and immutable once assigned.
package bookref

import (
	"crypto/rand"
	"fmt"
)

// alphabet drops 0/O/1/I/L so references survive being read over the phone.
const alphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

const refLen = 7

// New returns a fresh reference, e.g. "K7MQ2XC". Uniqueness is ultimately
// enforced by the unique index on reservations.booking_reference; at 31^7
// combinations collisions are retry-once rare.
func New() (string, error) {
	b := make([]byte, refLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("bookref: %w", err)
	}
	out := make([]byte, refLen)
	for i, v := range b {
		out[i] = alphabet[int(v)%len(alphabet)]
	}
	return string(out), nil
}
