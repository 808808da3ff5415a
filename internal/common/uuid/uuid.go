// Package uuid generates the identifiers the client and the simulator hand
// out: time-ordered run ids, device-style session tokens and login nonces.
package uuid

import (
	"encoding/binary"
	"strings"

	"github.com/google/uuid"
)

type UUID = uuid.UUID

// New returns a UUIDv7. Panics if the random source fails.
func New() UUID {
	return uuid.Must(uuid.NewV7())
}

// NewString is New formatted with dashes.
func NewString() string {
	return New().String()
}

// Compact returns the UUID as 32 upper-case hex digits without dashes,
// the shape device session tokens take.
func Compact(u UUID) string {
	return strings.ToUpper(strings.ReplaceAll(u.String(), "-", ""))
}

// Token returns a fresh session token.
func Token() string {
	return Compact(New())
}

// Digits returns n decimal digits taken from the random bits of UUIDv4s.
func Digits(n int) string {
	var b strings.Builder
	var v uint64
	for i := 0; i < n; i++ {
		if v == 0 {
			u := uuid.New()
			v = binary.BigEndian.Uint64(u[8:16])
		}
		b.WriteByte(byte('0' + v%10))
		v /= 10
	}
	return b.String()
}
