package service

import "github.com/google/uuid"

// IDGenerator produces opaque session identifiers. The default is random;
// tests inject deterministic generators.
type IDGenerator func() string

// DefaultIDGenerator returns a random opaque session id. It is not validated
// for uniqueness or authenticity; it only scopes one session's bookings.
func DefaultIDGenerator() string {
	return uuid.NewString()
}
