package crypto

import "github.com/google/uuid"

// IDGenerator produces the opaque identifiers used for user ids and token
// jti claims.
type IDGenerator interface {
	NewID() (string, error)
}

// UUIDGenerator is the production generator; tests swap in fixed ids.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() (string, error) {
	return uuid.NewString(), nil
}
