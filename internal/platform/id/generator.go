package id

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator creates opaque IDs suitable for external references.
type Generator interface {
	NewID() (string, error)
}

// UUIDGenerator issues random version 7 UUIDs so ids sort by creation time.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() (string, error) {
	v, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return v.String(), nil
}

// NewIDs issues n ids in one call.
func NewIDs(g Generator, n int) ([]string, error) {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		v, err := g.NewID()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
