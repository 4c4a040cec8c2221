package core

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator mints ids for client-synthesized records (plans built in
// memory before a user saves them). Injected so tests can supply
// deterministic ids.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator is the production generator.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// SequenceIDGenerator yields "p-1", "p-2", ... for deterministic tests.
type SequenceIDGenerator struct {
	n atomic.Int64
}

func (g *SequenceIDGenerator) NewID() string {
	return fmt.Sprintf("p-%d", g.n.Add(1))
}
