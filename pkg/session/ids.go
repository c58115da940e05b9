package session

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator produces IDs for nodes created without an explicit ID.
// IDs are independent of node position, so two taps at the same spot never
// collide.
type IDGenerator interface {
	NextID() string
}

// UUIDGenerator generates random UUIDv4 IDs. It is the default.
type UUIDGenerator struct{}

// NextID returns a new random UUID string.
func (UUIDGenerator) NextID() string { return uuid.NewString() }

// CounterGenerator generates short sequential IDs such as "n1", "n2".
// The session skips any generated ID already present in the graph, so a
// counter can be used on a loaded graph.
type CounterGenerator struct {
	prefix string
	next   atomic.Uint64
}

// NewCounterGenerator returns a generator producing prefix+1, prefix+2, ...
func NewCounterGenerator(prefix string) *CounterGenerator {
	return &CounterGenerator{prefix: prefix}
}

// NextID returns the next sequential ID.
func (c *CounterGenerator) NextID() string {
	return c.prefix + strconv.FormatUint(c.next.Add(1), 10)
}

// NewIDGenerator returns the generator registered under kind: "uuid" or
// "counter". Unknown kinds fall back to UUIDs.
func NewIDGenerator(kind string) IDGenerator {
	if kind == "counter" {
		return NewCounterGenerator("n")
	}
	return UUIDGenerator{}
}
