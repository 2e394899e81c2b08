// Package idgen provides the order id and time sources that stamp orders
// before they reach the matching engine.
package idgen

import (
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Generator hands out unique order identifiers.
type Generator interface {
	NextID() string
}

// UUIDGenerator issues random v4 UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NextID() string { return uuid.NewString() }

// CounterGenerator issues "1", "2", ... and is safe for concurrent use.
type CounterGenerator struct {
	last atomic.Uint64
}

func (g *CounterGenerator) NextID() string {
	return strconv.FormatUint(g.last.Add(1), 10)
}

// New returns the generator registered under kind ("uuid" or "counter").
func New(kind string) (Generator, error) {
	switch kind {
	case "", "uuid":
		return UUIDGenerator{}, nil
	case "counter":
		return &CounterGenerator{}, nil
	default:
		return nil, fmt.Errorf("unknown id generator %q", kind)
	}
}

// Clock is the time source for order timestamps and execution times.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FixedClock always reports the same instant. Useful in tests and replays.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }
