package idgen

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterGenerator_Sequential(t *testing.T) {
	g := &CounterGenerator{}
	assert.Equal(t, "1", g.NextID())
	assert.Equal(t, "2", g.NextID())
	assert.Equal(t, "3", g.NextID())
}

func TestCounterGenerator_Concurrent(t *testing.T) {
	g := &CounterGenerator{}

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := g.NextID()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 800)
}

func TestUUIDGenerator(t *testing.T) {
	g := UUIDGenerator{}
	a, b := g.NextID(), g.NextID()

	_, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestNew(t *testing.T) {
	g, err := New("counter")
	require.NoError(t, err)
	assert.IsType(t, &CounterGenerator{}, g)

	g, err = New("")
	require.NoError(t, err)
	assert.IsType(t, UUIDGenerator{}, g)

	_, err = New("snowflake")
	assert.Error(t, err)
}

func TestFixedClock(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, ts, FixedClock{T: ts}.Now())
}
