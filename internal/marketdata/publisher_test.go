package marketdata

import (
	"testing"
	"time"

	"github.com/Nearezz/toy-exchange/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingBuffer_Push(t *testing.T) {
	rb := NewRingBuffer[int](10)

	for i := 0; i < 5; i++ {
		rb.Push(i)
	}

	assert.Equal(t, 5, rb.Len())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, rb.GetAll())
}

func TestRingBuffer_Overflow(t *testing.T) {
	rb := NewRingBuffer[int](candleCapacity)

	// Push more than capacity
	for i := 0; i < candleCapacity+10; i++ {
		rb.Push(i)
	}

	assert.Equal(t, candleCapacity, rb.Len())
	all := rb.GetAll()
	require.Len(t, all, candleCapacity)
	// Oldest should be index 10 (first 10 were overwritten)
	assert.Equal(t, 10, all[0])
	assert.Equal(t, candleCapacity+9, all[candleCapacity-1])
}

func TestRingBuffer_GetRecent(t *testing.T) {
	rb := NewRingBuffer[int](20)

	for i := 0; i < 10; i++ {
		rb.Push(i)
	}

	assert.Equal(t, []int{7, 8, 9}, rb.GetRecent(3))
	assert.Len(t, rb.GetRecent(50), 10)
	assert.Nil(t, rb.GetRecent(0))
	assert.Nil(t, NewRingBuffer[int](3).GetRecent(1))
}

func trade(price, qty int64, taker, maker string) domain.Trade {
	return domain.Trade{Price: price, Quantity: qty, TakerOrderID: taker, MakerOrderID: maker}
}

func TestPublisher_CandlestickGeneration(t *testing.T) {
	pub := NewPublisher(100, 100)
	now := time.Now()

	for i, tr := range []domain.Trade{
		trade(10010, 100, "t1", "m1"),
		trade(10020, 200, "t2", "m2"),
		trade(10005, 50, "t3", "m3"),
	} {
		pub.processExecutionEvent(&domain.ExecutionEvent{
			Sequence:   uint64(i + 1),
			Trades:     []domain.Trade{tr},
			ExecutedAt: now,
		})
	}

	candles := pub.GetCandles(10)
	require.Len(t, candles, 1) // One building candle

	c := candles[0]
	assert.Equal(t, int64(10010), c.Open)  // First trade
	assert.Equal(t, int64(10020), c.High)  // Highest
	assert.Equal(t, int64(10005), c.Low)   // Lowest
	assert.Equal(t, int64(10005), c.Close) // Last trade
	assert.Equal(t, int64(350), c.Volume)  // 100 + 200 + 50
	assert.Equal(t, now.Truncate(time.Minute), c.Timestamp)
}

func TestPublisher_CandlestickRotation(t *testing.T) {
	pub := NewPublisher(100, 100)
	now := time.Now()

	// First interval
	pub.processExecutionEvent(&domain.ExecutionEvent{
		Trades:     []domain.Trade{trade(10010, 100, "t1", "m1")},
		ExecutedAt: now,
	})

	// Rotate
	pub.rotateCandlestick()

	// Second interval
	pub.processExecutionEvent(&domain.ExecutionEvent{
		Trades:     []domain.Trade{trade(10020, 200, "t2", "m2")},
		ExecutedAt: now.Add(time.Minute),
	})

	candles := pub.GetCandles(10)
	require.Len(t, candles, 2)                     // 1 completed + 1 building
	assert.Equal(t, int64(10010), candles[0].Open) // Completed candle
	assert.Equal(t, int64(10020), candles[1].Open) // Building candle
}

func TestPublisher_IgnoresRestingEvents(t *testing.T) {
	pub := NewPublisher(100, 100)

	pub.processExecutionEvent(&domain.ExecutionEvent{Sequence: 1, ExecutedAt: time.Now()})

	assert.Empty(t, pub.GetTrades("", 0))
	assert.Empty(t, pub.GetCandles(10))
	_, ok := pub.LastPrice()
	assert.False(t, ok)
}

func TestPublisher_GetTrades(t *testing.T) {
	pub := NewPublisher(100, 100)
	now := time.Now()

	pub.processExecutionEvent(&domain.ExecutionEvent{
		Sequence: 2, ExecutedAt: now,
		Trades: []domain.Trade{trade(100, 10, "o1", "o2")},
	})
	pub.processExecutionEvent(&domain.ExecutionEvent{
		Sequence: 4, ExecutedAt: now,
		Trades: []domain.Trade{trade(105, 5, "o3", "o4")},
	})

	// Filter by order ID (taker)
	byTaker := pub.GetTrades("o1", 0)
	require.Len(t, byTaker, 1)
	assert.Equal(t, uint64(2), byTaker[0].Sequence)

	// Filter by order ID (maker)
	assert.Len(t, pub.GetTrades("o4", 0), 1)

	// All, then limited to the most recent
	assert.Len(t, pub.GetTrades("", 0), 2)
	latest := pub.GetTrades("", 1)
	require.Len(t, latest, 1)
	assert.Equal(t, int64(105), latest[0].Price)

	price, ok := pub.LastPrice()
	require.True(t, ok)
	assert.Equal(t, int64(105), price)
}

func TestPublisher_TapeIsBounded(t *testing.T) {
	pub := NewPublisher(10, 3)

	for i := 0; i < 5; i++ {
		pub.processExecutionEvent(&domain.ExecutionEvent{
			Sequence: uint64(i + 1),
			Trades:   []domain.Trade{trade(int64(100+i), 1, "t", "m")},
		})
	}

	tape := pub.GetTrades("", 0)
	require.Len(t, tape, 3)
	assert.Equal(t, uint64(3), tape[0].Sequence)
	assert.Equal(t, uint64(5), tape[2].Sequence)
}

func TestPublisher_RunLoop(t *testing.T) {
	pub := NewPublisher(10, 10)
	pub.Start()
	defer pub.Stop()

	pub.ExecutionIn <- &domain.ExecutionEvent{
		Sequence: 1, ExecutedAt: time.Now(),
		Trades: []domain.Trade{trade(100, 10, "b", "s")},
	}

	assert.Eventually(t, func() bool {
		return len(pub.GetTrades("", 0)) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestPublisher_GetCandles_Empty(t *testing.T) {
	pub := NewPublisher(100, 100)
	assert.Empty(t, pub.GetCandles(10))
}

func TestPublisher_StartStopTwice(t *testing.T) {
	pub := NewPublisher(10, 10)
	pub.Start()
	pub.Start()

	assert.NotPanics(t, func() {
		pub.Stop()
		pub.Stop()
	})
}
