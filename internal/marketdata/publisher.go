package marketdata

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Nearezz/toy-exchange/internal/domain"
)

const (
	candleCapacity  = 100
	candleInterval  = time.Minute
	defaultInterval = "1m"
)

// RingBuffer is a fixed-size circular buffer that overwrites its oldest entry.
type RingBuffer[T any] struct {
	data  []T
	head  int // next write position
	count int
}

// NewRingBuffer creates a ring buffer holding at most capacity items.
func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &RingBuffer[T]{data: make([]T, capacity)}
}

// Push adds an item to the ring buffer.
func (rb *RingBuffer[T]) Push(v T) {
	rb.data[rb.head] = v
	rb.head = (rb.head + 1) % len(rb.data)
	if rb.count < len(rb.data) {
		rb.count++
	}
}

// Len returns the number of stored items.
func (rb *RingBuffer[T]) Len() int {
	return rb.count
}

// GetAll returns all items in insertion order.
func (rb *RingBuffer[T]) GetAll() []T {
	return rb.GetRecent(rb.count)
}

// GetRecent returns the N most recent items, oldest first.
func (rb *RingBuffer[T]) GetRecent(n int) []T {
	if n <= 0 || rb.count == 0 {
		return nil
	}
	if n > rb.count {
		n = rb.count
	}

	size := len(rb.data)
	result := make([]T, n)
	start := (rb.head - n + size) % size
	for i := 0; i < n; i++ {
		result[i] = rb.data[(start+i)%size]
	}
	return result
}

// TapeEntry is one trade as seen on the public tape.
type TapeEntry struct {
	domain.Trade
	Sequence   uint64    `json:"sequence"`
	ExecutedAt time.Time `json:"executed_at"`
}

// Publisher consumes execution events and keeps a trade tape and candles.
type Publisher struct {
	mu sync.RWMutex

	tape    *RingBuffer[TapeEntry]
	candles *RingBuffer[*domain.Candlestick]
	current *domain.Candlestick // building candle, nil until the first trade of an interval

	// Channel to receive execution events
	ExecutionIn chan *domain.ExecutionEvent

	done      chan struct{}
	ticker    *time.Ticker
	startOnce sync.Once
	stopOnce  sync.Once
	logger    *slog.Logger
}

// NewPublisher creates a new market data publisher.
func NewPublisher(bufferSize, tapeSize int) *Publisher {
	return &Publisher{
		tape:        NewRingBuffer[TapeEntry](tapeSize),
		candles:     NewRingBuffer[*domain.Candlestick](candleCapacity),
		ExecutionIn: make(chan *domain.ExecutionEvent, bufferSize),
		done:        make(chan struct{}),
		logger:      slog.Default().With(slog.String("component", "marketdata")),
	}
}

// Start begins the publisher's application loop.
func (p *Publisher) Start() {
	p.startOnce.Do(func() {
		p.ticker = time.NewTicker(candleInterval)
		go p.run()
	})
}

// Stop shuts down the publisher. It is safe to call more than once.
func (p *Publisher) Stop() {
	p.stopOnce.Do(func() {
		if p.ticker != nil {
			p.ticker.Stop()
		}
		close(p.done)
	})
}

// run is the main application loop.
func (p *Publisher) run() {
	p.logger.Info("publisher started")
	for {
		select {
		case event, ok := <-p.ExecutionIn:
			if !ok {
				p.logger.Info("execution channel closed")
				return
			}
			p.processExecutionEvent(event)
		case <-p.ticker.C:
			p.rotateCandlestick()
		case <-p.done:
			p.logger.Info("publisher stopped")
			return
		}
	}
}

// processExecutionEvent appends trades to the tape and updates the candle.
func (p *Publisher) processExecutionEvent(event *domain.ExecutionEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, trade := range event.Trades {
		p.tape.Push(TapeEntry{Trade: trade, Sequence: event.Sequence, ExecutedAt: event.ExecutedAt})
		p.updateCandle(trade, event.ExecutedAt)
	}
}

func (p *Publisher) updateCandle(trade domain.Trade, at time.Time) {
	if p.current == nil {
		// First trade in this interval
		p.current = &domain.Candlestick{
			Open:      trade.Price,
			High:      trade.Price,
			Low:       trade.Price,
			Close:     trade.Price,
			Volume:    trade.Quantity,
			Timestamp: at.Truncate(candleInterval),
			Interval:  defaultInterval,
		}
		return
	}

	c := p.current
	c.High = max(c.High, trade.Price)
	c.Low = min(c.Low, trade.Price)
	c.Close = trade.Price
	c.Volume += trade.Quantity
}

// rotateCandlestick closes the current candle and starts a new interval.
func (p *Publisher) rotateCandlestick() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return
	}
	p.candles.Push(p.current)
	p.current = nil
}

// GetCandles returns up to count completed candles plus the building one.
func (p *Publisher) GetCandles(count int) []*domain.Candlestick {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := p.candles.GetRecent(count)
	if p.current != nil {
		c := *p.current
		result = append(result, &c)
	}
	return result
}

// GetTrades returns up to limit most recent tape entries, oldest first,
// optionally filtered to trades involving orderID as maker or taker.
func (p *Publisher) GetTrades(orderID string, limit int) []TapeEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var result []TapeEntry
	for _, entry := range p.tape.GetAll() {
		if orderID != "" && entry.MakerOrderID != orderID && entry.TakerOrderID != orderID {
			continue
		}
		result = append(result, entry)
	}
	if limit > 0 && len(result) > limit {
		result = result[len(result)-limit:]
	}
	return result
}

// LastPrice returns the price of the most recent trade on the tape.
func (p *Publisher) LastPrice() (int64, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	recent := p.tape.GetRecent(1)
	if len(recent) == 0 {
		return 0, false
	}
	return recent[0].Price, true
}
