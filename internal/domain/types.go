package domain

import (
	"fmt"
	"strings"
	"time"
)

// Side represents the order side (buy or sell).
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Valid reports whether s is BUY or SELL.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Opposite returns the side an order of side s trades against.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// ParseSide converts a case-insensitive "buy"/"sell" into a Side.
func ParseSide(raw string) (Side, error) {
	side := Side(strings.ToUpper(strings.TrimSpace(raw)))
	if !side.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSide, raw)
	}
	return side, nil
}

// OrderStatus is the lifecycle state tracked outside the core.
type OrderStatus string

const (
	OrderStatusResting OrderStatus = "RESTING"
	OrderStatusFilled  OrderStatus = "FILLED"
)

// Order is a limit order. Prices are integer ticks.
// Timestamp is informational; time priority comes from insertion order.
type Order struct {
	OrderID   string `json:"order_id"`
	Side      Side   `json:"side"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"qty"`
	Timestamp int64  `json:"timestamp"`
}

// Validate rejects orders the book must never hold.
func (o Order) Validate() error {
	if !o.Side.Valid() {
		return fmt.Errorf("order %s: %w: %q", o.OrderID, ErrInvalidSide, o.Side)
	}
	if o.Quantity <= 0 {
		return fmt.Errorf("order %s: %w: %d", o.OrderID, ErrInvalidQuantity, o.Quantity)
	}
	return nil
}

// Trade is the result of a match. Price is always the maker's price.
type Trade struct {
	Price        int64  `json:"price"`
	Quantity     int64  `json:"qty"`
	TakerOrderID string `json:"taker_order_id"`
	MakerOrderID string `json:"maker_order_id"`
}

// Quote is a price with the aggregate quantity resting at it.
type Quote struct {
	Price    int64 `json:"price"`
	Quantity int64 `json:"qty"`
}

// TopOfBook holds the best level of each side; nil means the side is empty.
type TopOfBook struct {
	Bid *Quote `json:"bid"`
	Ask *Quote `json:"ask"`
}

// L2OrderBook represents an aggregated, price-sorted book snapshot.
type L2OrderBook struct {
	Bids []PriceLevel `json:"bids"`
	Asks []PriceLevel `json:"asks"`
}

// PriceLevel represents an aggregated price level in the L2 order book.
type PriceLevel struct {
	Price    int64 `json:"price"`
	Quantity int64 `json:"qty"`
	Orders   int   `json:"orders"`
}

// ExecutionEvent is what the sequencer emits for every accepted order.
type ExecutionEvent struct {
	Sequence   uint64    `json:"sequence"`
	Order      Order     `json:"order"`
	Trades     []Trade   `json:"trades"`
	ExecutedAt time.Time `json:"executed_at"`
}

// Matched reports whether the order was consumed by a trade.
func (e *ExecutionEvent) Matched() bool {
	return len(e.Trades) > 0
}

// Candlestick represents OHLCV data for a time interval.
type Candlestick struct {
	Open      int64     `json:"open"`
	High      int64     `json:"high"`
	Low       int64     `json:"low"`
	Close     int64     `json:"close"`
	Volume    int64     `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
	Interval  string    `json:"interval"`
}
