package orderbook

import (
	"container/list"
	"errors"
	"fmt"
	"slices"

	"github.com/Nearezz/toy-exchange/internal/domain"
)

// ErrLevelNotFound is returned when a side has no orders at the requested price.
var ErrLevelNotFound = errors.New("price level not found")

// bookLevel is a price level in one side of the book.
// It holds a doubly-linked list of orders at this price (FIFO).
type bookLevel struct {
	Price       int64
	TotalVolume int64
	Orders      *list.List // of domain.Order
}

// Book represents one side (buy or sell) of an order book.
// Every level in levels is non-empty and has its price in prices.
type Book struct {
	side       domain.Side
	levels     map[int64]*bookLevel
	prices     []int64 // ascending
	orderCount int
}

// NewBook creates a new order book side.
func NewBook(side domain.Side) *Book {
	return &Book{
		side:   side,
		levels: make(map[int64]*bookLevel),
	}
}

// Side reports which side of the book this is.
func (b *Book) Side() domain.Side {
	return b.side
}

// Best returns the best level of this side: highest bid or lowest ask.
func (b *Book) Best() (domain.Quote, bool) {
	if len(b.prices) == 0 {
		return domain.Quote{}, false
	}

	price := b.prices[0]
	if b.side == domain.SideBuy {
		price = b.prices[len(b.prices)-1]
	}
	return domain.Quote{Price: price, Quantity: b.levels[price].TotalVolume}, true
}

// push appends an order to the tail of its price level's list.
func (b *Book) push(order domain.Order) {
	level, exists := b.levels[order.Price]
	if !exists {
		level = &bookLevel{
			Price:  order.Price,
			Orders: list.New(),
		}
		b.levels[order.Price] = level

		idx, _ := slices.BinarySearch(b.prices, order.Price)
		b.prices = slices.Insert(b.prices, idx, order.Price)
	}

	level.TotalVolume += order.Quantity
	level.Orders.PushBack(order)
	b.orderCount++
}

func (b *Book) front(price int64) (domain.Order, bool) {
	level, exists := b.levels[price]
	if !exists {
		return domain.Order{}, false
	}
	return level.Orders.Front().Value.(domain.Order), true
}

// popFront removes the oldest order at price and drops the level once empty.
func (b *Book) popFront(price int64) (domain.Order, error) {
	level, exists := b.levels[price]
	if !exists {
		return domain.Order{}, fmt.Errorf("%s %d: %w", b.side, price, ErrLevelNotFound)
	}

	order := level.Orders.Remove(level.Orders.Front()).(domain.Order)
	level.TotalVolume -= order.Quantity
	b.orderCount--

	if level.Orders.Len() == 0 {
		delete(b.levels, price)
		if idx, found := slices.BinarySearch(b.prices, price); found {
			b.prices = slices.Delete(b.prices, idx, idx+1)
		}
	}
	return order, nil
}

func (b *Book) aggregated() map[int64]int64 {
	out := make(map[int64]int64, len(b.levels))
	for price, level := range b.levels {
		out[price] = level.TotalVolume
	}
	return out
}

func (b *Book) raw() map[int64][]domain.Order {
	out := make(map[int64][]domain.Order, len(b.levels))
	for price, level := range b.levels {
		orders := make([]domain.Order, 0, level.Orders.Len())
		for e := level.Orders.Front(); e != nil; e = e.Next() {
			orders = append(orders, e.Value.(domain.Order))
		}
		out[price] = orders
	}
	return out
}

// sortedLevels collects price levels best first, truncated to depth when depth > 0.
func (b *Book) sortedLevels(depth int) []domain.PriceLevel {
	n := len(b.prices)
	if depth > 0 && depth < n {
		n = depth
	}

	levels := make([]domain.PriceLevel, 0, n)
	for i := 0; i < n; i++ {
		price := b.prices[i]
		if b.side == domain.SideBuy {
			price = b.prices[len(b.prices)-1-i]
		}
		level := b.levels[price]
		levels = append(levels, domain.PriceLevel{
			Price:    price,
			Quantity: level.TotalVolume,
			Orders:   level.Orders.Len(),
		})
	}
	return levels
}

// OrderBook holds both sides of the book for the single traded instrument.
// It is not safe for concurrent use.
type OrderBook struct {
	bids *Book
	asks *Book
}

// NewOrderBook creates an empty order book.
func NewOrderBook() *OrderBook {
	return &OrderBook{
		bids: NewBook(domain.SideBuy),
		asks: NewBook(domain.SideSell),
	}
}

func (ob *OrderBook) side(side domain.Side) (*Book, error) {
	switch side {
	case domain.SideBuy:
		return ob.bids, nil
	case domain.SideSell:
		return ob.asks, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidSide, side)
	}
}

// Insert appends a resting order to the tail of its price level.
func (ob *OrderBook) Insert(order domain.Order) error {
	if err := order.Validate(); err != nil {
		return err
	}
	book, err := ob.side(order.Side)
	if err != nil {
		return err
	}
	book.push(order)
	return nil
}

// BestBid returns the highest bid price and the total quantity resting there.
func (ob *OrderBook) BestBid() (domain.Quote, bool) {
	return ob.bids.Best()
}

// BestAsk returns the lowest ask price and the total quantity resting there.
func (ob *OrderBook) BestAsk() (domain.Quote, bool) {
	return ob.asks.Best()
}

// AggregatedBids returns price -> total quantity for every bid level.
func (ob *OrderBook) AggregatedBids() map[int64]int64 {
	return ob.bids.aggregated()
}

// AggregatedAsks returns price -> total quantity for every ask level.
func (ob *OrderBook) AggregatedAsks() map[int64]int64 {
	return ob.asks.aggregated()
}

// RawBids returns copies of the resting bids per price, oldest first.
func (ob *OrderBook) RawBids() map[int64][]domain.Order {
	return ob.bids.raw()
}

// RawAsks returns copies of the resting asks per price, oldest first.
func (ob *OrderBook) RawAsks() map[int64][]domain.Order {
	return ob.asks.raw()
}

// Front returns the order next in line at the given level without removing it.
func (ob *OrderBook) Front(side domain.Side, price int64) (domain.Order, bool) {
	book, err := ob.side(side)
	if err != nil {
		return domain.Order{}, false
	}
	return book.front(price)
}

// RemoveFront pops the oldest order at the given level.
func (ob *OrderBook) RemoveFront(side domain.Side, price int64) (domain.Order, error) {
	book, err := ob.side(side)
	if err != nil {
		return domain.Order{}, err
	}
	return book.popFront(price)
}

// OrderCount returns the number of resting orders on a side.
func (ob *OrderBook) OrderCount(side domain.Side) int {
	book, err := ob.side(side)
	if err != nil {
		return 0
	}
	return book.orderCount
}

// LevelCount returns the number of price levels on a side.
func (ob *OrderBook) LevelCount(side domain.Side) int {
	book, err := ob.side(side)
	if err != nil {
		return 0
	}
	return len(book.prices)
}

// L2Snapshot returns an aggregated snapshot: bids descending, asks ascending.
// A depth of zero or less returns every level.
func (ob *OrderBook) L2Snapshot(depth int) *domain.L2OrderBook {
	return &domain.L2OrderBook{
		Bids: ob.bids.sortedLevels(depth),
		Asks: ob.asks.sortedLevels(depth),
	}
}
