package matching

import (
	"fmt"
	"log/slog"

	"github.com/Nearezz/toy-exchange/internal/domain"
	"github.com/Nearezz/toy-exchange/internal/orderbook"
)

// Engine matches incoming orders against the top of one order book.
//
// Only the front order of the best opposing level is ever a candidate, and
// only an exact quantity match trades. Anything else rests at its own price.
// Engine is not safe for concurrent use; see the sequencer package.
type Engine struct {
	book      *orderbook.OrderBook
	lastTrade *domain.Trade
	logger    *slog.Logger
}

// NewEngine creates a matching engine over book.
func NewEngine(book *orderbook.OrderBook) *Engine {
	return &Engine{
		book:   book,
		logger: slog.Default().With(slog.String("component", "matching")),
	}
}

// WithLogger replaces the engine's logger. Records keep the
// component=matching attribute.
func (e *Engine) WithLogger(logger *slog.Logger) *Engine {
	e.logger = logger.With(slog.String("component", "matching"))
	return e
}

// Book exposes the underlying book for read-only snapshots.
func (e *Engine) Book() *orderbook.OrderBook {
	return e.book
}

// Submit matches order or rests it. It returns zero or one trade.
func (e *Engine) Submit(order domain.Order) ([]domain.Trade, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}

	best, ok := e.opposingBest(order.Side)
	if !ok || !crosses(order, best.Price) {
		return nil, e.rest(order)
	}

	opposite := order.Side.Opposite()
	maker, ok := e.book.Front(opposite, best.Price)
	if !ok {
		return nil, fmt.Errorf("best %s level %d has no front order", opposite, best.Price)
	}

	// No partial fills: a crossing order with a different size rests.
	if maker.Quantity != order.Quantity {
		e.logger.Debug("crossed without exact size, resting",
			slog.String("order_id", order.OrderID),
			slog.Int64("qty", order.Quantity),
			slog.Int64("maker_qty", maker.Quantity),
		)
		return nil, e.rest(order)
	}

	if _, err := e.book.RemoveFront(opposite, best.Price); err != nil {
		return nil, fmt.Errorf("remove filled maker %s: %w", maker.OrderID, err)
	}

	trade := domain.Trade{
		Price:        maker.Price, // execute at maker's (resting) price
		Quantity:     order.Quantity,
		TakerOrderID: order.OrderID,
		MakerOrderID: maker.OrderID,
	}
	e.lastTrade = &trade

	e.logger.Debug("trade",
		slog.Int64("price", trade.Price),
		slog.Int64("qty", trade.Quantity),
		slog.String("taker", trade.TakerOrderID),
		slog.String("maker", trade.MakerOrderID),
	)
	return []domain.Trade{trade}, nil
}

// TopOfBook returns the best bid and best ask.
func (e *Engine) TopOfBook() domain.TopOfBook {
	var top domain.TopOfBook
	if bid, ok := e.book.BestBid(); ok {
		top.Bid = &bid
	}
	if ask, ok := e.book.BestAsk(); ok {
		top.Ask = &ask
	}
	return top
}

// LastTrade returns the most recent trade, if any has happened.
func (e *Engine) LastTrade() (domain.Trade, bool) {
	if e.lastTrade == nil {
		return domain.Trade{}, false
	}
	return *e.lastTrade, true
}

func (e *Engine) opposingBest(side domain.Side) (domain.Quote, bool) {
	if side == domain.SideBuy {
		return e.book.BestAsk()
	}
	return e.book.BestBid()
}

func (e *Engine) rest(order domain.Order) error {
	if err := e.book.Insert(order); err != nil {
		return fmt.Errorf("rest order %s: %w", order.OrderID, err)
	}
	return nil
}

// crosses reports whether order is aggressive enough to trade at bestPrice.
func crosses(order domain.Order, bestPrice int64) bool {
	if order.Side == domain.SideBuy {
		return order.Price >= bestPrice
	}
	return order.Price <= bestPrice
}
