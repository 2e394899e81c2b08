package ordermanager

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Nearezz/toy-exchange/internal/domain"
	"github.com/Nearezz/toy-exchange/internal/idgen"
)

// Submitter runs a stamped order through matching. OnExecution callbacks run
// once per accepted order, in sequence order, before Submit returns.
type Submitter interface {
	Submit(ctx context.Context, order domain.Order) (*domain.ExecutionEvent, error)
	OnExecution(fn func(*domain.ExecutionEvent))
}

// OrderRecord is the manager's view of an order it accepted.
type OrderRecord struct {
	Order    domain.Order       `json:"order"`
	Status   domain.OrderStatus `json:"status"`
	Sequence uint64             `json:"sequence"`
	// Counterparty is the other order of the trade that filled this one.
	Counterparty string `json:"counterparty,omitempty"`
}

// Manager is the boundary in front of the engine. It validates raw requests,
// stamps id and timestamp, submits, and remembers what became of each order.
type Manager struct {
	mu     sync.RWMutex
	orders map[string]*OrderRecord // orderID -> record

	submitter Submitter
	ids       idgen.Generator
	clock     idgen.Clock
	logger    *slog.Logger
}

// NewManager creates a new order manager.
// The manager subscribes to submitter's executions, so it must be built
// before the submitter starts.
func NewManager(submitter Submitter, ids idgen.Generator, clock idgen.Clock) *Manager {
	m := &Manager{
		orders:    make(map[string]*OrderRecord),
		submitter: submitter,
		ids:       ids,
		clock:     clock,
		logger:    slog.Default().With(slog.String("component", "ordermanager")),
	}
	submitter.OnExecution(m.apply)
	return m
}

// PlaceOrder validates and submits a new limit order.
func (m *Manager) PlaceOrder(ctx context.Context, rawSide string, price, quantity int64) (*domain.ExecutionEvent, error) {
	side, err := domain.ParseSide(rawSide)
	if err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidQuantity, quantity)
	}

	order := domain.Order{
		OrderID:   m.ids.NextID(),
		Side:      side,
		Price:     price,
		Quantity:  quantity,
		Timestamp: m.clock.Now().Unix(),
	}

	event, err := m.submitter.Submit(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("submit order %s: %w", order.OrderID, err)
	}

	m.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", order.OrderID),
		slog.String("side", string(side)),
		slog.Int64("price", price),
		slog.Int64("qty", quantity),
		slog.Int("trades", len(event.Trades)),
	)
	return event, nil
}

// GetOrder returns a copy of the record for orderID.
func (m *Manager) GetOrder(orderID string) (OrderRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, exists := m.orders[orderID]
	if !exists {
		return OrderRecord{}, false
	}
	return *rec, true
}

// apply records the taker and marks every maker named in a trade as filled.
// Events arrive in sequence order, so a maker is always recorded first.
func (m *Manager) apply(event *domain.ExecutionEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	taker := &OrderRecord{
		Order:    event.Order,
		Status:   domain.OrderStatusResting,
		Sequence: event.Sequence,
	}
	m.orders[event.Order.OrderID] = taker

	for _, trade := range event.Trades {
		taker.Status = domain.OrderStatusFilled
		taker.Counterparty = trade.MakerOrderID

		if maker, exists := m.orders[trade.MakerOrderID]; exists {
			maker.Status = domain.OrderStatusFilled
			maker.Counterparty = trade.TakerOrderID
		}
	}
}
