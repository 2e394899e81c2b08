package sequencer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Nearezz/toy-exchange/internal/domain"
	"github.com/Nearezz/toy-exchange/internal/idgen"
	"github.com/Nearezz/toy-exchange/internal/matching"
	"github.com/Nearezz/toy-exchange/internal/telemetry"
)

// ErrStopped is returned once the sequencer has been stopped.
var ErrStopped = errors.New("sequencer stopped")

type submitResult struct {
	event *domain.ExecutionEvent
	err   error
}

type submission struct {
	order domain.Order
	reply chan submitResult
}

type readRequest struct {
	fn   func(*matching.Engine)
	done chan struct{}
}

// Sequencer is the single writer in front of the matching engine. Every
// submit and every read runs on its loop goroutine, one at a time, so a
// match decision never sees a half-applied book.
//
// Accepted orders get a monotonically increasing sequence number and the
// resulting ExecutionEvent is forwarded on ExecutionOut.
type Sequencer struct {
	seq    atomic.Uint64
	engine *matching.Engine
	clock  idgen.Clock
	logger *slog.Logger

	orderIn chan submission
	readIn  chan readRequest

	// ExecutionOut carries every accepted order's event downstream.
	// It is closed when the loop exits.
	ExecutionOut chan *domain.ExecutionEvent

	hooks []func(*domain.ExecutionEvent)

	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewSequencer creates a new sequencer wired to the given matching engine.
func NewSequencer(engine *matching.Engine, bufferSize int, clock idgen.Clock) *Sequencer {
	return &Sequencer{
		engine:       engine,
		clock:        clock,
		logger:       slog.Default().With(slog.String("component", "sequencer")),
		orderIn:      make(chan submission, bufferSize),
		readIn:       make(chan readRequest),
		ExecutionOut: make(chan *domain.ExecutionEvent, bufferSize),
		done:         make(chan struct{}),
	}
}

// OnExecution registers fn to run on the loop goroutine for every accepted
// order, in sequence order, before Submit returns. Call it before Start.
func (s *Sequencer) OnExecution(fn func(*domain.ExecutionEvent)) {
	s.hooks = append(s.hooks, fn)
}

// Start begins the sequencer's application loop in a goroutine.
// Only the first call has an effect.
func (s *Sequencer) Start() {
	s.startOnce.Do(func() { go s.run() })
}

// Stop signals the sequencer to shut down. It is safe to call more than once.
func (s *Sequencer) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// Submit hands order to the engine and waits for the outcome.
func (s *Sequencer) Submit(ctx context.Context, order domain.Order) (*domain.ExecutionEvent, error) {
	if s.stopped() {
		return nil, ErrStopped
	}
	sub := submission{order: order, reply: make(chan submitResult, 1)}

	select {
	case s.orderIn <- sub:
	case <-s.done:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-sub.reply:
		return res.event, res.err
	case <-s.done:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Read runs fn on the loop goroutine with exclusive access to the engine.
// fn must not retain the engine or anything it returns by reference.
func (s *Sequencer) Read(ctx context.Context, fn func(*matching.Engine)) error {
	if s.stopped() {
		return ErrStopped
	}
	req := readRequest{fn: fn, done: make(chan struct{})}

	select {
	case s.readIn <- req:
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
		return nil
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sequencer) stopped() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// CurrentSeq returns the last sequence number handed out.
func (s *Sequencer) CurrentSeq() uint64 {
	return s.seq.Load()
}

// run is the main application loop. Single-writer consuming from orderIn.
func (s *Sequencer) run() {
	s.logger.Info("started")
	defer close(s.ExecutionOut)

	for {
		select {
		case sub := <-s.orderIn:
			event, err := s.process(sub.order)
			sub.reply <- submitResult{event: event, err: err}
		case req := <-s.readIn:
			req.fn(s.engine)
			close(req.done)
		case <-s.done:
			s.logger.Info("stopped", slog.Uint64("seq", s.seq.Load()))
			return
		}
	}
}

// process runs one order through the engine and stamps the outcome.
func (s *Sequencer) process(order domain.Order) (*domain.ExecutionEvent, error) {
	trades, err := s.engine.Submit(order)
	if err != nil {
		telemetry.OrdersTotal.WithLabelValues(sideLabel(order.Side), "rejected").Inc()
		s.logger.Warn("order rejected", slog.String("order_id", order.OrderID), slog.Any("error", err))
		return nil, err
	}

	seq := s.seq.Add(1)
	event := &domain.ExecutionEvent{
		Sequence:   seq,
		Order:      order,
		Trades:     trades,
		ExecutedAt: s.clock.Now(),
	}
	s.observe(event)
	for _, hook := range s.hooks {
		hook(event)
	}

	// Send execution event downstream (non-blocking with buffered channel)
	select {
	case s.ExecutionOut <- event:
	default:
		telemetry.ExecutionEventsDropped.WithLabelValues("sequencer").Inc()
		s.logger.Warn("execution output channel full, dropping event", slog.Uint64("seq", seq))
	}
	return event, nil
}

func (s *Sequencer) observe(event *domain.ExecutionEvent) {
	outcome := "rested"
	if event.Matched() {
		outcome = "matched"
	}
	telemetry.OrdersTotal.WithLabelValues(string(event.Order.Side), outcome).Inc()
	for _, trade := range event.Trades {
		telemetry.TradesTotal.Inc()
		telemetry.TradedQuantity.Add(float64(trade.Quantity))
	}
	telemetry.SequencerSeq.Set(float64(event.Sequence))

	book := s.engine.Book()
	for _, side := range []domain.Side{domain.SideBuy, domain.SideSell} {
		telemetry.RestingOrders.WithLabelValues(string(side)).Set(float64(book.OrderCount(side)))
		telemetry.PriceLevels.WithLabelValues(string(side)).Set(float64(book.LevelCount(side)))
	}
}

func sideLabel(side domain.Side) string {
	if !side.Valid() {
		return "invalid"
	}
	return string(side)
}
