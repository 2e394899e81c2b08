package queue

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Nearezz/toy-exchange/internal/domain"
)

// DefaultSubject is where execution events are published.
const DefaultSubject = "exchange.executions"

// ExecutionPublisher broadcasts execution events over NATS.
type ExecutionPublisher struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

// NewExecutionPublisher connects to url and publishes on subject.
func NewExecutionPublisher(url, subject, clientName string) (*ExecutionPublisher, error) {
	logger := slog.Default().With(slog.String("component", "queue"))

	opts := []nats.Option{
		nats.Name(clientName),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(10),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", slog.Any("error", err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return NewExecutionPublisherWithConn(conn, subject), nil
}

// NewExecutionPublisherWithConn wraps an existing connection.
func NewExecutionPublisherWithConn(conn *nats.Conn, subject string) *ExecutionPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &ExecutionPublisher{
		conn:    conn,
		subject: subject,
		logger:  slog.Default().With(slog.String("component", "queue")),
	}
}

// Subject returns the subject events are published on.
func (p *ExecutionPublisher) Subject() string {
	return p.subject
}

// Publish sends event as JSON. Events without trades are skipped.
func (p *ExecutionPublisher) Publish(event *domain.ExecutionEvent) error {
	if !event.Matched() {
		return nil
	}

	data, err := Encode(event)
	if err != nil {
		return err
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish execution %d: %w", event.Sequence, err)
	}
	return nil
}

// Run publishes every event from in until it is closed.
func (p *ExecutionPublisher) Run(in <-chan *domain.ExecutionEvent) {
	for event := range in {
		if err := p.Publish(event); err != nil {
			p.logger.Error("publish failed", slog.Uint64("seq", event.Sequence), slog.Any("error", err))
		}
	}
}

// Close drains and closes the NATS connection
func (p *ExecutionPublisher) Close() {
	if p.conn != nil {
		p.conn.Drain()
		p.conn.Close()
	}
}

// Encode is the wire format of a published execution event.
func Encode(event *domain.ExecutionEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal execution %d: %w", event.Sequence, err)
	}
	return data, nil
}

// Decode parses a published execution event.
func Decode(data []byte) (*domain.ExecutionEvent, error) {
	var event domain.ExecutionEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution: %w", err)
	}
	return &event, nil
}
