package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration tracks request latency by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "exchange_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "path", "status"},
	)

	// OrdersTotal counts submitted orders by side and outcome.
	OrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exchange_orders_total",
			Help: "Total number of submitted orders by side and outcome",
		},
		[]string{"side", "outcome"}, // matched, rested, rejected
	)

	// TradesTotal counts executed trades.
	TradesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "exchange_trades_total",
			Help: "Total number of executed trades",
		},
	)

	// TradedQuantity sums the quantity of all executed trades.
	TradedQuantity = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "exchange_traded_quantity_total",
			Help: "Total quantity executed",
		},
	)

	// RestingOrders tracks the number of resting orders per side.
	RestingOrders = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "exchange_orderbook_resting_orders",
			Help: "Current number of resting orders",
		},
		[]string{"side"},
	)

	// PriceLevels tracks the number of price levels per side.
	PriceLevels = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "exchange_orderbook_price_levels",
			Help: "Current number of price levels",
		},
		[]string{"side"},
	)

	// SequencerSeq tracks the last sequence number handed out.
	SequencerSeq = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "exchange_sequencer_seq",
			Help: "Current sequence number",
		},
	)

	// ExecutionEventsDropped counts events dropped on full downstream channels.
	ExecutionEventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exchange_execution_events_dropped_total",
			Help: "Execution events dropped because a consumer channel was full",
		},
		[]string{"consumer"},
	)
)
