package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Nearezz/toy-exchange/internal/domain"
	"github.com/Nearezz/toy-exchange/internal/marketdata"
	"github.com/Nearezz/toy-exchange/internal/matching"
	"github.com/Nearezz/toy-exchange/internal/ordermanager"
	"github.com/Nearezz/toy-exchange/internal/sequencer"
)

// Handler holds the HTTP handler dependencies.
type Handler struct {
	manager   *ordermanager.Manager
	seq       *sequencer.Sequencer
	publisher *marketdata.Publisher
}

// NewHandler creates a new Handler.
func NewHandler(manager *ordermanager.Manager, seq *sequencer.Sequencer, publisher *marketdata.Publisher) *Handler {
	return &Handler{
		manager:   manager,
		seq:       seq,
		publisher: publisher,
	}
}

// RegisterRoutes sets up the Gin routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	v1 := r.Group("/v1")
	{
		v1.POST("/order", h.PlaceOrder)
		v1.GET("/order/:id", h.GetOrder)
		v1.GET("/trade/last", h.GetLastTrade)
		v1.GET("/execution", h.GetExecutions)
		v1.GET("/marketdata/top", h.GetTopOfBook)
		v1.GET("/marketdata/orderBook/L2", h.GetL2OrderBook)
		v1.GET("/marketdata/orderBook/aggregated", h.GetAggregatedBook)
		v1.GET("/marketdata/orderBook/raw", h.GetRawBook)
		v1.GET("/marketdata/candles", h.GetCandles)
	}
}

// Health returns a health check response.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "toy-exchange",
		"seq":     h.seq.CurrentSeq(),
	})
}

// PlaceOrderRequest is the request body for placing an order.
// Price is a pointer so that a zero tick is accepted but a missing one is not.
type PlaceOrderRequest struct {
	Side     string `json:"side" binding:"required"`
	Price    *int64 `json:"price" binding:"required"`
	Quantity int64  `json:"qty"`
}

// PlaceOrderResponse is returned for an accepted order.
type PlaceOrderResponse struct {
	Order    domain.Order   `json:"order"`
	Trades   []domain.Trade `json:"trades"`
	Sequence uint64         `json:"sequence"`
}

// PlaceOrder handles POST /v1/order.
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.manager.PlaceOrder(c.Request.Context(), req.Side, *req.Price, req.Quantity)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	trades := event.Trades
	if trades == nil {
		trades = []domain.Trade{}
	}
	c.JSON(http.StatusCreated, PlaceOrderResponse{
		Order:    event.Order,
		Trades:   trades,
		Sequence: event.Sequence,
	})
}

// GetOrder handles GET /v1/order/:id.
func (h *Handler) GetOrder(c *gin.Context) {
	rec, ok := h.manager.GetOrder(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// GetLastTrade handles GET /v1/trade/last.
func (h *Handler) GetLastTrade(c *gin.Context) {
	var (
		trade domain.Trade
		ok    bool
	)
	err := h.read(c.Request.Context(), func(e *matching.Engine) {
		trade, ok = e.LastTrade()
	})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no trades yet"})
		return
	}
	c.JSON(http.StatusOK, trade)
}

// GetExecutions handles GET /v1/execution.
func (h *Handler) GetExecutions(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}

	trades := h.publisher.GetTrades(c.Query("order_id"), limit)
	if trades == nil {
		trades = []marketdata.TapeEntry{}
	}
	c.JSON(http.StatusOK, trades)
}

// GetTopOfBook handles GET /v1/marketdata/top.
func (h *Handler) GetTopOfBook(c *gin.Context) {
	var top domain.TopOfBook
	err := h.read(c.Request.Context(), func(e *matching.Engine) {
		top = e.TopOfBook()
	})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, top)
}

// GetL2OrderBook handles GET /v1/marketdata/orderBook/L2.
func (h *Handler) GetL2OrderBook(c *gin.Context) {
	depth, err := strconv.Atoi(c.DefaultQuery("depth", "10"))
	if err != nil || depth <= 0 {
		depth = 10
	}

	var snapshot *domain.L2OrderBook
	err = h.read(c.Request.Context(), func(e *matching.Engine) {
		snapshot = e.Book().L2Snapshot(depth)
	})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// GetAggregatedBook handles GET /v1/marketdata/orderBook/aggregated.
func (h *Handler) GetAggregatedBook(c *gin.Context) {
	var bids, asks map[int64]int64
	err := h.read(c.Request.Context(), func(e *matching.Engine) {
		bids = e.Book().AggregatedBids()
		asks = e.Book().AggregatedAsks()
	})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bids": bids, "asks": asks})
}

// GetRawBook handles GET /v1/marketdata/orderBook/raw.
func (h *Handler) GetRawBook(c *gin.Context) {
	var bids, asks map[int64][]domain.Order
	err := h.read(c.Request.Context(), func(e *matching.Engine) {
		bids = e.Book().RawBids()
		asks = e.Book().RawAsks()
	})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bids": bids, "asks": asks})
}

// GetCandles handles GET /v1/marketdata/candles.
func (h *Handler) GetCandles(c *gin.Context) {
	count, err := strconv.Atoi(c.DefaultQuery("count", "100"))
	if err != nil || count <= 0 {
		count = 100
	}

	candles := h.publisher.GetCandles(count)
	if candles == nil {
		candles = []*domain.Candlestick{}
	}
	c.JSON(http.StatusOK, candles)
}

func (h *Handler) read(ctx context.Context, fn func(*matching.Engine)) error {
	return h.seq.Read(ctx, fn)
}

// statusFor maps domain and pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidSide), errors.Is(err, domain.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, sequencer.ErrStopped),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
