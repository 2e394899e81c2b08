package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Nearezz/toy-exchange/internal/config"
	"github.com/Nearezz/toy-exchange/internal/domain"
	"github.com/Nearezz/toy-exchange/internal/handler"
	"github.com/Nearezz/toy-exchange/internal/idgen"
	"github.com/Nearezz/toy-exchange/internal/marketdata"
	"github.com/Nearezz/toy-exchange/internal/matching"
	"github.com/Nearezz/toy-exchange/internal/middleware"
	"github.com/Nearezz/toy-exchange/internal/orderbook"
	"github.com/Nearezz/toy-exchange/internal/ordermanager"
	"github.com/Nearezz/toy-exchange/internal/queue"
	"github.com/Nearezz/toy-exchange/internal/sequencer"
	"github.com/Nearezz/toy-exchange/internal/telemetry"
)

func main() {
	cfg := config.Load()
	logger := telemetry.InitLogger(cfg.ServiceName, cfg.LogLevel)
	logger.Info("starting exchange service",
		slog.String("environment", cfg.Environment),
		slog.String("id_generator", cfg.IDGenerator),
	)

	ctx := context.Background()

	if cfg.OTel.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, telemetry.TracerConfig{
			ServiceName: cfg.ServiceName,
			Environment: cfg.Environment,
			Endpoint:    cfg.OTel.Endpoint,
		})
		if err != nil {
			logger.Error("failed to initialize tracer", slog.Any("error", err))
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error("tracer shutdown error", slog.Any("error", err))
				}
			}()
		}
	}

	ids, err := idgen.New(cfg.IDGenerator)
	if err != nil {
		logger.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}
	clock := idgen.RealClock{}

	// --- Core components ---

	engine := matching.NewEngine(orderbook.NewOrderBook()).WithLogger(logger)
	seq := sequencer.NewSequencer(engine, cfg.ChannelBufferSize, clock)
	manager := ordermanager.NewManager(seq, ids, clock)
	publisher := marketdata.NewPublisher(cfg.ChannelBufferSize, cfg.TradeTapeSize)

	var natsIn chan *domain.ExecutionEvent
	if cfg.NATS.URL != "" {
		natsPub, err := queue.NewExecutionPublisher(cfg.NATS.URL, cfg.NATS.Subject, cfg.ServiceName)
		if err != nil {
			logger.Warn("execution events will not be published", slog.Any("error", err))
		} else {
			defer natsPub.Close()
			natsIn = make(chan *domain.ExecutionEvent, cfg.ChannelBufferSize)
			go natsPub.Run(natsIn)
			logger.Info("publishing executions", slog.String("subject", natsPub.Subject()))
		}
	}

	// Sequencer [ExecutionOut] fans out to the market data publisher and,
	// when configured, NATS. Slow consumers lose events rather than stall matching.
	fanoutDone := make(chan struct{})
	go func() {
		defer close(fanoutDone)
		for event := range seq.ExecutionOut {
			select {
			case publisher.ExecutionIn <- event:
			default:
				telemetry.ExecutionEventsDropped.WithLabelValues("marketdata").Inc()
				logger.Warn("market data execution channel full", slog.Uint64("seq", event.Sequence))
			}
			if natsIn == nil {
				continue
			}
			select {
			case natsIn <- event:
			default:
				telemetry.ExecutionEventsDropped.WithLabelValues("nats").Inc()
				logger.Warn("nats execution channel full", slog.Uint64("seq", event.Sequence))
			}
		}
		close(publisher.ExecutionIn)
		if natsIn != nil {
			close(natsIn)
		}
	}()

	seq.Start()
	publisher.Start()

	// --- HTTP Server ---

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Tracing())
	r.Use(middleware.PrometheusMiddleware())

	h := handler.NewHandler(manager, seq, publisher)
	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// --- Metrics Server ---

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: metricsMux,
	}

	go func() {
		logger.Info("metrics server listening", slog.String("port", cfg.MetricsPort))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	go func() {
		logger.Info("http server listening", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// --- Graceful shutdown ---

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", slog.Any("error", err))
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown error", slog.Any("error", err))
	}

	seq.Stop()
	<-fanoutDone
	publisher.Stop()

	logger.Info("exchange service stopped", slog.Uint64("seq", seq.CurrentSeq()))
}
