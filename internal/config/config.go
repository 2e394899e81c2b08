package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName       string
	Environment       string
	Port              string
	MetricsPort       string
	LogLevel          slog.Level
	ChannelBufferSize int
	TradeTapeSize     int
	IDGenerator       string
	NATS              NATSConfig
	OTel              OTelConfig
}

type NATSConfig struct {
	URL     string // empty disables publishing
	Subject string
}

type OTelConfig struct {
	Enabled  bool
	Endpoint string
}

// Load reads an optional .env file and then the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", slog.Any("error", err))
	}

	otelEnabled, _ := strconv.ParseBool(getEnv("OTEL_ENABLED", "false"))

	return &Config{
		ServiceName:       getEnv("SERVICE_NAME", "toy-exchange"),
		Environment:       getEnv("ENVIRONMENT", "development"),
		Port:              getEnv("PORT", "8080"),
		MetricsPort:       getEnv("METRICS_PORT", "9090"),
		LogLevel:          parseLevel(getEnv("LOG_LEVEL", "info")),
		ChannelBufferSize: getEnvInt("CHANNEL_BUFFER_SIZE", 4096),
		TradeTapeSize:     getEnvInt("TRADE_TAPE_SIZE", 1000),
		IDGenerator:       getEnv("ID_GENERATOR", "uuid"),
		NATS: NATSConfig{
			URL:     getEnv("NATS_URL", ""),
			Subject: getEnv("NATS_SUBJECT", "exchange.executions"),
		},
		OTel: OTelConfig{
			Enabled:  otelEnabled,
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
