package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/satriahrh/voxrelay/adapters/dashboard"
	"github.com/satriahrh/voxrelay/adapters/sentiment"
	"github.com/satriahrh/voxrelay/adapters/sqlite"
	"github.com/satriahrh/voxrelay/adapters/stt"
	"github.com/satriahrh/voxrelay/domain/repositories"
	"github.com/satriahrh/voxrelay/internal/api"
	"github.com/satriahrh/voxrelay/internal/config"
	"github.com/satriahrh/voxrelay/internal/metrics"
	"github.com/satriahrh/voxrelay/internal/websocket"
	"github.com/satriahrh/voxrelay/usecase"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	// Environment variables from .env, if present.
	godotenv.Load()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging.Level)
	defer logger.Sync()

	store, err := sqlite.Open(cfg.Storage.Path)
	if err != nil {
		logger.Fatal("Failed to open database", zap.String("path", cfg.Storage.Path), zap.Error(err))
	}
	defer store.Close()

	speechToText := newSpeechToText(cfg, logger)
	scorer := newScorer(cfg, logger)
	forwarder := dashboard.NewClient(cfg.Dashboard.UpdateURL, cfg.DashboardTimeout(), logger)

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)

	hub := websocket.NewHub(cfg.Relay.MaxMessageSize, m, logger)
	pipeline := usecase.NewPipeline(
		speechToText, scorer, store, store, forwarder, hub,
		usecase.Options{
			TranscribeWorkers: cfg.Relay.TranscribeWorkers,
			MinSpeechLength:   cfg.Relay.MinSpeechLength,
			TranscribeTimeout: cfg.TranscriptionTimeout(),
			ForwardTimeout:    cfg.DashboardTimeout(),
		},
		m, logger,
	)
	hub.SetProcessor(pipeline)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api.InitRoutes(e, hub, store, api.RouterConfig{
		AdminSecret: []byte(os.Getenv("VOXRELAY_ADMIN_SECRET")),
		TokenTTL:    cfg.TokenTTL(),
	}, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)

	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Relay server started",
		zap.String("addr", addr),
		zap.String("transcription", cfg.Transcription.Backend),
		zap.String("sentiment", cfg.Sentiment.Backend))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Let in-flight segments finish their enrichment before closing the store.
	pipeline.Close()

	logger.Info("Server exited")
}

// loadConfig reads the config file when it exists and falls back to the
// built-in defaults (plus environment overrides) otherwise.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := config.Default()
		cfg.ApplyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return config.Load(path)
}

func newLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func newSpeechToText(cfg *config.Config, logger *zap.Logger) repositories.SpeechToText {
	switch cfg.Transcription.Backend {
	case "google":
		return stt.NewGoogleSpeechToText(
			cfg.Transcription.SampleRate,
			cfg.Transcription.Encoding,
			cfg.Transcription.Language,
			logger,
		)
	case "whisper":
		return stt.NewWhisperClient(cfg.Transcription.Endpoint, cfg.TranscriptionTimeout(), logger)
	default:
		logger.Warn("Using mock speech-to-text backend")
		return stt.NewMockSpeechToText(logger)
	}
}

func newScorer(cfg *config.Config, logger *zap.Logger) repositories.SentimentScorer {
	if cfg.Sentiment.Backend == "gemini" {
		scorer, err := sentiment.NewGeminiScorer(cfg.Sentiment.Model, logger)
		if err != nil {
			logger.Warn("Gemini scorer unavailable, falling back to lexicon", zap.Error(err))
			return sentiment.NewLexiconScorer()
		}
		return scorer
	}
	return sentiment.NewLexiconScorer()
}
