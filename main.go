package main

import (
	"context"
	"errors"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/salahab839/prescription-api/catalogparser"
	"github.com/salahab839/prescription-api/config"
	"github.com/salahab839/prescription-api/data"
	"github.com/salahab839/prescription-api/extractor"
	"github.com/salahab839/prescription-api/health"
	"github.com/salahab839/prescription-api/interfaces"
	"github.com/salahab839/prescription-api/logging"
	"github.com/salahab839/prescription-api/ocr"
	"github.com/salahab839/prescription-api/scheduler"
	"github.com/salahab839/prescription-api/server"
	"github.com/salahab839/prescription-api/validation"
)

func main() {
	// .env is optional, real deployments set the environment directly
	if err := godotenv.Load(); err != nil {
		logging.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.InitLogger("logs", cfg.LogRetentionWeeks, cfg.MaxLogFileSize, cfg.LogLevel)

	catalogStore := data.NewCatalogContainer()
	catalogStore.SetServerStartTime(time.Now())

	parser := catalogparser.NewCatalogParser(cfg.CatalogPath)

	sched := scheduler.NewScheduler(catalogStore, parser)
	if err := sched.Start(); err != nil {
		logging.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	collaboratorTimeout := time.Duration(cfg.CollaboratorTimeout) * time.Second

	var textExtractor interfaces.TextExtractor
	switch cfg.OCRProvider {
	case "tesseract":
		textExtractor = ocr.NewTesseractClient()
	default:
		if cfg.VisionAPIKey == "" {
			logging.Error("VISION_API_KEY is required when OCR_PROVIDER is vision")
			os.Exit(1)
		}
		textExtractor = ocr.NewVisionClient(cfg.VisionAPIKey, collaboratorTimeout)
	}

	if cfg.GroqAPIKey == "" {
		logging.Error("GROQ_API_KEY is required")
		os.Exit(1)
	}
	fieldExtractor := extractor.NewGroqClient(cfg.GroqAPIKey, cfg.GroqModel, collaboratorTimeout)

	srv := server.NewServer(
		cfg,
		catalogStore,
		textExtractor,
		fieldExtractor,
		validation.NewCatalogValidator(),
		health.NewHealthChecker(catalogStore),
	)

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}
}
