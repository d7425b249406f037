package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"beacon/internal/luxafor"
	"beacon/internal/ticketstore"
	"beacon/pkg/logger"
)

func main() {

	envPath := "/app/.env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = "../../.env"
	}
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("No .env file loaded (%v), using process environment", err)
	}

	lg := logger.NewLogger(os.Stdout, logger.Config{
		Service:       "beacon-lightd",
		Version:       "1.0.0",
		Environment:   envOr("ENVIRONMENT_APP", "development"),
		FlushInterval: 5 * time.Second,
		BatchSize:     1,
		BufferSize:    1000,
		LogLevel:      logger.LevelInfo,
		EnableCaller:  true,
	})
	defer lg.Close()

	store, err := ticketstore.New(envOr("TICKETS_DIR", "./tickets"), lg)
	if err != nil {
		log.Fatalf("Error opening ticket store: %v", err)
	}

	devicePath := envOr("LUXAFOR_DEVICE", "/dev/hidraw0")
	dial := func() (luxafor.Device, error) { return luxafor.Open(devicePath) }

	var interval time.Duration
	if raw := os.Getenv("LIGHT_INTERVAL"); raw != "" {
		interval, err = time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("LIGHT_INTERVAL is not a duration: %v", err)
		}
	}

	lg.Info("Starting light daemon", map[string]interface{}{
		"device":      devicePath,
		"tickets_dir": store.Dir(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	luxafor.NewController(store, dial, interval, lg).Run(ctx)

	lg.Info("Light daemon stopped")
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
