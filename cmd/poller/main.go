package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"beacon/internal/freshservice"
	"beacon/internal/poller"
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
		Service:       "beacon-poller",
		Version:       "1.0.0",
		Environment:   envOr("ENVIRONMENT_APP", "development"),
		FlushInterval: 5 * time.Second,
		BatchSize:     1,
		BufferSize:    1000,
		LogLevel:      logger.LevelInfo,
		EnableCaller:  true,
	})
	defer lg.Close()

	lock, err := poller.AcquireLock(envOr("LOCK_FILE", "/tmp/beacon-poller.lock"))
	if err != nil {
		log.Fatalf("Another poller instance holds the lock: %v", err)
	}
	defer lock.Release()

	domain := os.Getenv("FRESHSERVICE_DOMAIN")
	if domain == "" {
		log.Fatal("FRESHSERVICE_DOMAIN is not set")
	}

	client, err := freshservice.NewClient(freshservice.Config{
		Domain: domain,
		APIKey: apiKey(),
	}, lg)
	if err != nil {
		log.Fatalf("Error creating Freshservice client: %v", err)
	}

	store, err := ticketstore.New(envOr("TICKETS_DIR", "./tickets"), lg)
	if err != nil {
		log.Fatalf("Error creating ticket store: %v", err)
	}

	metrics := poller.NewMetrics()
	metricsAddr := envOr("METRICS_ADDR", ":9090")
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			lg.Error("Metrics listener stopped", err)
		}
	}()

	var pollCfg poller.Config
	if raw := os.Getenv("POLL_INTERVAL"); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("POLL_INTERVAL is not a duration: %v", err)
		}
		pollCfg.Interval = interval
	}

	lg.Info("Starting poller", map[string]interface{}{
		"domain":       domain,
		"tickets_dir":  store.Dir(),
		"metrics_addr": metricsAddr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poller.New(pollCfg, client, store, metrics, lg).Run(ctx)

	lg.Info("Poller stopped")
}

// apiKey reads the Freshservice key from the environment, falling back to the
// token file. No key means nothing to poll, so it is fatal.
func apiKey() string {
	if key := os.Getenv("FRESHSERVICE_API_KEY"); key != "" {
		return key
	}
	path := envOr("TOKEN_FILE", "token.txt")
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("No FRESHSERVICE_API_KEY and no token file: %v", err)
	}
	key := strings.TrimSpace(string(data))
	if key == "" {
		log.Fatalf("Token file %s is empty", path)
	}
	return key
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
