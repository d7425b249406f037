package config

import (
	"errors"
	"os"
	"time"

	"github.com/google/uuid"

	"beacon/internal/classify"
	"beacon/internal/corelink"
	"beacon/internal/directory"
	redisInternal "beacon/internal/repositories/redis"
	"beacon/internal/ticketstore"
	"beacon/pkg/logger"
)

const (
	ServiceName = "beacon"
	Version     = "1.0.0"
)

// Ticket sources the dashboard can read from.
const (
	SourceCache = "cache" // the poller's local file cache
	SourceCodex = "codex" // the codex ticket-sync service
)

// App holds everything the HTTP handlers depend on.
type App struct {
	Logger *logger.Logger
	Redis  *redisInternal.RedisInternal // nil when Redis is unreachable

	Store *ticketstore.Store
	SLA   classify.Config
	Names *directory.Directory
	Link  *corelink.Client

	TicketSource string
	StartTime    time.Time
}

// NewConfig wires the App from the environment. Redis being down only
// disables the per-IP rate limiter; a bad SLA file or an unusable tickets
// directory is fatal.
func NewConfig() (*App, error) {
	cfg := new(App)
	cfg.StartTime = time.Now()

	executionID := uuid.New().String()[0:5]

	cfg.Logger = logger.NewLogger(os.Stdout, logger.Config{
		Service:       ServiceName + "-api",
		Version:       Version,
		Environment:   envOr("ENVIRONMENT_APP", "development"),
		FlushInterval: 5 * time.Second,
		BatchSize:     1,
		BufferSize:    1000,
		LogLevel:      logger.LevelInfo,
		EnableCaller:  true,
		ExecutionID:   executionID,
	})

	if r, err := redisInternal.NewRedisInternal(); err != nil {
		cfg.Logger.Warn("Redis unavailable, per-IP rate limiting disabled", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		cfg.Redis = r
	}

	store, err := ticketstore.New(envOr("TICKETS_DIR", "./tickets"), cfg.Logger)
	if err != nil {
		return cfg, errors.New("creating ticket store: " + err.Error())
	}
	cfg.Store = store

	sla, err := classify.LoadConfig(envOr("SLA_CONFIG_FILE", "config/sla.yaml"))
	if err != nil {
		return cfg, errors.New("loading SLA config: " + err.Error())
	}
	cfg.SLA = sla

	services, err := corelink.LoadServices(envOr("SERVICES_FILE", "services.json"))
	if err != nil {
		return cfg, errors.New("loading service registry: " + err.Error())
	}
	cfg.Link = corelink.New(corelink.Config{
		CoreURL:  envOr("CORE_SERVICE_URL", "http://localhost:5000"),
		SelfName: envOr("SERVICE_NAME", ServiceName),
		Services: services,
	}, cfg.Logger)

	dirCfg := directory.Config{
		AgentsFile:     envOr("AGENTS_FILE", "./agents.txt"),
		RequestersFile: envOr("REQUESTERS_FILE", "./requesters.txt"),
	}
	if _, ok := services["codex"]; ok {
		dirCfg.Source = cfg.Link
	}
	cfg.Names = directory.New(dirCfg, cfg.Logger)

	cfg.TicketSource = envOr("TICKET_SOURCE", SourceCache)
	if cfg.TicketSource != SourceCache && cfg.TicketSource != SourceCodex {
		return cfg, errors.New("TICKET_SOURCE must be " + SourceCache + " or " + SourceCodex)
	}

	return cfg, nil
}

// CloseAll flushes and closes everything the App owns.
func (cfg *App) CloseAll() {
	if cfg.Redis != nil {
		_ = cfg.Redis.Redis.Close()
	}
	if cfg.Logger != nil {
		_ = cfg.Logger.Close()
	}
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
