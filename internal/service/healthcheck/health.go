package healthcheck

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"beacon/internal/config"
	"beacon/internal/models/dto"
)

// A cache older than this is reported stale; the poller writes every two
// minutes when healthy.
const cacheStaleAfter = 10 * time.Minute

// Health handles the GET /healthcheck endpoint
// @Summary      Service health
// @Description  Reports the dashboard's own status plus its dependencies: the ticket cache, Redis, and the codex peer
// @Tags         health
// @Produce      json
// @Success      200  {object}  dto.HealthResponse
// @Router       /healthcheck [get]
func Health(cfg *config.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		checks := map[string]string{
			"cache": checkCache(cfg),
			"redis": checkRedis(ctx, cfg),
		}
		if cfg.Link.Registered("codex") {
			checks["codex"] = checkCodex(ctx, cfg)
		}

		status := "ok"
		for name, result := range checks {
			if result == "ok" || result == "disabled" {
				continue
			}
			status = "degraded"
			cfg.Logger.Warn("health check failing", map[string]interface{}{
				"check":  name,
				"result": result,
			})
		}

		uptime := time.Since(cfg.StartTime).Round(time.Second).String()
		c.JSON(http.StatusOK, dto.NewHealthResponse(c, status, config.ServiceName, config.Version, uptime, checks))
	}
}

func checkCache(cfg *config.App) string {
	newest, err := cfg.Store.NewestSnapshot()
	if err != nil {
		return "error: " + err.Error()
	}
	if newest.IsZero() {
		return "empty"
	}
	if age := time.Since(newest); age > cacheStaleAfter {
		return fmt.Sprintf("stale: last write %s ago", age.Round(time.Second))
	}
	return "ok"
}

func checkRedis(ctx context.Context, cfg *config.App) string {
	if cfg.Redis == nil {
		return "disabled"
	}
	if err := cfg.Redis.Ping(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}

func checkCodex(ctx context.Context, cfg *config.App) string {
	if err := cfg.Link.Health(ctx); err != nil {
		return "unavailable: " + err.Error()
	}
	return "ok"
}
