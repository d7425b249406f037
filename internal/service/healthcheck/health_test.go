package healthcheck

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beacon/internal/config"
	"beacon/internal/corelink"
	"beacon/internal/freshservice"
	"beacon/internal/models/dto"
	"beacon/internal/ticketstore"
	"beacon/pkg/logger"
)

func testApp(t *testing.T) *config.App {
	t.Helper()
	log := logger.NewLogger(io.Discard, logger.Config{Service: "test"})
	t.Cleanup(func() { _ = log.Close() })

	store, err := ticketstore.New(t.TempDir(), log)
	require.NoError(t, err)

	return &config.App{
		Logger:       log,
		Store:        store,
		Link:         corelink.New(corelink.Config{CoreURL: "http://localhost:5000"}, log),
		TicketSource: config.SourceCache,
		StartTime:    time.Now().Add(-time.Minute),
	}
}

func getHealth(t *testing.T, cfg *config.App) dto.HealthResponse {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/healthcheck", Health(cfg))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthDegradedOnEmptyCache(t *testing.T) {
	cfg := testApp(t)

	resp := getHealth(t, cfg)

	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "beacon", resp.Service)
	assert.Equal(t, "empty", resp.Checks["cache"])
	assert.Equal(t, "disabled", resp.Checks["redis"])
	assert.NotContains(t, resp.Checks, "codex")
	assert.NotEmpty(t, resp.Uptime)
}

func TestHealthOkWithFreshCache(t *testing.T) {
	cfg := testApp(t)
	tk, err := freshservice.ParseTicket([]byte(`{"id":1,"status":2}`))
	require.NoError(t, err)
	require.NoError(t, cfg.Store.Write(tk))

	resp := getHealth(t, cfg)

	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ok", resp.Checks["cache"])
}
