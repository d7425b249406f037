package middleware

import (
	"log"
	"os"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"

	"beacon/internal/config"
	"beacon/internal/utils"
)

// SetupServer builds the gin engine with the full middleware chain.
func SetupServer(cfg *config.App) (engine *gin.Engine) {

	gin.SetMode(gin.ReleaseMode)
	engine = gin.New()

	setupSemaphore(engine)
	setupCors(engine)
	setupRateLimit(engine, cfg)
	setupIds(engine)
	setupLogger(engine, cfg.Logger)

	certFile, keyFile := utils.GetCertFiles()
	if certFile != "" && keyFile != "" {
		setupSSL(engine)
	}

	engine.Use(gin.Recovery())

	return engine
}

// setupCors allows the kiosk displays and the board's own JS fetches; the
// board only ever serves GETs.
func setupCors(engine *gin.Engine) {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	engine.Use(cors.New(corsConfig))
}

// setupSSL redirects plain HTTP to the TLS listener
func setupSSL(engine *gin.Engine) {
	engine.Use(func(c *gin.Context) {
		secureMiddleware := secure.New(secure.Options{
			SSLRedirect: true,
			SSLHost:     ":8080",
		})
		err := secureMiddleware.Process(c.Writer, c.Request)
		if err != nil {
			log.Println("Error upgrading request to https: " + err.Error())
			return
		}
		c.Next()
	})
}

func getEnvAsInt64(name string, defaultValue int64) int64 {
	valueStr := os.Getenv(name)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return int64(value)
}
