package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"beacon/internal/config"
	"beacon/internal/middleware"
	"beacon/internal/routes"
	"beacon/internal/utils"
)

// @title Beacon Ticket Dashboard API
// @version 1.0
// @description Support ticket dashboard fed by the Freshservice poller's file cache.
// @BasePath /
func main() {

	envPath := "/app/.env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = "../../.env"
	}
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("No .env file loaded (%v), using process environment", err)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Error creating config: %v", err)
	}
	defer cfg.CloseAll()

	cfg.Logger.Info(fmt.Sprintf("Starting server with execution ID %s", cfg.Logger.ExecutionID))

	engine := middleware.SetupServer(cfg)
	engine.LoadHTMLGlob(templatesGlob())

	routes.InitiateRoutes(engine, cfg)

	startServer(engine)
}

func templatesGlob() string {
	if glob := os.Getenv("TEMPLATES_GLOB"); glob != "" {
		return glob
	}
	return "templates/*.html"
}

func startServer(engine *gin.Engine) {
	addr := ":" + utils.GetPort()
	certFile, keyFile := utils.GetCertFiles()
	if certFile != "" && keyFile != "" {
		log.Println("Starting server with TLS...")
		if err := engine.RunTLS(addr, certFile, keyFile); err != nil {
			log.Fatalf("Error starting TLS server: %v", err)
		}
	} else {
		log.Println("Starting server...")
		if err := engine.Run(addr); err != nil {
			log.Fatalf("Error starting server: %v", err)
		}
	}
}
