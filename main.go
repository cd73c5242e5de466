package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"

	"medibook-server/internal/cache"
	"medibook-server/internal/config"
	"medibook-server/internal/events"
	"medibook-server/internal/models"
	"medibook-server/internal/routes"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Warnf("No .env file loaded: %v", err)
	}

	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	log.SetLevel(parseLogLevel(cfg.LogLevel))
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database connection
	db, err := models.InitDB(models.DatabaseConfig{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
	})
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}
	log.Infof("Connected to %s database", cfg.Database.Driver)

	deps := routes.Deps{Publisher: events.NopPublisher{}}

	if cfg.Redis.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		cancel()
		if err != nil {
			log.Fatalf("Error connecting to Redis: %v", err)
		}
		deps.Cache = cache.NewStore(client)
		log.Infof("Connected to Redis at %s", cfg.Redis.Addr)
	} else {
		log.Warn("REDIS_ADDR not set: token revocation and rate limiting are disabled")
	}

	if cfg.RabbitMQ.URL != "" {
		publisher, err := events.NewRabbitMQPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		if err != nil {
			log.Fatalf("Error connecting to RabbitMQ: %v", err)
		}
		deps.Publisher = publisher
		log.Infof("Publishing appointment events to queue %s", cfg.RabbitMQ.Queue)
	}

	// Initialize Gin router
	router := gin.Default()

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	routes.SetupRoutes(router, db, cfg, deps)

	// Start server
	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	log.Infof("Server running on port %s", cfg.Port)
	if err := router.Run(serverAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func parseLogLevel(level string) log.Lvl {
	switch level {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	default:
		return log.INFO
	}
}
