package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/patrickmn/go-cache"

	"github.com/civitas/backend/internal/delivery/http"
	"github.com/civitas/backend/internal/detection"
	"github.com/civitas/backend/internal/repository/csvstore"
	"github.com/civitas/backend/internal/repository/postgres"
	"github.com/civitas/backend/internal/service"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Configuration
	cfg := loadConfig()

	// Dependency Injection: Repository (warehouse, CSV directory or mock)
	repo, cleanup := buildRepository(cfg)
	defer cleanup()

	// Dependency Injection: Detection engine
	benchmarkCache := cache.New(30*time.Minute, time.Hour)
	adaptive := detection.NewAdaptiveController(cfg.MaxWorkers, benchmarkCache)
	mapBridge := service.NewMapBridge(cfg.MapServiceURL)
	trailBridge := service.NewTrailBridge(cfg.TrailServiceURL)
	pipeline := detection.NewPipeline(adaptive, mapBridge, trailBridge)

	// Dependency Injection: Services
	detectionSvc := service.NewDetectionService(repo, pipeline, cfg.SpeedLimitKMH)
	reportSvc := service.NewReportService(detectionSvc)

	// Fiber App
	app := fiber.New(fiber.Config{
		AppName:      "Civitas Detection API v1.0",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Routes
	http.SetupRoutes(app, reportSvc, repo)

	// Graceful shutdown
	go func() {
		port := cfg.Port
		if port == "" {
			port = "8080"
		}
		log.Printf("Server starting on :%s", port)
		if err := app.Listen(":" + port); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	detectionSvc.WaitBackground()
	log.Println("Server exited gracefully")
}

type Config struct {
	DatabaseURL     string
	DataDir         string
	Source          string // postgres | csv | mock
	MapServiceURL   string
	TrailServiceURL string
	SpeedLimitKMH   float64
	MaxWorkers      int
	Port            string
	Env             string
}

func loadConfig() *Config {
	return &Config{
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		DataDir:         getEnv("DETECTION_DATA_DIR", ""),
		Source:          getEnv("DETECTION_SOURCE", "postgres"),
		MapServiceURL:   getEnv("MAP_SERVICE_URL", ""),
		TrailServiceURL: getEnv("TRAIL_SERVICE_URL", ""),
		SpeedLimitKMH:   getEnvFloat("SPEED_LIMIT_KMH", 110),
		MaxWorkers:      getEnvInt("DETECTION_MAX_WORKERS", 0),
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("GO_ENV", "development"),
	}
}

// buildRepository selects the detection source from configuration, falling
// back to mock data when no store is reachable.
func buildRepository(cfg *Config) (service.DataRepository, func()) {
	if cfg.Source == "csv" && cfg.DataDir != "" {
		log.Printf("Using CSV detection source: %s", cfg.DataDir)
		return csvstore.NewCSVRepository(cfg.DataDir), func() {}
	}

	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err == nil {
			log.Println("Connected to PostgreSQL")
			return postgres.NewPostgresRepository(pool), pool.Close
		}
		log.Printf("Warning: Could not connect to database: %v", err)
	}

	log.Println("Running with mock data only")
	return postgres.NewMockRepository(), func() {}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
