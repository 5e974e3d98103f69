package main

import (
	"log"
	"time"

	"github.com/fenilmodi00/soho-stock-backend/config"
	"github.com/fenilmodi00/soho-stock-backend/database"
	"github.com/fenilmodi00/soho-stock-backend/handlers"
	"github.com/fenilmodi00/soho-stock-backend/jobs"
	"github.com/fenilmodi00/soho-stock-backend/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load config
	cfg := config.LoadConfig()

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	// Connect to database
	if err := database.Connect(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate("database/schema.sql"); err != nil {
		log.Printf("Migration warning: %v", err)
	}

	sweepConfig := cfg.GetSweepConfig()

	// Initialize services
	stockClient := services.NewZaraStockClient(cfg.ZaraStockBaseURL, cfg.GetLookupTimeout())
	availabilityStore := services.NewAvailabilityStore(database.DB, cfg.GetCacheTTL())
	productService := services.NewProductService(database.DB)
	lookupService := services.NewStockLookupService(stockClient, availabilityStore)
	sweepService := services.NewSohoSweepService(productService, stockClient, sweepConfig)

	log.Println("SoHo stock backend services initialized:")
	log.Printf("  - Zara stock client (base URL: %s, timeout: %v)", cfg.ZaraStockBaseURL, cfg.GetLookupTimeout())
	log.Printf("  - Availability store (TTL: %v)", cfg.GetCacheTTL())
	log.Printf("  - SoHo sweep (brand: %s, store: %s, delay: %v, chunk size: %d)",
		sweepConfig.Brand, sweepConfig.StoreID, sweepConfig.Delay, sweepConfig.ChunkSize)

	// Initialize handlers
	stockHandler := handlers.NewStockHandler(lookupService)
	sweepHandler := handlers.NewSweepHandler(sweepService)
	productHandler := handlers.NewProductHandler(productService)

	// Start the scheduled sweep with its own internal ticker
	sweepJob := jobs.NewSohoSweepJob(sweepService, cfg.GetSweepInterval())
	sweepJob.Start()

	// Setup Fiber
	app := fiber.New()

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New())

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		if err := database.HealthCheck(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "degraded",
				"error":  err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	// Routes
	api := app.Group("/api/v1")

	// Stock Routes (check is registered for all methods to return 405 on non-POST)
	api.All("/stock/check", stockHandler.CheckStock)
	api.All("/stock/soho-sweep", sweepHandler.TriggerSweep)

	// Product Routes (read-only; the catalog is seeded externally)
	api.Get("/products", productHandler.GetProducts)
	api.Get("/products/:id", productHandler.GetProductByID)

	// Start server
	log.Printf("Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
