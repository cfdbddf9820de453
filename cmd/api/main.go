package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"agrimarket/internal/config"
	"agrimarket/internal/handler"
	"agrimarket/internal/notify"
	"agrimarket/internal/pricing"
	"agrimarket/internal/recommend"
	"agrimarket/internal/repository"
	"agrimarket/internal/service"
	"agrimarket/internal/translate"
	"agrimarket/internal/weather"
	"agrimarket/internal/ws"
	"agrimarket/pkg/database"
	"agrimarket/pkg/jwt"
	"agrimarket/pkg/logger"
)

func main() {
	// 1. Load config
	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)
	if cfg.JWTSecret != "" {
		jwt.SetSecretKey(cfg.JWTSecret)
	}

	// 2. Setup Database
	dsn := cfg.DatabaseURL
	if cfg.DBDriver == "sqlite" {
		dsn = cfg.SQLitePath
	}
	db, err := database.Open(database.Options{Driver: cfg.DBDriver, DSN: dsn})
	if err != nil {
		logger.Fatal("Failed to connect to database", map[string]any{"driver": cfg.DBDriver, "error": err.Error()})
	}
	if err := repository.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database", map[string]any{"error": err.Error()})
	}

	// 3. Seed default accounts and optional demo data
	if err := repository.SeedDefaults(db); err != nil {
		logger.Warn("Failed to seed default accounts", map[string]any{"error": err.Error()})
	}
	if cfg.SeedSampleData {
		if err := repository.SeedSampleData(db); err != nil {
			logger.Warn("Failed to seed sample data", map[string]any{"error": err.Error()})
		}
	}

	// 4. Collaborators
	book, err := openPriceBook(cfg)
	if err != nil {
		logger.Fatal("Failed to open price book", map[string]any{"backend": cfg.PriceBackend, "error": err.Error()})
	}
	defer book.Close()
	if err := pricing.SeedDefaults(context.Background(), book); err != nil {
		logger.Warn("Failed to seed market prices", map[string]any{"error": err.Error()})
	}

	notifier := newNotifier(cfg)
	var translator translate.Translator = translate.Noop{}
	if cfg.TranslateURL != "" {
		translator = translate.NewHTTPTranslator(cfg.TranslateURL, cfg.CollaboratorLimit)
	}
	messenger := notify.NewMessenger(notifier, translator, cfg.CollaboratorLimit)
	weatherClient := weather.NewWeatherAPIClient(cfg.WeatherBaseURL, cfg.WeatherAPIKey, cfg.CollaboratorLimit)

	// 5. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 6. Dependency Injection (Wiring Layers)
	userRepo := repository.NewUserRepo(db)
	listingRepo := repository.NewListingRepo(db)
	offerRepo := repository.NewOfferRepo(db)
	txRepo := repository.NewTransactionRepo(db)

	offerService := service.NewOfferService(offerRepo, listingRepo, txRepo, userRepo, db, wsHub, messenger)
	services := handler.Services{
		Auth:      service.NewAuthService(userRepo, wsHub),
		Users:     service.NewUserService(userRepo),
		Listings:  service.NewListingService(listingRepo, userRepo, db, wsHub),
		Offers:    offerService,
		Dashboard: service.NewDashboardService(userRepo, listingRepo, txRepo),
		Market:    service.NewMarketService(book, wsHub, messenger),
		Recommendation: service.NewRecommendationService(
			weatherClient, recommend.NewDefaultClassifier(), book, messenger, cfg.CollaboratorLimit,
		),
	}

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Smart Farming Market v1.0",
	})

	// Middleware
	app.Use(fiberlogger.New(fiberlogger.Config{Output: logger.Standard().Writer()}))
	app.Use(recover.New())
	app.Use(cors.New())

	// 8. Routes
	handler.RegisterRoutes(app, services)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 9. Graceful Shutdown
	go func() {
		logger.Info("Server starting", map[string]any{"port": cfg.Port, "db_driver": cfg.DBDriver, "price_backend": cfg.PriceBackend})
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Fatal("Server failed", map[string]any{"error": err.Error()})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...", nil)
	if err := app.Shutdown(); err != nil {
		logger.Error("Server forced to shutdown", map[string]any{"error": err.Error()})
	}
	drainCtx, cancel := context.WithTimeout(context.Background(), 2*cfg.CollaboratorLimit)
	if err := offerService.Drain(drainCtx); err != nil {
		logger.Warn("Pending notifications abandoned", map[string]any{"error": err.Error()})
	}
	cancel()
	if closer, ok := notifier.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Warn("Failed to close notifier", map[string]any{"error": err.Error()})
		}
	}

	logger.Info("Server exited", nil)
}

func openPriceBook(cfg *config.Config) (pricing.PriceBook, error) {
	if cfg.PriceBackend == "pebble" {
		return pricing.OpenPebbleBook(cfg.PricePebbleDir)
	}
	return pricing.NewCSVBook(cfg.PriceCSVPath)
}

// newNotifier publishes SMS jobs to Kafka when brokers are configured and logs them otherwise
func newNotifier(cfg *config.Config) notify.Notifier {
	if len(cfg.KafkaBrokers) > 0 {
		logger.Info("SMS notifications via Kafka", map[string]any{"brokers": cfg.KafkaBrokers, "topic": cfg.KafkaSMSTopic})
		return notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaSMSTopic)
	}
	logger.Info("SMS notifications logged only (KAFKA_BROKERS not set)", nil)
	return notify.NewLogNotifier()
}
