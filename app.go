package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"kabro/internal/config"
	"kabro/internal/email"
	"kabro/internal/handlers"
	"kabro/internal/middleware"
	"kabro/internal/notify"
	"kabro/internal/repositories"
	"kabro/internal/services"
	"kabro/pkg/cache"
	"kabro/pkg/metrics"
	"kabro/pkg/rabbitmq"
	"kabro/pkg/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

const indexPage = `<!doctype html>
<html lang="fr">
<head><meta charset="utf-8"><title>Kabro API</title></head>
<body>
<h1>Kabro API</h1>
<ul>
<li>POST /api/orders</li>
<li>POST /api/contact</li>
<li>POST /api/auth/register, /api/auth/login, /api/auth/logout</li>
<li>GET /api/auth/me</li>
<li>GET /api/catalogue, /api/products, /api/products/:slug, /api/promotions, /api/trending</li>
<li>GET /health, /metrics</li>
</ul>
</body>
</html>`

// App is the wired HTTP application and the resources it owns.
type App struct {
	Fiber  *fiber.App
	DB     *gorm.DB
	Config *config.Config

	closers []func() error
}

// NewApp opens every backing resource named by cfg and registers the routes.
// Callers must Close the returned App.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	db, err := repositories.OpenDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}
	a.DB = db
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}
	if err := repositories.AutoMigrate(db); err != nil {
		a.Close()
		return nil, err
	}

	userRepo := repositories.NewGORMUserRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	contactRepo := repositories.NewGORMContactRepository(db)
	productRepo := repositories.NewJSONProductRepository(cfg.Catalogue.Path)

	catalogueCache, closeCache, err := openCatalogueCache(ctx, cfg.Catalogue)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, closeCache)

	previews, err := storage.Open(cfg.Preview, cfg.App.APIURL)
	if err != nil {
		a.Close()
		return nil, err
	}

	renderer, err := email.NewRenderer(cfg.App.AppURL, cfg.Mail.LogoPath)
	if err != nil {
		a.Close()
		return nil, err
	}
	mailer, err := notify.NewEmailNotifier(ctx, cfg.Mail, previews)
	if err != nil {
		a.Close()
		return nil, err
	}
	whatsapp := notify.NewWhatsAppNotifier(cfg.WhatsApp, nil)

	authService := services.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	productService := services.NewProductService(productRepo, catalogueCache, cfg.Catalogue.CacheTTL)
	contactService := services.NewContactService(contactRepo, renderer, mailer, cfg.Mail.ContactRecipient())
	orderService := services.NewOrderService(orderRepo, userRepo, renderer,
		services.Notifiers{Email: mailer, WhatsApp: whatsapp}, cfg)

	if cfg.RabbitMQ.URL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, mq.Close)
		orderService.WithEvents(mq)
	}

	app := fiber.New(fiber.Config{
		AppName:      "kabro",
		ErrorHandler: handlers.ErrorHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CORSOrigin,
		AllowCredentials: true,
	}))
	app.Use(metrics.Middleware())

	app.Get("/", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.SendString(indexPage)
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api", middleware.Session(authService, cfg.Auth.CookieName))
	handlers.NewAuthHandler(authService, cfg.Auth).RegisterRoutes(api)
	handlers.NewOrderHandler(orderService).RegisterRoutes(api)
	handlers.NewContactHandler(contactService).RegisterRoutes(api)
	handlers.NewProductHandler(productService).RegisterRoutes(api)
	handlers.NewPreviewHandler(previews).RegisterRoutes(api)

	a.Fiber = app
	return a, nil
}

// openCatalogueCache returns a Redis cache when REDIS_URL is set, the
// in-process one otherwise, along with its close func.
func openCatalogueCache(ctx context.Context, cfg config.CatalogueConfig) (cache.Cache, func() error, error) {
	if cfg.RedisURL == "" {
		return cache.NewMemory(), func() error { return nil }, nil
	}
	rc, err := cache.NewRedis(cfg.RedisURL, "kabro:")
	if err != nil {
		return nil, nil, err
	}
	if err := rc.Ping(ctx); err != nil {
		rc.Close()
		return nil, nil, fmt.Errorf("redis unreachable: %w", err)
	}
	return rc, rc.Close, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}
	a.closers = nil
}
