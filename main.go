package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"kabro/internal/config"
	"kabro/internal/repositories"
	"kabro/internal/services"
	"kabro/pkg/rabbitmq"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "kabro",
	Short:         "Kabro storefront API",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

// kabro serve: start the HTTP server. Also the default command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

// kabro migrate: create or update the database tables.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		db, err := repositories.OpenDatabase(cfg.Database)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		if err := repositories.AutoMigrate(db); err != nil {
			return err
		}
		log.Println("Migrations applied")
		return nil
	},
}

// kabro order-events: consume order.placed events until interrupted.
var orderEventsCmd = &cobra.Command{
	Use:   "order-events",
	Short: "Consume order events from RabbitMQ",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.RabbitMQ.URL == "" {
			return fmt.Errorf("RABBITMQ_URL is not set")
		}

		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL})
		if err != nil {
			return err
		}
		defer mq.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log.Printf("Consuming %s...", rabbitmq.OrderQueue)
		if err := mq.ConsumeOrderEvents(ctx, rabbitmq.LogOrderEvent); err != nil && err != context.Canceled {
			return err
		}
		log.Println("Order events consumer stopped")
		return nil
	},
}

// kabro catalogue-refresh: drop the cached catalogue and reload it from
// CATALOGUE_PATH. Needed after editing the file when the cache is Redis.
var catalogueRefreshCmd = &cobra.Command{
	Use:   "catalogue-refresh",
	Short: "Reload the catalogue into the cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return refreshCatalogue(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(orderEventsCmd)
	rootCmd.AddCommand(catalogueRefreshCmd)
}

func refreshCatalogue(ctx context.Context, cfg *config.Config) error {
	c, closeCache, err := openCatalogueCache(ctx, cfg.Catalogue)
	if err != nil {
		return err
	}
	defer closeCache()

	products := services.NewProductService(repositories.NewJSONProductRepository(cfg.Catalogue.Path), c, cfg.Catalogue.CacheTTL)
	if err := products.Invalidate(ctx); err != nil {
		return fmt.Errorf("failed to drop cached catalogue: %w", err)
	}
	catalogue, err := products.Catalogue(ctx)
	if err != nil {
		return err
	}
	log.Printf("Catalogue reloaded: %d categories, %d products", len(catalogue.Categories), len(catalogue.Products))
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	a, err := NewApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := cfg.App.ListenAddr()
	log.Printf("Starting server on port %s", addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Fiber.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	log.Println("Shutting down server...")
	if err := a.Fiber.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
	return nil
}
