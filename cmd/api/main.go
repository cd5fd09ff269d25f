package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"logistics-backoffice/internal/api"
	"logistics-backoffice/internal/config"
	"logistics-backoffice/internal/db"
	"logistics-backoffice/internal/migrate"
	"logistics-backoffice/internal/modules/customer"
	order "logistics-backoffice/internal/modules/orders"
	"logistics-backoffice/internal/modules/shipment"
	"logistics-backoffice/internal/modules/upload"
	"logistics-backoffice/internal/modules/user"
	"logistics-backoffice/pkg/email"
	"logistics-backoffice/pkg/storage"

	"github.com/labstack/gommon/log"
)

var logLevels = map[string]log.Lvl{
	"debug": log.DEBUG,
	"info":  log.INFO,
	"warn":  log.WARN,
	"error": log.ERROR,
	"off":   log.OFF,
}

func main() {
	// 1. --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		stdlog.Fatalf("Failed to load configuration: %v", err)
	}

	level, ok := logLevels[strings.ToLower(cfg.LogLevel)]
	if !ok {
		level = log.INFO
	}
	log.SetLevel(level)

	// 2. --- Echo and middleware ---
	e := api.NewEcho(cfg.ClientOrigin, cfg.BodyLimit)
	e.Logger.SetLevel(level)

	ctx := context.Background()

	// 3. --- Database Connection ---
	dbPool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		e.Logger.Fatalf("Unable to connect to the database: %v", err)
	}
	defer dbPool.Close()
	e.Logger.Info("Successfully connected to the database!")

	if cfg.MigrateOnStart {
		if err := migrate.Apply(ctx, dbPool); err != nil {
			e.Logger.Fatalf("Failed to apply migrations: %v", err)
		}
		e.Logger.Info("Database migrations applied")
	}

	// 4. --- Storage and email ---
	var store storage.Backend
	switch cfg.StorageBackend {
	case "s3":
		store, err = storage.NewS3(ctx, cfg.AWSRegion, cfg.S3Bucket)
	default:
		store, err = storage.NewLocal(cfg.UploadDir)
	}
	if err != nil {
		e.Logger.Fatalf("Unable to initialise %s storage: %v", cfg.StorageBackend, err)
	}

	var sender email.ServiceInterface = email.LogSender{}
	if cfg.SESFromEmail != "" {
		sesSender, err := email.NewSESV2Sender(ctx, cfg.AWSRegion, cfg.SESFromEmail)
		if err != nil {
			e.Logger.Fatalf("Unable to initialise SES: %v", err)
		}
		sender = sesSender
	} else {
		e.Logger.Warn("SES_FROM_EMAIL is not set, shipment emails are only logged")
	}
	templates, err := email.NewTemplateManager()
	if err != nil {
		e.Logger.Fatalf("Unable to parse email templates: %v", err)
	}

	// 5. --- Dependency Injection (Wiring everything up) ---
	userRepo := user.NewRepository(dbPool)
	userService := user.NewService(userRepo, cfg.JWTSecret, cfg.JWTExpiry)

	customerRepo := customer.NewRepository(dbPool)
	customerService := customer.NewService(customerRepo)

	orderRepo := order.NewRepository(dbPool)
	shipmentRepo := shipment.NewRepository(dbPool)
	orderService := order.NewService(orderRepo, customerRepo, shipmentRepo)

	uploadService := upload.NewService(store)
	notifier := shipment.NewEmailNotifier(sender, templates)
	shipmentService := shipment.NewService(shipmentRepo, orderRepo, customerRepo, uploadService, notifier)

	// 6. --- Initialize Router ---
	api.SetupRoutes(e, api.Handlers{
		User:     user.NewHandler(userService),
		Customer: customer.NewHandler(customerService),
		Order:    order.NewHandler(orderService),
		Shipment: shipment.NewHandler(shipmentService),
		Upload:   upload.NewHandler(uploadService),
	}, cfg.JWTSecret, dbPool)

	// 7. --- Start Server with graceful shutdown logic ---
	go func() {
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.Logger.Fatal("shutting down the server an error occurred: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		e.Logger.Fatal("Server forced to shutdown: ", err)
	}
	e.Logger.Info("Server exiting")
}
