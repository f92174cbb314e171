package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/amail-io/amail-ce/internal/api"
	"github.com/amail-io/amail-ce/internal/app"
	"github.com/amail-io/amail-ce/internal/config"
	"github.com/amail-io/amail-ce/internal/service"
	"github.com/amail-io/amail-ce/internal/version"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	if err := config.Load(configPath); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := config.Get()

	app.SetupLogging(cfg)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	ctx := context.Background()
	stores, err := app.BuildStores(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to build store adapters: %v", err)
	}

	messageSvc := service.NewMessageService(stores.Messages, stores.Tickets)
	ticketSvc := service.NewTicketService(stores.Tickets, messageSvc, cfg.Ticket.StrictStatus)
	aiSvc, err := app.BuildAIService(cfg)
	if err != nil {
		log.Fatalf("Failed to build AI service: %v", err)
	}

	router := api.NewRouter(cfg, ticketSvc, messageSvc, aiSvc)
	router.SetupRoutes()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		slog.Info("server listening",
			"addr", srv.Addr,
			"version", version.String(),
			"store_driver", cfg.Store.Driver,
			"env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}
}
