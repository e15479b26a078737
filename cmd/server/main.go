package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/toonarmycaptain/website/internal/app"
	"github.com/toonarmycaptain/website/internal/forms"
	"github.com/toonarmycaptain/website/internal/handlers"
	"github.com/toonarmycaptain/website/internal/middleware"
	"github.com/toonarmycaptain/website/internal/server"
	"github.com/toonarmycaptain/website/internal/services"
	"github.com/toonarmycaptain/website/internal/workers"
	"github.com/toonarmycaptain/website/pkg/config"
	"github.com/toonarmycaptain/website/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		logger.New("info", "json").WithError(err).Fatal("Failed to load config")
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	gin.SetMode(cfg.Server.Mode)

	// Initialize database and contact services
	ctx := context.Background()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize application")
	}
	defer a.Close()

	router, err := server.NewRouter(server.Deps{
		Site:      handlers.Site{Name: cfg.Site.Name, BlogURL: cfg.Site.BlogURL},
		Sessions:  middleware.NewSessionManager(cfg.Session.Secret, cfg.Session.Secure),
		Submitter: a.Submissions,
		Validator: forms.NewContactValidator(cfg.Database.MessageMaxLength),
		Projects:  services.NewProjectService(cfg.GitHub.Username, cfg.GitHub.Token, log),
		Store:     a.Store,
		Gatherer:  a.Registry,
		Log:       log,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to build router")
	}

	// Start workers
	workerManager := workers.NewWorkerManager(log)
	if cfg.Notify.RetryInterval > 0 {
		workerManager.Add(a.RetryWorker())
	}
	workerManager.StartAll()
	defer workerManager.StopAll()

	// Setup server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.WithField("addr", srv.Addr).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shut down")
	}
	log.Info("Server stopped")
}
