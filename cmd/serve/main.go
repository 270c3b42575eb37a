package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"ner-pipeline/cmd"
	"ner-pipeline/internal/api"
	"ner-pipeline/internal/config"
	"ner-pipeline/internal/core"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"gorm.io/gorm"
)

func createServer(db *gorm.DB, model core.Model, port int) *http.Server {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	service := api.NewNerService(db, model)

	r.Route("/api/v1", func(r chi.Router) {
		service.AddRoutes(r)
	})

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.LoadServeConfig(cmd.LoadEnvironment())
	if err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	slog.Info("starting server", "port", cfg.Port, "model_dir", cfg.Model.ModelDir, "model_type", cfg.Model.ModelType)

	db := cmd.OpenRegistry(cfg.Registry)

	model, err := cmd.LoadModel(context.Background(), cfg.Model, cfg.Artifacts)
	if err != nil {
		log.Fatalf("error loading tagger from %s: %v", cfg.Model.ModelDir, err)
	}
	defer model.Release()

	server := createServer(db, model, cfg.Port)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("serving api", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server on port %d failed: %v", cfg.Port, err)
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
		}
	}

	slog.Info("server stopped")
}
