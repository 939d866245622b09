package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"pii-redactor/cmd"
	"pii-redactor/internal/api"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func createServer(service *api.RedactionService, port int) *http.Server {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		service.AddRoutes(r)
	})

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}
}

func main() {
	var envFile string
	var verbose bool
	flag.StringVar(&envFile, "env", "", "path to load env from")
	flag.BoolVar(&verbose, "v", false, "enable debug logging")
	flag.Parse()

	cfg, err := cmd.LoadConfig(envFile, verbose)
	if err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	engine, err := cmd.NewEngine(context.Background(), cfg)
	if err != nil {
		log.Fatalf("error creating redactor: %v", err)
	}
	defer engine.Close()

	maxBodyBytes := int64(cfg.MaxFileSizeMB) * 1024 * 1024
	service := api.NewRedactionService(engine.Redactor, cfg.ClassifierType, maxBodyBytes)

	server := createServer(service, cfg.Port)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("API server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("could not listen on %d: %v", cfg.Port, err)
	}

	slog.Info("server stopped")
}
