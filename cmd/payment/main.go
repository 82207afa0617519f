package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/navalarchive/services/internal/httpx"
	"github.com/navalarchive/services/internal/observe"
	"github.com/navalarchive/services/internal/payment"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	log.Println("payment-service starting...")

	httpPort := getEnv("HTTP_PORT", "5001")
	dbDSN := getEnv("PAYMENT_DB_DSN", "")
	migrationsPath := getEnv("MIGRATIONS_PATH", "./internal/payment/migrations")
	approvalPercent, err := strconv.Atoi(getEnv("APPROVAL_PERCENT", "95"))
	if err != nil || approvalPercent < 0 || approvalPercent > 100 {
		log.Fatalf("Invalid APPROVAL_PERCENT: %v", getEnv("APPROVAL_PERCENT", "95"))
	}
	requestTimeout, err := time.ParseDuration(getEnv("REQUEST_TIMEOUT", "15s"))
	if err != nil {
		log.Fatalf("Invalid REQUEST_TIMEOUT: %v", err)
	}

	shutdownTracing, err := observe.Setup("payment-service")
	if err != nil {
		log.Fatalf("Failed to set up tracing: %v", err)
	}

	// Audit store: postgres when configured, in-memory otherwise.
	var store payment.Store = payment.NewMemoryStore()
	if dbDSN != "" {
		pg, err := payment.NewPostgresStore(dbDSN, migrationsPath)
		if err != nil {
			log.Fatalf("Failed to set up postgres store: %v", err)
		}
		defer pg.Close()
		store = pg
		log.Println("Using postgres transaction store")
	}

	service := payment.NewService(store, payment.RandomDecider{Percent: approvalPercent})
	handler := payment.NewHandler(service)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(httpx.RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	handler.Routes(r)

	srv := &http.Server{
		Addr:         ":" + httpPort,
		Handler:      otelhttp.NewHandler(r, "payment-service"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Payment service listening on :%s (approval %d%%)", httpPort, approvalPercent)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down payment service...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		log.Printf("tracing shutdown: %v", err)
	}
	log.Println("Payment service stopped")
}
