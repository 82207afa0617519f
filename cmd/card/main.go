package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/navalarchive/services/internal/card"
	"github.com/navalarchive/services/internal/httpx"
	"github.com/navalarchive/services/internal/observe"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	log.Println("card-service starting...")

	httpPort := getEnv("HTTP_PORT", "5002")
	paymentServiceURL := getEnv("PAYMENT_SERVICE_URL", "http://localhost:5001")
	requestTimeout, err := time.ParseDuration(getEnv("REQUEST_TIMEOUT", "15s"))
	if err != nil {
		log.Fatalf("Invalid REQUEST_TIMEOUT: %v", err)
	}

	shutdownTracing, err := observe.Setup("card-service")
	if err != nil {
		log.Fatalf("Failed to set up tracing: %v", err)
	}

	store := card.NewMemoryStore()
	payments := card.NewHTTPPaymentClient(paymentServiceURL, requestTimeout)
	service := card.NewService(store, payments)
	handler := card.NewHandler(service)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(httpx.RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	handler.Routes(r)

	srv := &http.Server{
		Addr:         ":" + httpPort,
		Handler:      otelhttp.NewHandler(r, "card-service"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Card service listening on :%s", httpPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down card service...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		log.Printf("tracing shutdown: %v", err)
	}
	log.Println("Card service stopped")
}
