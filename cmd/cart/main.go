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
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/navalarchive/services/internal/cart"
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
	log.Println("cart-service starting...")

	httpPort := getEnv("HTTP_PORT", "5003")
	cardServiceURL := getEnv("CARD_SERVICE_URL", "http://localhost:5002")
	mongoURI := getEnv("MONGO_URI", "")
	redisAddr := getEnv("REDIS_ADDR", "")
	requestTimeout, err := time.ParseDuration(getEnv("REQUEST_TIMEOUT", "15s"))
	if err != nil {
		log.Fatalf("Invalid REQUEST_TIMEOUT: %v", err)
	}

	shutdownTracing, err := observe.Setup("cart-service")
	if err != nil {
		log.Fatalf("Failed to set up tracing: %v", err)
	}

	// Store: mongo when configured, in-memory otherwise.
	var store cart.Store = cart.NewMemoryStore()
	if mongoURI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
		cancel()
		if err != nil {
			log.Fatalf("Failed to connect to mongo: %v", err)
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Printf("mongo disconnect: %v", err)
			}
		}()
		store = cart.NewMongoStore(client.Database("museum").Collection("carts"))
		log.Printf("Using mongo cart store at %s", mongoURI)
	}

	var cache cart.Cache = cart.NewLocalCache()
	if redisAddr != "" {
		cache = cart.NewRedisCache(redis.NewClient(&redis.Options{Addr: redisAddr}))
		log.Printf("Using redis cart cache at %s", redisAddr)
	}

	service := cart.NewService(store, cache, cart.DefaultCatalog())
	cards := cart.NewCardClient(cardServiceURL, requestTimeout)
	handler := cart.NewHandler(service, cards)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(httpx.RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	handler.Routes(r)

	srv := &http.Server{
		Addr:         ":" + httpPort,
		Handler:      otelhttp.NewHandler(r, "cart-service"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Cart service listening on :%s", httpPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down cart service...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		log.Printf("tracing shutdown: %v", err)
	}
	log.Println("Cart service stopped")
}
