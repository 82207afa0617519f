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

	"github.com/navalarchive/services/internal/chain"
	"github.com/navalarchive/services/internal/observe"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Runs one link of the trace chain, selected by CHAIN_SERVICE, or the
// whole chain in one process with CHAIN_ALL=1 for local demos.
func main() {
	requestTimeout, err := time.ParseDuration(getEnv("REQUEST_TIMEOUT", "15s"))
	if err != nil {
		log.Fatalf("Invalid REQUEST_TIMEOUT: %v", err)
	}

	configs := chain.DefaultChain()

	var toRun []chain.LinkConfig
	if getEnv("CHAIN_ALL", "") == "1" {
		toRun = configs
	} else {
		name := getEnv("CHAIN_SERVICE", "Gateway")
		cfg, err := chain.Find(configs, name)
		if err != nil {
			log.Fatalf("%v", err)
		}
		if addr := getEnv("HTTP_ADDR", ""); addr != "" {
			cfg.Addr = addr
		}
		if next := getEnv("NEXT_SERVICE_URL", ""); next != "" {
			cfg.NextURL = next
		}
		toRun = []chain.LinkConfig{cfg}
	}

	shutdownTracing, err := observe.Setup("chainlink")
	if err != nil {
		log.Fatalf("Failed to set up tracing: %v", err)
	}

	servers := make([]*http.Server, 0, len(toRun))
	for _, cfg := range toRun {
		link := chain.NewLink(cfg, requestTimeout)
		srv := &http.Server{
			Addr:         cfg.Addr,
			Handler:      link.Handler(),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		servers = append(servers, srv)

		go func(name string, srv *http.Server) {
			log.Printf("Chain link %s listening on %s", name, srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("server error (%s): %v", name, err)
			}
		}(cfg.Name, srv)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down chain links...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("server shutdown: %v", err)
		}
	}
	if err := shutdownTracing(ctx); err != nil {
		log.Printf("tracing shutdown: %v", err)
	}
	log.Println("Chain links stopped")
}
