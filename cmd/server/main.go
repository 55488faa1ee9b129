package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codedrop/codedrop/internal/api"
	"github.com/codedrop/codedrop/internal/config"
	"github.com/codedrop/codedrop/internal/ratelimit"
	"github.com/codedrop/codedrop/internal/store"
	"github.com/codedrop/codedrop/internal/sweep"
	"github.com/codedrop/codedrop/internal/ws"
)

const (
	// Room creations allowed per IP
	sharesPerSecond = 1
	shareBurst      = 10
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	roomStore := store.New(cfg.RoomTTLDuration(), time.Now)

	sweeper := sweep.New(roomStore, sweep.Config{Interval: cfg.SweepIntervalDuration()})
	sweeper.Start()
	defer sweeper.Stop()

	hub := ws.NewHub(roomStore)
	go hub.Run()

	apiHandler := api.New(roomStore, hub, cfg.BaseURL)
	shareLimiter := ratelimit.NewPerKey(sharesPerSecond, shareBurst)

	mux := http.NewServeMux()

	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(hub, w, r)
	})

	mux.HandleFunc("/share", api.RateLimit(shareLimiter, apiHandler.ShareHandler))
	mux.HandleFunc("/code/", apiHandler.CodeHandler)
	mux.HandleFunc("/health", apiHandler.HealthHandler)
	mux.HandleFunc("/api/stats", apiHandler.StatsHandler)

	handler := api.RequestLogging(corsMiddleware(cfg.AllowedOrigin, mux))

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("codedrop server starting on :%s", cfg.Port)
	log.Printf("Room TTL: %v, sweep interval: %v", cfg.RoomTTLDuration(), cfg.SweepIntervalDuration())
	log.Println("Endpoints:")
	log.Println("  - WebSocket: /ws")
	log.Println("  - Share:     POST /share")
	log.Println("  - Code:      GET /code/{room}")
	log.Println("  - Health:    GET /health")
	log.Println("  - Stats:     GET /api/stats")

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("ListenAndServe: ", err)
	}
}

func corsMiddleware(origin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
