// Command syncrelay is a small HTTP relay that stores and forwards
// opaque SyncData blobs between a single account's own devices during
// device linking. It never sees message content or ratchet state — only
// whatever ciphertext internal/chat.backup-style export the primary
// device chose to hand a newly linked one.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"securechat/internal/config"
	"securechat/internal/syncstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: loading config: %v", err)
	}

	log.Printf("starting syncrelay")

	store, err := syncstore.Open(cfg.SyncPostgresURL)
	if err != nil {
		log.Fatalf("FATAL: connecting to sync store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("warning: closing sync store: %v", err)
		}
	}()

	router := mux.NewRouter()
	router.HandleFunc("/healthz", healthzHandler).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := router.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/accounts/{accountKey}/sync", pushSyncHandler(store)).Methods("POST")
	api.HandleFunc("/accounts/{accountKey}/sync", consumeSyncHandler(store)).Methods("GET")

	corsHandler := cors.New(cors.Options{
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	})

	addr := os.Getenv("SECURECHAT_SYNCRELAY_LISTEN_ADDR")
	if addr == "" {
		addr = ":8090"
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           corsHandler.Handler(router),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("syncrelay listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("received signal %v, shutting down", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("warning: server shutdown: %v", err)
	}
	log.Println("syncrelay stopped")
}
