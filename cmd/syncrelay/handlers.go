package main

import (
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"securechat/internal/chat"
	"securechat/internal/config"
	"securechat/internal/syncstore"
)

var (
	syncPushes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "securechat_syncrelay_pushes_total",
		Help: "Total sync blobs pushed by a linked device.",
	})
	syncConsumes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "securechat_syncrelay_consumes_total",
		Help: "Total sync blobs consumed by a linking device.",
	})
	syncConsumeMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "securechat_syncrelay_consume_misses_total",
		Help: "Total sync-blob fetches that found nothing queued.",
	})
)

func init() {
	prometheus.MustRegister(syncPushes, syncConsumes, syncConsumeMisses)
}

// authorizedAccountKey validates the bearer device-linking token against
// the current (or, during a rotation window, previous) device-link
// secret and checks it was issued for the accountKey path parameter, so
// one account's linking token can never be replayed against another
// account's queued blob.
func authorizedAccountKey(r *http.Request, accountKey string) error {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return fmt.Errorf("syncrelay: missing bearer token")
	}
	token := header[len(prefix):]

	identityKey, _, err := chat.VerifyLinkingToken(token, []byte(config.CurrentDeviceLinkSecret()))
	if err != nil {
		if previous, ok := config.PreviousDeviceLinkSecret(); ok {
			identityKey, _, err = chat.VerifyLinkingToken(token, []byte(previous))
		}
	}
	if err != nil {
		return fmt.Errorf("syncrelay: invalid linking token: %w", err)
	}

	if base64.RawURLEncoding.EncodeToString(identityKey) != accountKey {
		return fmt.Errorf("syncrelay: token not issued for this account")
	}
	return nil
}

// pushSyncHandler accepts an opaque SyncData blob from an already-linked
// device and queues it for exactly one pickup by the linking device.
func pushSyncHandler(store *syncstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountKey := mux.Vars(r)["accountKey"]
		if err := authorizedAccountKey(r, accountKey); err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		blob, err := io.ReadAll(io.LimitReader(r.Body, 16<<20))
		if err != nil {
			http.Error(w, "syncrelay: reading body", http.StatusBadRequest)
			return
		}
		if len(blob) == 0 {
			http.Error(w, "syncrelay: empty body", http.StatusBadRequest)
			return
		}

		if err := store.Put(r.Context(), accountKey, blob); err != nil {
			log.Printf("syncrelay: push failed for %s: %v", accountKey, err)
			http.Error(w, "syncrelay: storage failure", http.StatusInternalServerError)
			return
		}
		syncPushes.Inc()
		w.WriteHeader(http.StatusAccepted)
	}
}

// consumeSyncHandler hands the queued SyncData blob to the linking
// device and deletes it, so a second fetch for the same account finds
// nothing queued.
func consumeSyncHandler(store *syncstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountKey := mux.Vars(r)["accountKey"]
		if err := authorizedAccountKey(r, accountKey); err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		blob, err := store.Consume(r.Context(), accountKey)
		if err == syncstore.ErrNoPendingBlob {
			syncConsumeMisses.Inc()
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			log.Printf("syncrelay: consume failed for %s: %v", accountKey, err)
			http.Error(w, "syncrelay: storage failure", http.StatusInternalServerError)
			return
		}
		syncConsumes.Inc()
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(blob)
	}
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
