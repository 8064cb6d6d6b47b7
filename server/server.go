// Package server exposes the tracker over HTTP and pushes live valuations to websocket clients.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/etnz/coinfolio"
)

// Options tunes a Server. The zero value allows any origin and relays nothing.
type Options struct {
	AllowedOrigin string
	// Relay, if set, receives every recorded snapshot.
	Relay *Relay
}

type Server struct {
	tracker  *coinfolio.Tracker
	hub      *Hub
	relay    *Relay
	router   *mux.Router
	upgrader websocket.Upgrader
}

// NewServer creates the server and hooks it to the tracker snapshots.
func NewServer(tracker *coinfolio.Tracker, hub *Hub, opts Options) *Server {
	if opts.AllowedOrigin == "" {
		opts.AllowedOrigin = "*"
	}
	s := &Server{
		tracker: tracker,
		hub:     hub,
		relay:   opts.Relay,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	tracker.OnSnapshot = s.SnapshotRecorded

	r := mux.NewRouter()
	r.Use(accessMiddleware, corsMiddleware(opts.AllowedOrigin))

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/transactions", s.handleListTransactions).Methods(http.MethodGet)
	r.HandleFunc("/transactions", s.handleAddTransaction).Methods(http.MethodPost)
	r.HandleFunc("/transactions/batch-delete", s.handleBatchDelete).Methods(http.MethodPost)
	r.HandleFunc("/transactions/import-csv", s.handleImportCSV).Methods(http.MethodPost)
	r.HandleFunc("/transactions/{id}", s.handleEditTransaction).Methods(http.MethodPut)
	r.HandleFunc("/transactions/{id}", s.handleRemoveTransaction).Methods(http.MethodDelete)

	r.HandleFunc("/accounts", s.handleAccounts).Methods(http.MethodGet)
	r.HandleFunc("/accounts/balances", s.handleAccountBalances).Methods(http.MethodGet)
	r.HandleFunc("/portfolio", s.handleCostBasis).Methods(http.MethodGet)
	r.HandleFunc("/portfolio-current", s.handleCurrent).Methods(http.MethodGet)

	r.HandleFunc("/snapshot", s.handleSnapshot).Methods(http.MethodPost)
	r.HandleFunc("/snapshot/date", s.handleSnapshotAt).Methods(http.MethodPost)
	r.HandleFunc("/snapshots", s.handleSnapshots).Methods(http.MethodGet)
	r.HandleFunc("/performance", s.handlePerformance).Methods(http.MethodGet)

	r.HandleFunc("/manual-balances", s.handleListManual).Methods(http.MethodGet)
	r.HandleFunc("/manual-balances", s.handleAddManual).Methods(http.MethodPost)
	r.HandleFunc("/manual-balances/overview", s.handleManualOverview).Methods(http.MethodGet)
	r.HandleFunc("/manual-balances-overview", s.handleManualOverview).Methods(http.MethodGet)
	r.HandleFunc("/manual-balances/{id}", s.handleEditManual).Methods(http.MethodPut)
	r.HandleFunc("/manual-balances/{id}", s.handleRemoveManual).Methods(http.MethodDelete)

	r.HandleFunc("/report", s.handleReport).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)

	// preflight requests never match a method above
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// StartPolling broadcasts the current valuation every interval until ctx is done.
func (s *Server) StartPolling(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *Server) refresh(ctx context.Context) {
	if err := s.RefreshAndBroadcast(ctx); err != nil {
		log.Warn().Err(err).Msg("polling refresh failed")
	}
}

// RefreshAndBroadcast values the portfolio and pushes it to every websocket client.
func (s *Server) RefreshAndBroadcast(ctx context.Context) error {
	if s.hub.Len() == 0 {
		return nil
	}
	v, err := s.tracker.Current(ctx)
	if err != nil {
		return err
	}
	s.hub.BroadcastJSON(Event{Type: "valuation", Data: v})
	return nil
}

// SnapshotRecorded pushes a new snapshot to websocket clients and to the relay.
func (s *Server) SnapshotRecorded(snap coinfolio.Snapshot) {
	s.hub.BroadcastJSON(Event{Type: "snapshot", Data: snap})
	if s.relay == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.relay.Publish(ctx, snap); err != nil {
		log.Warn().Err(err).Str("channel", s.relay.Channel).Msg("could not relay snapshot")
	}
}

// Relay publishes snapshots on a Redis channel, for other processes to follow.
type Relay struct {
	rdb     *redis.Client
	Channel string
}

// NewRelay publishes on "<prefix>:snapshots".
func NewRelay(rdb *redis.Client, prefix string) *Relay {
	return &Relay{rdb: rdb, Channel: prefix + ":snapshots"}
}

func (r *Relay) Publish(ctx context.Context, snap coinfolio.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if err := r.rdb.Publish(ctx, r.Channel, payload).Err(); err != nil {
		return fmt.Errorf("could not publish on %s: %w", r.Channel, err)
	}
	return nil
}
