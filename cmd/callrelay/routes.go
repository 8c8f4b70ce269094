package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voiceline/callrelay/internal/calllog"
	"github.com/voiceline/callrelay/internal/feed"
	"github.com/voiceline/callrelay/internal/telephony"
	"github.com/voiceline/callrelay/internal/webhook"
)

const (
	// dialTimeout bounds the provider REST round trip when originating a call.
	dialTimeout = 15 * time.Second

	// defaultSummaryLimit is how many summaries are returned when the caller
	// omits the ?limit= query parameter.
	defaultSummaryLimit = 20
)

type deps struct {
	cfg      config
	webhooks *webhook.Handler
	dialer   *telephony.Client
	store    *calllog.Store
	feed     *feed.Hub
}

// registerRoutes wires all HTTP endpoints to the shared mux.
func registerRoutes(mux *http.ServeMux, d deps) {
	d.webhooks.Register(mux)
	mux.HandleFunc("/health", handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /api/calls", d.handleDial)
	mux.HandleFunc("GET /api/summaries", d.handleSummaries)
	mux.HandleFunc("GET /api/summaries/{id}", d.handleSummary)
	mux.Handle("GET /api/summaries/stream", d.feed)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleDial originates an outbound call through the provider. The resulting
// call then flows through the same webhook endpoints as an inbound one.
func (d deps) handleDial(w http.ResponseWriter, r *http.Request) {
	if d.dialer == nil {
		http.Error(w, "outbound dialing not configured", http.StatusServiceUnavailable)
		return
	}
	var req struct {
		To string `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.To == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), dialTimeout)
	defer cancel()
	callID, err := d.dialer.Dial(ctx, req.To, d.cfg.baseURL+"/voice", d.cfg.baseURL+"/status")
	if err != nil {
		slog.Error("dial failed", "to", req.To, "error", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	slog.Info("outbound call initiated", "call_id", callID, "to", req.To)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"call_id": callID, "status": "queued"})
}

func (d deps) handleSummaries(w http.ResponseWriter, r *http.Request) {
	if d.store == nil {
		http.Error(w, "call log disabled", http.StatusNotFound)
		return
	}
	limit := queryInt(r, "limit", defaultSummaryLimit)
	offset := queryInt(r, "offset", 0)
	summaries, total, err := d.store.List(limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"summaries": summaries, "total": total})
}

func (d deps) handleSummary(w http.ResponseWriter, r *http.Request) {
	if d.store == nil {
		http.Error(w, "call log disabled", http.StatusNotFound)
		return
	}
	rec, err := d.store.Get(r.PathValue("id"))
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
