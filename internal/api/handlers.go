package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"kvstore/internal/health"
	"kvstore/internal/logs"
	"kvstore/internal/metrics"
	"kvstore/internal/store"
	"kvstore/internal/ttl"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatsSource reports reaper statistics.
type StatsSource interface {
	Stats() ttl.Stats
}

// Handler holds dependencies for admin HTTP handlers.
type Handler struct {
	store    *store.Store
	metrics  *metrics.Registry
	logger   *logs.Logger
	analyzer *health.Analyzer
	reaper   StatsSource
	gatherer prometheus.Gatherer
}

// NewHandler creates a new API handler. reaper and gatherer may be nil.
func NewHandler(
	st *store.Store,
	reg *metrics.Registry,
	logger *logs.Logger,
	reaper StatsSource,
	gatherer prometheus.Gatherer,
) *Handler {
	return &Handler{
		store:    st,
		metrics:  reg,
		logger:   logger,
		analyzer: health.NewAnalyzer(reg, logger),
		reaper:   reaper,
		gatherer: gatherer,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

/* ---------------- GET /admin/keys ---------------- */

type keyInfo struct {
	Value      string `json:"value"`
	TTLSeconds int64  `json:"ttl_seconds"`
}

// ListKeys returns every live key with its value and remaining TTL
// (-1 for no expiry).
func (h *Handler) ListKeys(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	entries := h.store.List()

	resp := make(map[string]keyInfo, len(entries))
	for k, e := range entries {
		ttlSeconds := int64(-1)
		if e.HasExpiry() {
			ttlSeconds = int64(e.ExpiresAt.Sub(now) / time.Second)
			if ttlSeconds < 0 {
				ttlSeconds = 0
			}
		}
		resp[k] = keyInfo{Value: e.Value, TTLSeconds: ttlSeconds}
	}

	writeJSON(w, resp)
}

/* ---------------- POST /admin/expire ---------------- */

// Expire runs a full expiry sweep.
func (h *Handler) Expire(w http.ResponseWriter, r *http.Request) {
	removed := ttl.CleanupAllExpired(h.store)
	h.logger.Info("manual expiry sweep", "removed", removed)
	writeJSON(w, map[string]int{"removed": removed})
}

/* ---------------- GET /admin/reaper ---------------- */

func (h *Handler) ReaperStats(w http.ResponseWriter, r *http.Request) {
	if h.reaper == nil {
		http.Error(w, "reaper not running", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, h.reaper.Stats())
}

/* ---------------- GET /admin/logs ---------------- */

const defaultLogLimit = 50

func (h *Handler) GetLogs(w http.ResponseWriter, r *http.Request) {
	n := defaultLogLimit
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			http.Error(w, "invalid n", http.StatusBadRequest)
			return
		}
		n = v
	}
	writeJSON(w, h.logger.GetLast(n))
}

/* ---------------- GET /metrics ---------------- */

func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.metrics.Snapshot())
}

/* ---------------- GET /health ---------------- */

func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.analyzer.Analyze())
}

/* ---------------- GET /debug/metrics/prometheus ---------------- */

func (h *Handler) prometheusHandler() http.Handler {
	g := h.gatherer
	if g == nil {
		g = metrics.NewPrometheusRegistry(h.metrics, nil)
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
