package api

import "net/http"

func RegisterRoutes(mux *http.ServeMux, h *Handler) http.Handler {
	// Admin APIs
	mux.HandleFunc("GET /admin/keys", h.ListKeys)
	mux.HandleFunc("POST /admin/expire", h.Expire)
	mux.HandleFunc("GET /admin/reaper", h.ReaperStats)
	mux.HandleFunc("GET /admin/logs", h.GetLogs)

	// Observability APIs
	mux.HandleFunc("GET /metrics", h.GetMetrics)
	mux.HandleFunc("GET /health", h.GetHealth)
	mux.Handle("GET /debug/metrics/prometheus", h.prometheusHandler())

	return Chain(
		mux,
		RecoveryMiddleware(h.logger),
		LoggingMiddleware(h.logger),
	)
}
