package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
		Metrics(),
	)

	mux.Handle("GET /healthz", chain(http.HandlerFunc(h.Health)))
	mux.Handle("GET /metrics", promhttp.Handler())

	// Runs
	mux.Handle("GET /api/v1/runs", chain(http.HandlerFunc(h.ListRuns)))
	mux.Handle("GET /api/v1/runs/{id}", chain(http.HandlerFunc(h.GetRun)))

	// Address book
	mux.Handle("GET /api/v1/networks", chain(http.HandlerFunc(h.ListNetworks)))
	mux.Handle("GET /api/v1/networks/{network}/deployments", chain(http.HandlerFunc(h.ListDeployments)))
}

// Health отвечает 200, пока процесс жив.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeData(w, map[string]string{"status": "ok"})
}
