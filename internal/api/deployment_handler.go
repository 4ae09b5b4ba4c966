package api

import (
	"net/http"

	"github.com/shaiso/nodus-deploy/internal/domain"
	"github.com/shaiso/nodus-deploy/internal/telemetry"
)

// ListNetworks возвращает сети из адресной книги.
// GET /api/v1/networks
func (h *Handler) ListNetworks(w http.ResponseWriter, _ *http.Request) {
	if h.book == nil {
		writeList(w, []string{}, 0)
		return
	}

	networks := h.book.Networks()
	writeList(w, networks, len(networks))
}

// ListDeployments возвращает адреса сети.
// Источник — адресная книга; если в ней нет сети, а БД подключена,
// берутся последние деплои из БД.
// GET /api/v1/networks/{network}/deployments
func (h *Handler) ListDeployments(w http.ResponseWriter, r *http.Request) {
	network := r.PathValue("network")

	var results []domain.Result
	if h.book != nil {
		results = h.book.Deployments(network)
	}
	if len(results) == 0 && h.runs != nil {
		var err error
		results, err = h.runs.ListDeployments(r.Context(), network)
		if err != nil {
			repoError(w, telemetry.FromContext(r.Context()), err, CodeNetworkNotFound, "network not found")
			return
		}
	}

	if len(results) == 0 {
		writeError(w, http.StatusNotFound, CodeNetworkNotFound, "network not found")
		return
	}

	list := DeploymentsFromDomain(results)
	writeList(w, list, len(list))
}
