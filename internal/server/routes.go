package server

import (
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/strippers/internal/metrics"
	"github.com/desertthunder/strippers/internal/shared"
)

// NewRouter registers every inbound endpoint on a [BasicRouter] with request id, logging and recovery middleware.
func NewRouter(api *API, hooks *WebhookEndpoint, logger *log.Logger) *BasicRouter {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	r := NewBasicRouter()
	r.Use(RequestID(), Logging(logger), Recover(logger))

	r.Handle("/unsupported", http.HandlerFunc(api.Unsupported), http.MethodPost)
	r.Handle("/stripper", http.HandlerFunc(api.Stripper), http.MethodGet, http.MethodPost)
	r.Handle("/add_stripper", http.HandlerFunc(api.AddStripper), http.MethodPost)
	r.Handle("/delete_unsupported", http.HandlerFunc(api.DeleteUnsupported), http.MethodPost)
	r.Handle("/master_unsupported", http.HandlerFunc(api.MasterUnsupported), http.MethodGet, http.MethodPost)
	r.Handle("/version", http.HandlerFunc(api.Version), http.MethodGet)
	r.Handle("/healthz", http.HandlerFunc(api.Health), http.MethodGet)
	r.Handle("/metrics", metrics.Handler(), http.MethodGet)
	r.Handler(hooks, http.MethodPost)

	return r
}
