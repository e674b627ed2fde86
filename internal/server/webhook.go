package server

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/strippers/internal/shared"
	"github.com/desertthunder/strippers/internal/webhook"
)

const maxWebhookBody = 5 << 20

// EventHandler acts on a verified webhook event.
type EventHandler interface {
	Handle(ctx context.Context, ev webhook.Event) (webhook.Response, error)
}

// WebhookEndpoint authenticates GitHub deliveries and hands them to an [EventHandler].
// Implements the Handler interface for registration with a Router.
type WebhookEndpoint struct {
	handler EventHandler
	secret  []byte
	logger  *log.Logger
}

// NewWebhookEndpoint creates the endpoint. An empty secret rejects every delivery.
func NewWebhookEndpoint(h EventHandler, secret []byte, logger *log.Logger) *WebhookEndpoint {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &WebhookEndpoint{handler: h, secret: secret, logger: shared.WithLogger(logger, "component", "webhook")}
}

// Routes returns the HTTP routes this handler serves.
func (e *WebhookEndpoint) Routes() []string {
	return []string{"/issue_closed", "/update_server"}
}

// ServeHTTP verifies, parses and dispatches one delivery.
func (e *WebhookEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := e.logger.With("delivery", r.Header.Get(webhook.HeaderDelivery), "request_id", r.Header.Get(HeaderRequestID))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, message{"Unreadable payload"})
		return
	}

	if !webhook.Verify(body, webhook.SignatureHeader(r.Header), e.secret) {
		logger.Warn("delivery rejected", "error", shared.ErrSignatureRejected, "remote", r.RemoteAddr)
		writeJSON(w, http.StatusUnauthorized, message{"Invalid signature"})
		return
	}

	eventType := r.Header.Get(webhook.HeaderEvent)
	if eventType == "" {
		writeJSON(w, http.StatusBadRequest, message{"Missing " + webhook.HeaderEvent + " header"})
		return
	}

	ev, err := webhook.ParseEvent(eventType, body)
	if err != nil {
		logger.Warn("malformed delivery", "event", eventType, "error", err)
		writeJSON(w, http.StatusBadRequest, message{"Malformed payload"})
		return
	}

	resp, err := e.handler.Handle(r.Context(), ev)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, shared.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		logger.Error("delivery failed", "event", eventType, "error", err)
		writeJSON(w, status, message{http.StatusText(status)})
		return
	}

	logger.Debug("delivery handled", "event", eventType, "msg", resp.Message)
	writeJSON(w, http.StatusOK, resp)
}
