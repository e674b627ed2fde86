package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/strippers/internal/resolver"
	"github.com/desertthunder/strippers/internal/shared"
)

const maxFormBody = 1 << 20

// Resolver is the lookup and bookkeeping surface the form endpoints call.
type Resolver interface {
	ResolveUnsupported(ctx context.Context, req resolver.UnsupportedRequest) (resolver.Result, error)
	ResolveStripper(ctx context.Context, song, artist string) (string, error)
	AddStripper(ctx context.Context, song, artist, stripper string) (int, error)
	RemoveUnsupported(ctx context.Context, song, artist string) (int, error)
	Backlog(ctx context.Context) (string, error)
}

// API serves the form-encoded client and admin endpoints.
type API struct {
	resolver      Resolver
	adminPassword string
	clientVersion string
	logger        *log.Logger
}

// NewAPI creates the form endpoint handlers. An empty adminPassword rejects every admin request.
func NewAPI(r Resolver, adminPassword, clientVersion string, logger *log.Logger) *API {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &API{
		resolver:      r,
		adminPassword: adminPassword,
		clientVersion: clientVersion,
		logger:        shared.WithLogger(logger, "component", "api"),
	}
}

// Unsupported handles POST /unsupported.
func (a *API) Unsupported(w http.ResponseWriter, r *http.Request) {
	form, ok := a.form(w, r, "song", "artist")
	if !ok {
		return
	}

	res, err := a.resolver.ResolveUnsupported(r.Context(), resolver.UnsupportedRequest{
		Song:     form["song"],
		Artist:   form["artist"],
		Version:  r.Form.Get("version"),
		Stripper: r.Form.Get("stripper"),
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeText(w, http.StatusOK, res.Message)
}

// Stripper handles GET/POST /stripper. A miss is a bare 404.
func (a *API) Stripper(w http.ResponseWriter, r *http.Request) {
	form, ok := a.form(w, r, "song", "artist")
	if !ok {
		return
	}

	stripper, err := a.resolver.ResolveStripper(r.Context(), form["song"], form["artist"])
	if errors.Is(err, shared.ErrStripperNotFound) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeText(w, http.StatusOK, stripper)
}

// AddStripper handles POST /add_stripper.
func (a *API) AddStripper(w http.ResponseWriter, r *http.Request) {
	form, ok := a.form(w, r, "auth", "song", "artist", "stripper")
	if !ok {
		return
	}
	if !a.authorized(form["auth"]) {
		a.forbid(w, r)
		return
	}

	n, err := a.resolver.AddStripper(r.Context(), form["song"], form["artist"], form["stripper"])
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeText(w, http.StatusOK, fmt.Sprintf(
		"Added stripper for %s by %s to server database successfully, deleted %d instances from the unsupported ledger",
		form["song"], form["artist"], n,
	))
}

// DeleteUnsupported handles POST /delete_unsupported.
func (a *API) DeleteUnsupported(w http.ResponseWriter, r *http.Request) {
	form, ok := a.form(w, r, "auth", "song", "artist")
	if !ok {
		return
	}
	if !a.authorized(form["auth"]) {
		a.forbid(w, r)
		return
	}

	n, err := a.resolver.RemoveUnsupported(r.Context(), form["song"], form["artist"])
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeText(w, http.StatusOK, fmt.Sprintf(
		"Removed %d instances of %s by %s from the unsupported ledger successfully.", n, form["song"], form["artist"],
	))
}

// MasterUnsupported handles GET /master_unsupported.
func (a *API) MasterUnsupported(w http.ResponseWriter, r *http.Request) {
	dump, err := a.resolver.Backlog(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeText(w, http.StatusOK, dump)
}

// Version handles GET /version.
func (a *API) Version(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, a.clientVersion)
}

// Health handles GET /healthz.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// form parses the request form and collects required fields, answering 400 when one is missing.
func (a *API) form(w http.ResponseWriter, r *http.Request, required ...string) (map[string]string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
	if err := r.ParseForm(); err != nil {
		writeText(w, http.StatusBadRequest, "Malformed form body")
		return nil, false
	}

	values := make(map[string]string, len(required))
	for _, field := range required {
		v := r.Form.Get(field)
		if v == "" {
			writeText(w, http.StatusBadRequest, fmt.Sprintf("Missing form field: %s", field))
			return nil, false
		}
		values[field] = v
	}
	return values, true
}

func (a *API) authorized(got string) bool {
	if a.adminPassword == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(a.adminPassword)) == 1
}

func (a *API) forbid(w http.ResponseWriter, r *http.Request) {
	a.logger.Warn("admin request rejected", "path", r.URL.Path, "remote", r.RemoteAddr, "error", shared.ErrUnauthorized)
	writeText(w, http.StatusForbidden, http.StatusText(http.StatusForbidden))
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, shared.ErrInvalidInput) {
		writeText(w, http.StatusBadRequest, err.Error())
		return
	}
	a.logger.Error("request failed", "path", r.URL.Path, "request_id", r.Header.Get(HeaderRequestID), "error", err)
	writeText(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}
