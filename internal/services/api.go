package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/strippers/internal/shared"
)

const maxResponseBytes = 4 << 20

// APIClient makes JSON requests against a single base URL.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// NewAPIClient creates a client for baseURL. A nil client uses [http.DefaultClient].
func NewAPIClient(baseURL string, client *http.Client) *APIClient {
	if client == nil {
		client = http.DefaultClient
	}

	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		userAgent:  "strippers",
	}
}

// BaseURL returns the URL paths are resolved against.
func (a *APIClient) BaseURL() string {
	return a.baseURL
}

// Request describes one API call. Body, when set, is encoded as JSON.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   any
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON decodes the body into v.
func (r *APIResponse) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Err returns nil for a 2xx status and an [shared.ErrAPIRequest] naming service otherwise.
func (r *APIResponse) Err(service string) error {
	if r.OK() {
		return nil
	}
	return fmt.Errorf("%w: %s returned status %d", shared.ErrAPIRequest, service, r.StatusCode)
}

// Do performs req. Only transport failures are errors; callers inspect the status.
func (a *APIClient) Do(ctx context.Context, req Request) (*APIResponse, error) {
	fullURL := a.baseURL + req.Path
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", shared.ErrAPIRequest, err)
	}

	return &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}, nil
}

func bearer(token string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	return h
}
