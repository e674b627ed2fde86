// Package server provides HTTP routing, middleware, and the inbound endpoints of the stripper backend.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Endpoints
//
// [NewRouter] wires the form endpoints used by the client (/unsupported, /stripper, /version), the admin endpoints
// guarded by the admin password (/add_stripper, /delete_unsupported), the public backlog (/master_unsupported), and
// the operational endpoints (/healthz, /metrics).
//
// # Webhooks
//
// [WebhookEndpoint] implements the [Handler] interface and serves /issue_closed and /update_server. Every delivery
// is authenticated with its HMAC signature before the payload is parsed; rejected deliveries get 401 and malformed
// ones 400.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
