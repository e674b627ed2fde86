// Package tokens caches short-lived bearer credentials for outbound provider calls.
//
// # Cache
//
// A [Cache] owns one credential and the [RefreshFunc] that renews it. [Cache.Token] returns the cached value while
// it is more than the cache's safety margin away from expiry and refreshes synchronously otherwise.
//
// Refreshes are single-flight: concurrent callers that observe a stale credential share one refresh call instead of
// issuing their own. The credential is guarded by a read/write mutex that is never held across the refresh call, so
// readers never see a half-written value and unrelated caches never block each other.
//
// # Providers
//
// Two refresh procedures are provided:
//   - [NewInstallationRefresher] : GitHub App installation tokens. A [JWTIssuer] signs a short-lived RS256 assertion
//     which an [InstallationExchanger] trades for a token with a provider-supplied expiry.
//   - [NewClientCredentialsRefresher] : Spotify client-credentials tokens via [clientcredentials.Config]. The expiry
//     is fixed locally at one hour from the refresh instant.
//
// [Static] wraps long-lived tokens (Genius) behind the same [Source] interface.
//
// # Errors
//
// Refresh failures and malformed payloads are wrapped in [shared.ErrCredentialRefresh] and are not retried.
package tokens
