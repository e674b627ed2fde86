// Package services implements the outbound HTTP clients the stripper backend depends on.
//
// # Providers
//
//   - [SpotifyService] : catalog search used as the legitimacy check ([TrackProvider])
//   - [GeniusService] : lyrics search used to discover strippers ([SearchProvider])
//   - [GitHubService] : tracking issues ([IssueProvider]) and installation token exchange
//   - [DiscordNotifier] : deploy announcements ([Notifier])
//   - [GitSync] : pulls the deployed working copy ([RepositorySync])
//
// # Transport
//
// Every HTTP provider goes through [APIClient], a thin JSON client over [http.Client]. The client's timeout bounds
// each call; callers pass a context but provider calls are not expected to be cancelled mid-flight.
//
// Bearer tokens come from a [tokens.Source]. A 401 from Spotify or GitHub invalidates the cached token so the next
// call refreshes it.
//
// # Error Handling
//
// Transport failures and unexpected statuses wrap [shared.ErrAPIRequest]. Callers decide whether a failure is fatal;
// the resolver treats every provider failure as a soft fallback.
package services
