package tokens

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// NewSpotifyCredentials builds the client-credentials config for Spotify's token endpoint.
//
// Credentials go in the Authorization header as HTTP Basic auth.
func NewSpotifyCredentials(clientID, clientSecret, tokenURL string) *clientcredentials.Config {
	return &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
}

// NewClientCredentialsRefresher returns a refresh procedure whose expiry is ttl after the refresh instant.
//
// The provider's own expires_in is ignored. A nil client uses [http.DefaultClient].
func NewClientCredentialsRefresher(cfg *clientcredentials.Config, client *http.Client, ttl time.Duration, now func() time.Time) RefreshFunc {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context) (Token, error) {
		if client != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
		}

		issuedAt := now()
		tok, err := cfg.Token(ctx)
		if err != nil {
			return Token{}, fmt.Errorf("client credentials exchange: %w", err)
		}

		return Token{Value: tok.AccessToken, ExpiresAt: issuedAt.Add(ttl)}, nil
	}
}
