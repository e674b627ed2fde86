package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/strippers/internal/shared"
	"github.com/desertthunder/strippers/internal/tokens"
	"github.com/urfave/cli/v3"
)

// credentialStatus is one provider's row in `auth check`.
type credentialStatus struct {
	Provider  string `json:"provider"`
	OK        bool   `json:"ok"`
	Token     string `json:"token,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Error     string `json:"error,omitempty"`
}

// AuthCheck refreshes the Spotify and GitHub App credentials once and reports the result.
func (r *Runner) AuthCheck(ctx context.Context, cmd *cli.Command) error {
	s, err := r.openStack()
	if err != nil {
		return err
	}
	defer s.Close()

	caches := []*tokens.Cache{s.spotify}
	if s.install != nil {
		caches = append(caches, s.install)
	}

	statuses := make([]credentialStatus, 0, len(caches)+1)
	failed := 0
	for _, c := range caches {
		st := credentialStatus{Provider: c.Name()}
		if tok, err := c.Token(ctx); err != nil {
			st.Error = err.Error()
			failed++
		} else {
			st.OK = true
			st.Token = shared.TokenPrefix(tok, 8)
			st.ExpiresAt = c.Current().ExpiresAt.Format(time.RFC3339)
		}
		statuses = append(statuses, st)
	}
	if s.install == nil {
		statuses = append(statuses, credentialStatus{Provider: "github", Error: shared.ErrMissingCredentials.Error()})
		failed++
	}

	if cmd.Bool("json") {
		if err := r.writeJSON(statuses, true); err != nil {
			return err
		}
	} else {
		r.writePlainHeader("Credentials")
		for _, st := range statuses {
			if st.OK {
				r.writePlain("✓ %-8s %s (expires %s)\n", st.Provider, st.Token, st.ExpiresAt)
			} else {
				r.writePlain("✗ %-8s %s\n", st.Provider, st.Error)
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d providers failed", shared.ErrCredentialRefresh, failed, len(statuses))
	}
	return nil
}
