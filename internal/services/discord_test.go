package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/strippers/internal/models"
	"github.com/desertthunder/strippers/internal/shared"
)

func TestDiscordNotifier(t *testing.T) {
	commit := models.Commit{
		ID:             "abc123",
		Message:        "Fix ledger rewrite\n\nSquashed commits",
		URL:            "https://github.com/SwagLyrics/swaglyrics-backend/commit/abc123",
		Timestamp:      "2024-05-01T12:00:00Z",
		AuthorName:     "Octo Cat",
		AuthorUsername: "octocat",
	}

	t.Run("Posts Embed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var msg discordMessage
			if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
				t.Fatalf("failed to decode message: %v", err)
			}
			if len(msg.Embeds) != 1 {
				t.Fatalf("expected one embed, got %d", len(msg.Embeds))
			}

			e := msg.Embeds[0]
			if e.Title != "Fix ledger rewrite" {
				t.Errorf("expected headline title, got %q", e.Title)
			}
			if e.Color != discordEmbedColor {
				t.Errorf("unexpected color %d", e.Color)
			}
			if e.Author.URL != "https://github.com/octocat" || e.Author.IconURL != "https://github.com/octocat.png" {
				t.Errorf("unexpected author %+v", e.Author)
			}
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		n := NewDiscordNotifier(server.URL, "https://api.example.com", server.Client())
		if err := n.NotifyDeploy(context.Background(), commit); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("Failure Status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		n := NewDiscordNotifier(server.URL, "", server.Client())
		if err := n.NotifyDeploy(context.Background(), commit); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Unconfigured", func(t *testing.T) {
		n := NewDiscordNotifier("", "", nil)
		if err := n.NotifyDeploy(context.Background(), commit); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}
