package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/strippers/internal/models"
	"github.com/desertthunder/strippers/internal/shared"
)

const (
	discordEmbedColor = 1501879
	discordThumbnail  = "https://avatars2.githubusercontent.com/u/48502066?v=4"
)

type discordEmbedAuthor struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	IconURL string `json:"icon_url"`
}

type discordEmbed struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	URL         string             `json:"url"`
	Thumbnail   map[string]string  `json:"thumbnail"`
	Timestamp   string             `json:"timestamp,omitempty"`
	Color       int                `json:"color"`
	Author      discordEmbedAuthor `json:"author"`
}

type discordMessage struct {
	Embeds []discordEmbed `json:"embeds"`
}

// DiscordNotifier posts deploy announcements to a Discord webhook.
type DiscordNotifier struct {
	api       *APIClient
	publicURL string
}

// NewDiscordNotifier posts to webhookURL. publicURL is linked in the announcement.
func NewDiscordNotifier(webhookURL, publicURL string, client *http.Client) *DiscordNotifier {
	return &DiscordNotifier{api: NewAPIClient(webhookURL, client), publicURL: publicURL}
}

// NotifyDeploy announces that the server now runs commit.
func (d *DiscordNotifier) NotifyDeploy(ctx context.Context, commit models.Commit) error {
	if d.api.BaseURL() == "" {
		return fmt.Errorf("%w: discord webhook url", shared.ErrMissingConfig)
	}

	msg := discordMessage{Embeds: []discordEmbed{{
		Title:       commit.Headline(),
		Description: fmt.Sprintf("Updated [server](%s) to commit `%s`.", d.publicURL, commit.ID),
		URL:         commit.URL,
		Thumbnail:   map[string]string{"url": discordThumbnail},
		Timestamp:   commit.Timestamp,
		Color:       discordEmbedColor,
		Author: discordEmbedAuthor{
			Name:    commit.AuthorName,
			URL:     "https://github.com/" + commit.AuthorUsername,
			IconURL: "https://github.com/" + commit.AuthorUsername + ".png",
		},
	}}}

	resp, err := d.api.Do(ctx, Request{Method: http.MethodPost, Body: msg})
	if err != nil {
		return err
	}
	return resp.Err("discord")
}

// NoopNotifier drops announcements. Used when no webhook is configured.
type NoopNotifier struct{}

func (NoopNotifier) NotifyDeploy(context.Context, models.Commit) error { return nil }
