package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/desertthunder/strippers/internal/server"
	"github.com/desertthunder/strippers/internal/services"
	"github.com/desertthunder/strippers/internal/shared"
	"github.com/desertthunder/strippers/internal/webhook"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP server until SIGINT or SIGTERM.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if port := cmd.Int("port"); port != 0 {
		r.config.Server.Port = int(port)
	}
	if host := cmd.String("host"); host != "" {
		r.config.Server.Host = host
	}
	if err := r.config.Validate(); err != nil {
		return err
	}

	s, err := r.openStack()
	if err != nil {
		return err
	}
	defer s.Close()

	handler, err := r.newServerHandler(s)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.NewServer(r.config.Server.Addr(), handler, r.logger).Run(ctx)
}

// newServerHandler wires the API and webhook endpoints over s.
func (r *Runner) newServerHandler(s *stack) (*server.BasicRouter, error) {
	cfg := r.config

	var deploy services.RepositorySync
	if cfg.Deploy.WorkingCopy != "" {
		deploy = services.NewGitSync(cfg.Deploy.WorkingCopy, cfg.Deploy.Branch, services.ExecRunner, r.logger)
	}

	var notifier services.Notifier
	if cfg.Credentials.Discord.WebhookURL != "" {
		notifier = services.NewDiscordNotifier(cfg.Credentials.Discord.WebhookURL, cfg.Deploy.PublicURL, r.httpClient)
	}

	secret := cfg.Credentials.GitHub.WebhookSecret
	if secret == "" {
		return nil, fmt.Errorf("%w: credentials.github.webhook_secret", shared.ErrMissingCredentials)
	}

	hooks := webhook.NewHandler(s.ledger, deploy, notifier, webhook.Config{
		Repository: cfg.Credentials.GitHub.Repo,
		IssueLabel: cfg.Credentials.GitHub.IssueLabel,
		Branch:     cfg.Deploy.Branch,
	}, r.logger)

	return server.NewRouter(
		server.NewAPI(s.resolver, cfg.Server.AdminPassword, cfg.Server.ClientVersion, r.logger),
		server.NewWebhookEndpoint(hooks, []byte(secret), r.logger),
		r.logger,
	), nil
}
