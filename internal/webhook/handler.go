package webhook

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/strippers/internal/ledger"
	"github.com/desertthunder/strippers/internal/metrics"
	"github.com/desertthunder/strippers/internal/services"
	"github.com/desertthunder/strippers/internal/shared"
)

const (
	msgPong        = "pong"
	msgNotRelevant = "Event type not unsupported song issue closed."
	msgWrongEvent  = "Wrong event type"
	msgNoPull      = "Didn't pull any information from remote!"
)

// Config names what the handler acts on.
type Config struct {
	Repository string // repository name issues must come from
	IssueLabel string
	Branch     string // branch whose pushes trigger a deploy
}

// Response is the acknowledgement returned to GitHub.
type Response struct {
	Message string `json:"msg"`
	Removed int    `json:"removed,omitempty"`
	Commit  string `json:"commit,omitempty"`
}

// Handler acts on verified webhook events.
type Handler struct {
	ledger   ledger.Ledger
	sync     services.RepositorySync
	notifier services.Notifier
	cfg      Config
	logger   *log.Logger
}

// NewHandler creates a Handler. sync may be nil when deploys are not configured; notifier may be nil to skip
// announcements.
func NewHandler(l ledger.Ledger, sync services.RepositorySync, notifier services.Notifier, cfg Config, logger *log.Logger) *Handler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if notifier == nil {
		notifier = services.NoopNotifier{}
	}
	return &Handler{
		ledger:   l,
		sync:     sync,
		notifier: notifier,
		cfg:      cfg,
		logger:   shared.WithLogger(logger, "component", "webhook"),
	}
}

// Handle dispatches ev. Only ledger failures are returned as errors.
// Cancellation of ctx is ignored so a pull in progress runs to completion.
func (h *Handler) Handle(ctx context.Context, ev Event) (Response, error) {
	ctx = context.WithoutCancel(ctx)
	var (
		resp   Response
		result string
		err    error
	)

	switch e := ev.(type) {
	case PingEvent:
		resp, result = Response{Message: msgPong}, "pong"
	case IssuesEvent:
		resp, result, err = h.handleIssue(ctx, e)
	case PushEvent:
		resp, result = h.handlePush(ctx, e)
	default:
		resp, result = Response{Message: msgWrongEvent}, "unhandled"
	}

	if err != nil {
		result = "error"
	}
	metrics.WebhookEvents.WithLabelValues(ev.Type(), result).Inc()
	return resp, err
}

func (h *Handler) handleIssue(ctx context.Context, e IssuesEvent) (Response, string, error) {
	if e.Action != "closed" || !e.HasLabel(h.cfg.IssueLabel) || e.Repository != h.cfg.Repository {
		return Response{Message: msgNotRelevant}, "not_relevant", nil
	}

	key, err := ParseIssueTitle(e.Title)
	if err != nil {
		h.logger.Info("closed issue title not recognised", "number", e.Number, "error", err)
		return Response{Message: msgNotRelevant}, "not_relevant", nil
	}

	n, err := h.ledger.Remove(ctx, key)
	if err != nil {
		return Response{}, "", err
	}

	metrics.LedgerRemovals.Add(float64(n))
	h.logger.Info("issue closed, ledger updated", "number", e.Number, "song", key.Song, "artist", key.Artist, "removed", n)
	return Response{Message: fmt.Sprintf("Deleted %d instances from the unsupported ledger", n), Removed: n}, "removed", nil
}

func (h *Handler) handlePush(ctx context.Context, e PushEvent) (Response, string) {
	if e.Ref != "refs/heads/"+h.cfg.Branch {
		return Response{Message: fmt.Sprintf("Not %s; ignoring", h.cfg.Branch)}, "ignored"
	}
	if h.sync == nil {
		return Response{Message: msgNoPull}, "no_pull"
	}

	pull, err := h.sync.Pull(ctx)
	if err != nil || pull.Commit == "" {
		h.logger.Warn("pull failed", "error", err)
		return Response{Message: msgNoPull}, "no_pull"
	}

	h.logger.Info("working copy updated", "previous", pull.Previous, "commit", pull.Commit)

	if pull.Commit == e.After {
		if err := h.notifier.NotifyDeploy(ctx, e.HeadCommit); err != nil {
			h.logger.Warn("deploy notification failed", "error", err)
		}
	}

	return Response{Message: "Updated server to commit " + pull.Commit, Commit: pull.Commit}, "deployed"
}
