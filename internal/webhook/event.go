package webhook

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/desertthunder/strippers/internal/models"
	"github.com/desertthunder/strippers/internal/shared"
)

// Event is a parsed webhook delivery.
type Event interface {
	// Type is the X-GitHub-Event value the event was parsed from.
	Type() string
}

// PingEvent is sent when a webhook is created.
type PingEvent struct {
	Zen    string
	HookID int64
}

func (PingEvent) Type() string { return "ping" }

// IssuesEvent is an issue state change.
type IssuesEvent struct {
	Action     string
	Number     int
	Title      string
	Labels     []string
	Repository string
}

func (IssuesEvent) Type() string { return "issues" }

// HasLabel reports whether any of the issue's labels is name.
func (e IssuesEvent) HasLabel(name string) bool {
	for _, l := range e.Labels {
		if l == name {
			return true
		}
	}
	return false
}

// PushEvent is a push to a branch or tag.
type PushEvent struct {
	Ref        string
	After      string
	Repository string
	HeadCommit models.Commit
}

func (PushEvent) Type() string { return "push" }

// UnhandledEvent is any event type the handler does not act on.
type UnhandledEvent struct {
	Name string
}

func (e UnhandledEvent) Type() string { return e.Name }

type repositoryPayload struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
}

type pingPayload struct {
	Zen    string `json:"zen"`
	HookID int64  `json:"hook_id"`
}

type issuesPayload struct {
	Action string `json:"action"`
	Issue  struct {
		Number int    `json:"number"`
		Title  string `json:"title"`
		Labels []struct {
			Name string `json:"name"`
		} `json:"labels"`
	} `json:"issue"`
	Repository repositoryPayload `json:"repository"`
}

type pushPayload struct {
	Ref        string `json:"ref"`
	After      string `json:"after"`
	HeadCommit *struct {
		ID        string `json:"id"`
		Message   string `json:"message"`
		URL       string `json:"url"`
		Timestamp string `json:"timestamp"`
		Author    struct {
			Name     string `json:"name"`
			Username string `json:"username"`
		} `json:"author"`
	} `json:"head_commit"`
	Repository repositoryPayload `json:"repository"`
}

// ParseEvent decodes body according to eventType. Unknown types are returned as [UnhandledEvent] without decoding.
func ParseEvent(eventType string, body []byte) (Event, error) {
	switch eventType {
	case "ping":
		var p pingPayload
		if err := decode(body, &p); err != nil {
			return nil, err
		}
		return PingEvent{Zen: p.Zen, HookID: p.HookID}, nil

	case "issues":
		var p issuesPayload
		if err := decode(body, &p); err != nil {
			return nil, err
		}
		ev := IssuesEvent{
			Action:     p.Action,
			Number:     p.Issue.Number,
			Title:      p.Issue.Title,
			Repository: p.Repository.Name,
		}
		for _, l := range p.Issue.Labels {
			ev.Labels = append(ev.Labels, l.Name)
		}
		return ev, nil

	case "push":
		var p pushPayload
		if err := decode(body, &p); err != nil {
			return nil, err
		}
		ev := PushEvent{Ref: p.Ref, After: p.After, Repository: p.Repository.Name}
		if hc := p.HeadCommit; hc != nil {
			ev.HeadCommit = models.Commit{
				ID:             hc.ID,
				Message:        hc.Message,
				URL:            hc.URL,
				Timestamp:      hc.Timestamp,
				AuthorName:     hc.Author.Name,
				AuthorUsername: hc.Author.Username,
			}
		}
		return ev, nil

	default:
		return UnhandledEvent{Name: eventType}, nil
	}
}

func decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: malformed webhook payload: %w", shared.ErrInvalidInput, err)
	}
	return nil
}

var issueTitle = regexp.MustCompile(`^(.+) by (.+) unsupported\.$`)

// ParseIssueTitle extracts the pair from a "{song} by {artist} unsupported." issue title.
//
// The song group is greedy, so a song containing " by " parses the same way a ledger line does.
func ParseIssueTitle(title string) (models.SongKey, error) {
	m := issueTitle.FindStringSubmatch(title)
	if m == nil {
		return models.SongKey{}, fmt.Errorf("%w: %q", shared.ErrMalformedTitle, title)
	}
	return models.NewSongKey(m[1], m[2]), nil
}
