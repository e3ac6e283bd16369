package webhook

import (
	"encoding/json"
	"time"

	"github.com/remindly/issue-reminder/internal/domain"
)

// payload mirrors the subset of the tracker's webhook JSON the service uses.
// The tracker sends far more (actor, team, cycle, labels, ...); unknown fields
// are ignored so upstream schema additions never break intake.
type payload struct {
	Action           string    `json:"action"`
	Type             string    `json:"type"`
	CreatedAt        time.Time `json:"createdAt"`
	WebhookTimestamp int64     `json:"webhookTimestamp"` // milliseconds since epoch
	Data             struct {
		ID         string `json:"id"`
		Identifier string `json:"identifier"`
		Title      string `json:"title"`
		State      struct {
			Name string `json:"name"`
		} `json:"state"`
	} `json:"data"`
}

// Parse decodes a raw webhook body into a WebhookEvent.
// Missing required fields and invalid JSON both yield ErrMalformedEvent;
// the caller rejects the request without side effects.
func Parse(body []byte) (*domain.WebhookEvent, error) {
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, domain.ErrMalformedEvent
	}
	if p.Data.ID == "" || p.Data.State.Name == "" || p.CreatedAt.IsZero() || p.WebhookTimestamp == 0 {
		return nil, domain.ErrMalformedEvent
	}

	return &domain.WebhookEvent{
		Action:     p.Action,
		Type:       p.Type,
		CreatedAt:  p.CreatedAt,
		EmittedAt:  time.UnixMilli(p.WebhookTimestamp).UTC(),
		IssueID:    p.Data.ID,
		Identifier: p.Data.Identifier,
		Title:      p.Data.Title,
		StateName:  p.Data.State.Name,
	}, nil
}
