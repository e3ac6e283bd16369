package domain

import "time"

// Issue is one tracked issue awaiting a reminder. Rows in the issues table
// are the sole durable state of the service: after a restart the worker
// resumes from whatever unreminded rows exist.
type Issue struct {
	ID         string    `json:"id"`
	Identifier string    `json:"identifier"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"created_at"`
	Reminded   bool      `json:"reminded"`
}

// WebhookEvent is the decoded form of one inbound tracker webhook delivery.
// It is transient; only the fields the intake path acts on are kept.
type WebhookEvent struct {
	Action     string
	Type       string
	CreatedAt  time.Time // when the issue entered its current state
	EmittedAt  time.Time // webhook emission time, checked against the replay window
	IssueID    string
	Identifier string
	Title      string
	StateName  string
}

// QueueStats is a point-in-time snapshot of the issues table, served by the
// queue snapshot endpoint and mirrored into the queue depth gauge.
type QueueStats struct {
	Pending  int `json:"pending"`
	Reminded int `json:"reminded"`
}
