package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"text/template"
	"time"

	"github.com/remindly/issue-reminder/internal/domain"
)

// commentCreateMutation posts the reminder as a comment on the issue.
const commentCreateMutation = `mutation IssueReminder($issueId: String!, $body: String!) {
  commentCreate(input: {issueId: $issueId, body: $body}) { success }
}`

// TrackerNotifier delivers reminders by creating a comment through the issue
// tracker's GraphQL API. The endpoint is injected from config so tests can
// point to a local mock.
type TrackerNotifier struct {
	endpoint   string
	apiKey     string
	tmpl       *template.Template
	httpClient *http.Client
}

// messageData is the template context for the reminder body.
type messageData struct {
	Identifier string
	Title      string
	Age        time.Duration
}

// NewTrackerNotifier parses the reminder message template and returns a
// notifier. The template may reference {{.Identifier}}, {{.Title}} and
// {{.Age}}.
func NewTrackerNotifier(endpoint, apiKey, messageTemplate string, timeout time.Duration) (*TrackerNotifier, error) {
	tmpl, err := template.New("reminder").Parse(messageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse reminder template: %w", err)
	}
	return &TrackerNotifier{
		endpoint: endpoint,
		apiKey:   apiKey,
		tmpl:     tmpl,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type commentCreateResponse struct {
	Data struct {
		CommentCreate struct {
			Success bool `json:"success"`
		} `json:"commentCreate"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Send renders the reminder message and posts it as a comment on the issue.
// Success requires a 2xx status, no GraphQL errors, and success=true.
func (n *TrackerNotifier) Send(ctx context.Context, issue domain.Issue) error {
	var msg bytes.Buffer
	if err := n.tmpl.Execute(&msg, messageData{
		Identifier: issue.Identifier,
		Title:      issue.Title,
		Age:        time.Since(issue.CreatedAt).Round(time.Minute),
	}); err != nil {
		return fmt.Errorf("render reminder: %w", err)
	}

	payload, err := json.Marshal(graphQLRequest{
		Query: commentCreateMutation,
		Variables: map[string]any{
			"issueId": issue.ID,
			"body":    msg.String(),
		},
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.apiKey)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected tracker status: %d", resp.StatusCode)
	}

	var ccResp commentCreateResponse
	if err := json.NewDecoder(resp.Body).Decode(&ccResp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(ccResp.Errors) > 0 {
		return fmt.Errorf("tracker error: %s", ccResp.Errors[0].Message)
	}
	if !ccResp.Data.CommentCreate.Success {
		return fmt.Errorf("tracker rejected comment for issue %s", issue.ID)
	}

	return nil
}

// compile-time check that TrackerNotifier implements Notifier
var _ Notifier = (*TrackerNotifier)(nil)
