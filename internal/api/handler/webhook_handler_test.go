package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/remindly/issue-reminder/internal/api/handler"
	"github.com/remindly/issue-reminder/internal/repository"
	"github.com/remindly/issue-reminder/internal/service"
	"github.com/remindly/issue-reminder/internal/webhook"
)

var signingKey = []byte("handler-test-key")

func newHandler() (*handler.WebhookHandler, *repository.MockIssueRepository, *[]string) {
	repo := repository.NewMockIssueRepository()
	intake := service.NewIntake(repo, signingKey, "In Progress", 60*time.Second, zap.NewNop())
	var outcomes []string
	h := handler.NewWebhookHandler(intake, func(o string) { outcomes = append(outcomes, o) }, zap.NewNop())
	return h, repo, &outcomes
}

func eventBody(t *testing.T, id, state string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"action":           "update",
		"type":             "Issue",
		"createdAt":        time.Now().UTC().Add(-time.Minute).Format(time.RFC3339Nano),
		"webhookTimestamp": time.Now().UnixMilli(),
		"data": map[string]any{
			"id":         id,
			"identifier": "HSI-7",
			"title":      "Handler test",
			"state":      map[string]any{"name": state},
		},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return body
}

func post(h *handler.WebhookHandler, body []byte, sig string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook/issue", bytes.NewReader(body))
	if sig != "" {
		req.Header.Set(webhook.SignatureHeader, sig)
	}
	rec := httptest.NewRecorder()
	h.Receive(rec, req)
	return rec
}

func TestWebhookHandler_TracksIssue(t *testing.T) {
	h, repo, outcomes := newHandler()

	body := eventBody(t, "issue-1", "In Progress")
	rec := post(h, body, webhook.Sign(body, signingKey))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, ok := repo.Get("issue-1"); !ok {
		t.Fatal("expected issue to be tracked")
	}
	if len(*outcomes) != 1 || (*outcomes)[0] != "tracked" {
		t.Fatalf("outcome hook: got %v", *outcomes)
	}
}

func TestWebhookHandler_IgnoredStateStillReturns200(t *testing.T) {
	h, repo, _ := newHandler()

	body := eventBody(t, "issue-2", "Backlog")
	rec := post(h, body, webhook.Sign(body, signingKey))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for ignored event, got %d", rec.Code)
	}
	if _, ok := repo.Get("issue-2"); ok {
		t.Fatal("ignored event must not write a row")
	}
}

func TestWebhookHandler_MissingSignatureIsUnauthorized(t *testing.T) {
	h, repo, outcomes := newHandler()

	rec := post(h, eventBody(t, "issue-3", "In Progress"), "")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if _, ok := repo.Get("issue-3"); ok {
		t.Fatal("unauthenticated event must not write a row")
	}
	if len(*outcomes) != 1 || (*outcomes)[0] != "rejected" {
		t.Fatalf("outcome hook: got %v", *outcomes)
	}
}

func TestWebhookHandler_MalformedBodyIsBadRequest(t *testing.T) {
	h, _, _ := newHandler()

	body := []byte(`{"action":"update"}`)
	rec := post(h, body, webhook.Sign(body, signingKey))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestWebhookHandler_StaleEventIsBadRequest(t *testing.T) {
	h, repo, _ := newHandler()

	body, err := json.Marshal(map[string]any{
		"action":           "update",
		"type":             "Issue",
		"createdAt":        time.Now().UTC().Add(-time.Hour).Format(time.RFC3339Nano),
		"webhookTimestamp": time.Now().Add(-5 * time.Minute).UnixMilli(),
		"data": map[string]any{
			"id":    "issue-4",
			"state": map[string]any{"name": "In Progress"},
		},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	rec := post(h, body, webhook.Sign(body, signingKey))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for stale event, got %d", rec.Code)
	}
	if _, ok := repo.Get("issue-4"); ok {
		t.Fatal("stale event must not write a row")
	}
}
