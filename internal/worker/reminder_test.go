package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/remindly/issue-reminder/internal/domain"
	"github.com/remindly/issue-reminder/internal/ratelimiter"
	"github.com/remindly/issue-reminder/internal/repository"
)

// stubNotifier records deliveries and fails on demand.
type stubNotifier struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (s *stubNotifier) Send(_ context.Context, issue domain.Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.calls = append(s.calls, issue.ID)
	return nil
}

func (s *stubNotifier) sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

type hookCounts struct {
	reminded int
	failed   int
}

func newTestWorker(repo repository.IssueRepository, notif *stubNotifier, timeToRemind time.Duration) (*Reminder, *hookCounts) {
	counts := &hookCounts{}
	w := NewReminder(
		0, repo, notif, ratelimiter.New(1000),
		timeToRemind, time.Second, zap.NewNop(),
		func(time.Duration) { counts.reminded++ },
		func() { counts.failed++ },
	)
	return w, counts
}

func track(t *testing.T, repo *repository.MockIssueRepository, id string, age time.Duration) {
	t.Helper()
	_, err := repo.UpsertIfAbsent(context.Background(), domain.Issue{
		ID:         id,
		Identifier: "HSI-1",
		Title:      "Test issue",
		CreatedAt:  time.Now().UTC().Add(-age),
	})
	if err != nil {
		t.Fatalf("seed issue: %v", err)
	}
}

func TestReminder_EmptyQueueDoesNothing(t *testing.T) {
	repo := repository.NewMockIssueRepository()
	notif := &stubNotifier{}
	w, counts := newTestWorker(repo, notif, time.Hour)

	w.tick(context.Background())

	if len(notif.sent()) != 0 || counts.reminded != 0 || counts.failed != 0 {
		t.Fatal("expected no activity on an empty queue")
	}
}

func TestReminder_NotYetDueIsReleased(t *testing.T) {
	repo := repository.NewMockIssueRepository()
	track(t, repo, "young", 10*time.Minute)
	notif := &stubNotifier{}
	w, _ := newTestWorker(repo, notif, time.Hour)

	w.tick(context.Background())

	if len(notif.sent()) != 0 {
		t.Fatal("issue below the threshold must not be delivered")
	}
	issue, _ := repo.Get("young")
	if issue.Reminded {
		t.Fatal("released issue must stay unreminded")
	}

	// Row must be claimable again after the release.
	claim, err := repo.ClaimOldestDue(context.Background())
	if err != nil || claim == nil {
		t.Fatalf("expected row to be claimable after release, got claim=%v err=%v", claim, err)
	}
	_ = claim.Release(context.Background())
}

func TestReminder_DueIssueIsDeliveredAndMarked(t *testing.T) {
	repo := repository.NewMockIssueRepository()
	track(t, repo, "due", 2*time.Hour)
	notif := &stubNotifier{}
	w, counts := newTestWorker(repo, notif, time.Hour)

	w.tick(context.Background())

	if got := notif.sent(); len(got) != 1 || got[0] != "due" {
		t.Fatalf("expected exactly one delivery for 'due', got %v", got)
	}
	issue, _ := repo.Get("due")
	if !issue.Reminded {
		t.Fatal("delivered issue must be marked reminded")
	}
	if counts.reminded != 1 || counts.failed != 0 {
		t.Fatalf("hooks: reminded=%d failed=%d", counts.reminded, counts.failed)
	}
}

func TestReminder_RemindedIssueIsNeverReclaimed(t *testing.T) {
	repo := repository.NewMockIssueRepository()
	track(t, repo, "done", 2*time.Hour)
	notif := &stubNotifier{}
	w, _ := newTestWorker(repo, notif, time.Hour)

	w.tick(context.Background())
	w.tick(context.Background())
	w.tick(context.Background())

	if got := notif.sent(); len(got) != 1 {
		t.Fatalf("expected a single delivery across ticks, got %v", got)
	}
}

func TestReminder_FailedDeliveryRetriesNextTick(t *testing.T) {
	repo := repository.NewMockIssueRepository()
	track(t, repo, "flaky", 2*time.Hour)
	notif := &stubNotifier{err: errors.New("tracker returned 500")}
	w, counts := newTestWorker(repo, notif, time.Hour)

	w.tick(context.Background())

	issue, _ := repo.Get("flaky")
	if issue.Reminded {
		t.Fatal("failed delivery must leave the issue unreminded")
	}
	if counts.failed != 1 {
		t.Fatalf("expected one failure observation, got %d", counts.failed)
	}

	// Next tick: the tracker has recovered.
	notif.mu.Lock()
	notif.err = nil
	notif.mu.Unlock()
	w.tick(context.Background())

	issue, _ = repo.Get("flaky")
	if !issue.Reminded {
		t.Fatal("expected retry to deliver on the next tick")
	}
	if counts.reminded != 1 {
		t.Fatalf("expected one success observation, got %d", counts.reminded)
	}
}

func TestReminder_ClaimFailureSkipsTick(t *testing.T) {
	repo := repository.NewMockIssueRepository()
	track(t, repo, "due", 2*time.Hour)
	repo.ClaimErr = errors.New("connection refused")
	notif := &stubNotifier{}
	w, counts := newTestWorker(repo, notif, time.Hour)

	w.tick(context.Background())

	if len(notif.sent()) != 0 {
		t.Fatal("a failed claim must not reach the notifier")
	}
	if counts.reminded != 0 || counts.failed != 0 {
		t.Fatalf("hooks must not fire on a claim failure: reminded=%d failed=%d", counts.reminded, counts.failed)
	}

	// The store recovers; the next tick picks the row up.
	repo.ClaimErr = nil
	w.tick(context.Background())
	if got := notif.sent(); len(got) != 1 || got[0] != "due" {
		t.Fatalf("expected delivery after the store recovered, got %v", got)
	}
}

func TestReminder_CommitFailureAfterDeliveryRedelivers(t *testing.T) {
	repo := repository.NewMockIssueRepository()
	track(t, repo, "due", 2*time.Hour)
	repo.MarkRemindedErr = errors.New("connection reset during commit")
	notif := &stubNotifier{}
	w, counts := newTestWorker(repo, notif, time.Hour)

	w.tick(context.Background())

	// The reminder went out but the flag did not land.
	if got := notif.sent(); len(got) != 1 {
		t.Fatalf("expected one delivery, got %v", got)
	}
	issue, _ := repo.Get("due")
	if issue.Reminded {
		t.Fatal("failed commit must leave the row unreminded")
	}
	if counts.reminded != 0 || counts.failed != 0 {
		t.Fatalf("neither hook fires on a commit failure: reminded=%d failed=%d", counts.reminded, counts.failed)
	}

	// Once the store recovers the row is re-claimed and re-delivered — the
	// accepted duplicate-delivery window.
	repo.MarkRemindedErr = nil
	w.tick(context.Background())

	if got := notif.sent(); len(got) != 2 {
		t.Fatalf("expected a duplicate delivery after recovery, got %v", got)
	}
	issue, _ = repo.Get("due")
	if !issue.Reminded {
		t.Fatal("expected the retry to mark the row reminded")
	}
	if counts.reminded != 1 {
		t.Fatalf("expected one success observation, got %d", counts.reminded)
	}
}

func TestReminder_OldestDueIsDeliveredFirst(t *testing.T) {
	repo := repository.NewMockIssueRepository()
	track(t, repo, "newer", 2*time.Hour)
	track(t, repo, "older", 3*time.Hour)
	notif := &stubNotifier{}
	w, _ := newTestWorker(repo, notif, time.Hour)

	w.tick(context.Background())
	w.tick(context.Background())

	want := []string{"older", "newer"}
	got := notif.sent()
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected delivery order %v, got %v", want, got)
	}
}

func TestReminder_StopsOnContextCancel(t *testing.T) {
	repo := repository.NewMockIssueRepository()
	w, _ := newTestWorker(repo, &stubNotifier{}, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}
