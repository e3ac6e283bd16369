package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/remindly/issue-reminder/internal/notifier"
	"github.com/remindly/issue-reminder/internal/ratelimiter"
	"github.com/remindly/issue-reminder/internal/repository"
)

// Reminder periodically claims the oldest unreminded issue and, once the
// issue has been in its state longer than timeToRemind, delivers a reminder
// through the notifier. The claim's row lock is the only mutual exclusion:
// additional Reminder instances are safe because claims skip locked rows.
type Reminder struct {
	id           int
	repo         repository.IssueRepository
	notif        notifier.Notifier
	limiter      *ratelimiter.Limiter
	timeToRemind time.Duration
	interval     time.Duration
	logger       *zap.Logger

	// Hooks for metrics — injected by the pool so the worker stays metrics-agnostic.
	onReminded func(latency time.Duration)
	onFailed   func()
}

// NewReminder constructs a worker. onReminded and onFailed are optional (nil = no-op).
func NewReminder(
	id int,
	repo repository.IssueRepository,
	notif notifier.Notifier,
	limiter *ratelimiter.Limiter,
	timeToRemind time.Duration,
	interval time.Duration,
	logger *zap.Logger,
	onReminded func(time.Duration),
	onFailed func(),
) *Reminder {
	if onReminded == nil {
		onReminded = func(time.Duration) {}
	}
	if onFailed == nil {
		onFailed = func() {}
	}
	return &Reminder{
		id: id, repo: repo, notif: notif, limiter: limiter,
		timeToRemind: timeToRemind, interval: interval, logger: logger,
		onReminded: onReminded, onFailed: onFailed,
	}
}

// Run ticks every interval until ctx is cancelled, processing at most one
// claim per tick. Failed deliveries are not retried within a tick; the row
// stays unreminded and is claimed again on a later tick, so the interval is
// also the retry spacing.
func (w *Reminder) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("reminder worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("time_to_remind", w.timeToRemind),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reminder worker stopping")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Reminder) tick(ctx context.Context) {
	claim, err := w.repo.ClaimOldestDue(ctx)
	if err != nil {
		w.logger.Error("claim failed", zap.Error(err))
		return
	}
	if claim == nil {
		return
	}

	issue := claim.Issue()
	age := time.Since(issue.CreatedAt)
	log := w.logger.With(
		zap.String("issue_id", issue.ID),
		zap.String("identifier", issue.Identifier),
	)

	// Rows come back oldest first, so if this one is not yet due nothing is.
	if age <= w.timeToRemind {
		if err := claim.Release(ctx); err != nil {
			log.Error("failed to release claim", zap.Error(err))
		}
		return
	}

	// Block here until the outbound limiter grants a token.
	if err := w.limiter.Wait(ctx); err != nil {
		// ctx cancelled while waiting — worker is shutting down.
		_ = claim.Release(ctx)
		return
	}

	start := time.Now()
	if err := w.notif.Send(ctx, issue); err != nil {
		log.Warn("reminder delivery failed", zap.Error(err), zap.Duration("age", age))
		if rerr := claim.Release(ctx); rerr != nil {
			log.Error("failed to release claim after delivery failure", zap.Error(rerr))
		}
		w.onFailed()
		return
	}

	if err := claim.MarkReminded(ctx); err != nil {
		// The reminder landed but the flag did not. The row stays claimable,
		// so the next successful pass delivers a duplicate — the accepted
		// at-least-once trade-off.
		log.Error("failed to mark issue reminded", zap.Error(err))
		return
	}

	w.onReminded(time.Since(start))
	log.Info("reminder sent", zap.Duration("age", age), zap.Duration("latency", time.Since(start)))
}
