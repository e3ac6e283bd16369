package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/remindly/issue-reminder/internal/config"
	"github.com/remindly/issue-reminder/internal/notifier"
	"github.com/remindly/issue-reminder/internal/ratelimiter"
	"github.com/remindly/issue-reminder/internal/repository"
)

// MetricHooks carries the metric callback functions injected by main.
// Using a struct keeps the pool constructor signature clean.
type MetricHooks struct {
	OnReminded func(latency time.Duration)
	OnFailed   func()
}

// Pool manages the lifecycle of all reminder workers. One worker is enough
// for a single deployment; running more than one is safe because each claim
// skips rows locked by the others, and all workers share the outbound limiter.
type Pool struct {
	workers []*Reminder
	wg      sync.WaitGroup
}

// NewPool creates cfg.ReminderWorkers identical workers.
func NewPool(
	cfg *config.Config,
	repo repository.IssueRepository,
	notif notifier.Notifier,
	limiter *ratelimiter.Limiter,
	logger *zap.Logger,
	hooks MetricHooks,
) *Pool {
	workers := make([]*Reminder, cfg.ReminderWorkers)
	for i := range workers {
		workers[i] = NewReminder(
			i, repo, notif, limiter,
			cfg.TimeToRemind,
			cfg.PollInterval,
			logger.With(zap.Int("worker_id", i)),
			hooks.OnReminded,
			hooks.OnFailed,
		)
	}
	return &Pool{workers: workers}
}

// Start launches all workers as goroutines.
// The provided ctx is forwarded to every worker; cancelling it
// triggers a graceful shutdown of the entire pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *Reminder) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
}

// Wait blocks until every worker has returned after ctx is cancelled.
// Call this after cancelling the context so in-flight claims finish cleanly.
func (p *Pool) Wait() {
	p.wg.Wait()
}
