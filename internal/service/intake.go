package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/remindly/issue-reminder/internal/domain"
	"github.com/remindly/issue-reminder/internal/repository"
	"github.com/remindly/issue-reminder/internal/webhook"
)

// Result classifies what one webhook event did to the issue queue.
type Result string

const (
	// ResultTracked — the issue entered the target state and is now queued.
	ResultTracked Result = "tracked"
	// ResultRemoved — the issue left the target state and its row was deleted.
	ResultRemoved Result = "removed"
	// ResultIgnored — the event required no queue change: either a non-target
	// state for an issue the queue was not tracking, or a target-state event
	// for an id that is already tracked.
	ResultIgnored Result = "ignored"
)

// Intake applies verified webhook events to the issue queue.
// All trust-boundary checks (signature, schema, replay window) happen here,
// before any queue mutation. HTTP handlers depend on this service, not on the
// verifier or repository directly.
type Intake struct {
	repo        repository.IssueRepository
	signingKey  []byte
	targetState string
	maxEventAge time.Duration
	logger      *zap.Logger
}

func NewIntake(
	repo repository.IssueRepository,
	signingKey []byte,
	targetState string,
	maxEventAge time.Duration,
	logger *zap.Logger,
) *Intake {
	return &Intake{
		repo:        repo,
		signingKey:  signingKey,
		targetState: targetState,
		maxEventAge: maxEventAge,
		logger:      logger,
	}
}

// Apply authenticates and parses one raw webhook delivery, then inserts or
// removes the named issue. Events whose state matches the target state are
// tracked; any other state untracks the issue, whether or not it was ever
// reminded. Stale events are rejected before any side effect.
func (s *Intake) Apply(ctx context.Context, body []byte, signatureHeader string) (Result, error) {
	if !webhook.VerifySignature(body, signatureHeader, s.signingKey) {
		return "", domain.ErrBadSignature
	}

	ev, err := webhook.Parse(body)
	if err != nil {
		return "", err
	}

	if time.Since(ev.EmittedAt) > s.maxEventAge {
		return "", domain.ErrStaleEvent
	}

	if ev.StateName == s.targetState {
		issue := domain.Issue{
			ID:         ev.IssueID,
			Identifier: ev.Identifier,
			Title:      ev.Title,
			CreatedAt:  ev.CreatedAt,
		}
		inserted, err := s.repo.UpsertIfAbsent(ctx, issue)
		if err != nil {
			return "", fmt.Errorf("track issue: %w", err)
		}
		if !inserted {
			return ResultIgnored, nil
		}
		s.logger.Info("issue tracked",
			zap.String("issue_id", ev.IssueID),
			zap.String("identifier", ev.Identifier),
			zap.String("state", ev.StateName),
		)
		return ResultTracked, nil
	}

	removed, err := s.repo.RemoveIfPresent(ctx, ev.IssueID)
	if err != nil {
		return "", fmt.Errorf("untrack issue: %w", err)
	}
	if !removed {
		return ResultIgnored, nil
	}
	s.logger.Info("issue untracked",
		zap.String("issue_id", ev.IssueID),
		zap.String("state", ev.StateName),
	)
	return ResultRemoved, nil
}
