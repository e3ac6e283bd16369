package repository

import (
	"context"

	"github.com/remindly/issue-reminder/internal/domain"
)

// ClaimedIssue is an exclusive hold on one unreminded issue row. The claim
// keeps a database transaction open, so callers must finish with exactly one
// of MarkReminded or Release; an abandoned claim holds its row lock for the
// life of the underlying connection.
type ClaimedIssue interface {
	// Issue returns the claimed row as read inside the claim's transaction.
	Issue() domain.Issue
	// MarkReminded flips the reminded flag and commits the claim.
	MarkReminded(ctx context.Context) error
	// Release abandons the claim, leaving the row unchanged and claimable again.
	Release(ctx context.Context) error
}

// IssueRepository defines all persistence operations for tracked issues.
// The pgx implementation is in pg_issue_repo.go.
// Tests use a hand-written mock (mock_issue_repo.go).
type IssueRepository interface {
	// UpsertIfAbsent inserts a new unreminded issue and reports whether a row
	// was actually written. Re-insertion of an already-tracked id is a no-op
	// returning false; the original created_at wins.
	UpsertIfAbsent(ctx context.Context, issue domain.Issue) (bool, error)

	// RemoveIfPresent deletes the issue regardless of its reminded flag and
	// reports whether a row was removed.
	RemoveIfPresent(ctx context.Context, id string) (bool, error)

	// ClaimOldestDue locks and returns the oldest unreminded issue, skipping
	// rows held by other in-flight claims so concurrent claimers never block
	// behind one another. Returns (nil, nil) when no claimable row exists.
	ClaimOldestDue(ctx context.Context) (ClaimedIssue, error)

	// Stats counts pending and reminded rows.
	Stats(ctx context.Context) (domain.QueueStats, error)
}
