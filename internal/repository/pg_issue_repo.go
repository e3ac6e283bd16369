package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/remindly/issue-reminder/internal/domain"
)

type pgIssueRepository struct {
	pool *pgxpool.Pool
}

// NewPgIssueRepository returns an IssueRepository backed by PostgreSQL.
func NewPgIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &pgIssueRepository{pool: pool}
}

func (r *pgIssueRepository) UpsertIfAbsent(ctx context.Context, issue domain.Issue) (bool, error) {
	// ON CONFLICT DO NOTHING instead of read-then-write: concurrent inserts
	// of the same id are resolved by the database, first write wins. The
	// command tag reports zero affected rows on the no-op path.
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO issues (id, identifier, title, created_at, reminded)
		VALUES ($1, $2, $3, $4, false)
		ON CONFLICT (id) DO NOTHING`,
		issue.ID, issue.Identifier, issue.Title, issue.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert issue: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *pgIssueRepository) RemoveIfPresent(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM issues WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete issue: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *pgIssueRepository) ClaimOldestDue(ctx context.Context) (ClaimedIssue, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin claim: %w", err)
	}

	// SKIP LOCKED lets concurrent worker instances each claim a different
	// row instead of queuing behind another claimer's open transaction.
	row := tx.QueryRow(ctx, `
		SELECT id, identifier, title, created_at, reminded
		FROM issues
		WHERE reminded = false
		ORDER BY created_at ASC
		FOR UPDATE SKIP LOCKED
		LIMIT 1`)

	var issue domain.Issue
	err = row.Scan(&issue.ID, &issue.Identifier, &issue.Title, &issue.CreatedAt, &issue.Reminded)
	if errors.Is(err, pgx.ErrNoRows) {
		_ = tx.Rollback(ctx)
		return nil, nil
	}
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("claim issue: %w", err)
	}

	return &pgClaimedIssue{tx: tx, issue: issue}, nil
}

func (r *pgIssueRepository) Stats(ctx context.Context) (domain.QueueStats, error) {
	var s domain.QueueStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE reminded = false),
			COUNT(*) FILTER (WHERE reminded = true)
		FROM issues`).Scan(&s.Pending, &s.Reminded)
	if err != nil {
		return domain.QueueStats{}, fmt.Errorf("count issues: %w", err)
	}
	return s, nil
}

// pgClaimedIssue holds the open claim transaction.
type pgClaimedIssue struct {
	tx    pgx.Tx
	issue domain.Issue
}

func (c *pgClaimedIssue) Issue() domain.Issue { return c.issue }

func (c *pgClaimedIssue) MarkReminded(ctx context.Context) error {
	if _, err := c.tx.Exec(ctx,
		`UPDATE issues SET reminded = true WHERE id = $1`, c.issue.ID); err != nil {
		_ = c.tx.Rollback(ctx)
		return fmt.Errorf("mark reminded: %w", err)
	}
	if err := c.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit claim: %w", err)
	}
	return nil
}

func (c *pgClaimedIssue) Release(ctx context.Context) error {
	if err := c.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("release claim: %w", err)
	}
	return nil
}

// compile-time check that pgClaimedIssue implements ClaimedIssue
var _ ClaimedIssue = (*pgClaimedIssue)(nil)
