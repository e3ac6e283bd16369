package repository

import (
	"context"
	"sync"

	"github.com/remindly/issue-reminder/internal/domain"
)

// MockIssueRepository is a hand-written, in-memory implementation of
// IssueRepository used in unit tests. No mock-generation library needed.
// Claims are modelled with a per-id hold set so the SKIP LOCKED contract
// (a held row is invisible to other claimers) can be exercised in tests.
type MockIssueRepository struct {
	mu      sync.Mutex
	issues  map[string]*domain.Issue
	claimed map[string]bool

	// Optional error overrides — set in tests to simulate failure paths.
	// MarkRemindedErr fails the claim commit after a successful delivery,
	// leaving the row unreminded and claimable again.
	UpsertErr       error
	RemoveErr       error
	ClaimErr        error
	MarkRemindedErr error
}

func NewMockIssueRepository() *MockIssueRepository {
	return &MockIssueRepository{
		issues:  make(map[string]*domain.Issue),
		claimed: make(map[string]bool),
	}
}

func (m *MockIssueRepository) UpsertIfAbsent(_ context.Context, issue domain.Issue) (bool, error) {
	if m.UpsertErr != nil {
		return false, m.UpsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.issues[issue.ID]; ok {
		return false, nil // first write wins
	}
	clone := issue
	clone.Reminded = false
	m.issues[issue.ID] = &clone
	return true, nil
}

func (m *MockIssueRepository) RemoveIfPresent(_ context.Context, id string) (bool, error) {
	if m.RemoveErr != nil {
		return false, m.RemoveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.issues[id]; !ok {
		return false, nil
	}
	delete(m.issues, id)
	delete(m.claimed, id)
	return true, nil
}

func (m *MockIssueRepository) ClaimOldestDue(_ context.Context) (ClaimedIssue, error) {
	if m.ClaimErr != nil {
		return nil, m.ClaimErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var oldest *domain.Issue
	for _, issue := range m.issues {
		if issue.Reminded || m.claimed[issue.ID] {
			continue
		}
		if oldest == nil || issue.CreatedAt.Before(oldest.CreatedAt) {
			oldest = issue
		}
	}
	if oldest == nil {
		return nil, nil
	}

	m.claimed[oldest.ID] = true
	clone := *oldest
	return &mockClaimedIssue{repo: m, issue: clone}, nil
}

func (m *MockIssueRepository) Stats(_ context.Context) (domain.QueueStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s domain.QueueStats
	for _, issue := range m.issues {
		if issue.Reminded {
			s.Reminded++
		} else {
			s.Pending++
		}
	}
	return s, nil
}

// Get exposes the stored row for test assertions.
func (m *MockIssueRepository) Get(id string) (domain.Issue, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	issue, ok := m.issues[id]
	if !ok {
		return domain.Issue{}, false
	}
	return *issue, true
}

type mockClaimedIssue struct {
	repo  *MockIssueRepository
	issue domain.Issue
}

func (c *mockClaimedIssue) Issue() domain.Issue { return c.issue }

func (c *mockClaimedIssue) MarkReminded(_ context.Context) error {
	c.repo.mu.Lock()
	defer c.repo.mu.Unlock()
	delete(c.repo.claimed, c.issue.ID)
	if c.repo.MarkRemindedErr != nil {
		return c.repo.MarkRemindedErr
	}
	if issue, ok := c.repo.issues[c.issue.ID]; ok {
		issue.Reminded = true
	}
	return nil
}

func (c *mockClaimedIssue) Release(_ context.Context) error {
	c.repo.mu.Lock()
	defer c.repo.mu.Unlock()
	delete(c.repo.claimed, c.issue.ID)
	return nil
}
