package notifier

import (
	"context"

	"github.com/remindly/issue-reminder/internal/domain"
)

// Notifier delivers one reminder for a tracked issue.
// Mocking this interface in tests gives full control over delivery behaviour
// without making real HTTP calls. Delivery is at-least-once: a crash between
// a successful Send and the claim commit re-delivers on the next claim.
type Notifier interface {
	Send(ctx context.Context, issue domain.Issue) error
}
