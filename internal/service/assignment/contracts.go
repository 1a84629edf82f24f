//go:generate mockgen -source=contracts.go -destination=assignment_mocks_test.go -package=assignment

package assignment

import (
	"context"
	"time"

	"loadboard-dispatch/internal/domain"
)

// CodeIssuer produces and checks per-assignment verification codes.
type CodeIssuer interface {
	Issue(ctx context.Context, assignmentID string, expiresAt time.Time) (string, error)
	Verify(ctx context.Context, assignmentID, code string) error
	Resend(ctx context.Context, assignmentID string) (string, int, error)
	Discard(ctx context.Context, assignmentID string) error
}

// ExpiryTimer arms and cancels acceptance deadlines.
type ExpiryTimer interface {
	Arm(ctx context.Context, assignmentID string, deadline time.Time) error
	Cancel(ctx context.Context, assignmentID string)
}

// Notifier hands messages to the notification pipeline.
type Notifier interface {
	SendCode(ctx context.Context, driverID, loadID, assignmentID, code string, deadline time.Time) error
	NotifyResolution(ctx context.Context, r domain.Resolution) error
}
