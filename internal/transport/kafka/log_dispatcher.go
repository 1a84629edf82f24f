package kafka

import (
	"context"
	"time"

	"loadboard-dispatch/internal/domain"
	"loadboard-dispatch/internal/logx"
)

// LogDispatcher stands in for Dispatcher when no broker is configured.
// Codes are never written to the log.
type LogDispatcher struct {
	logger logx.Logger
}

// NewLogDispatcher creates a LogDispatcher.
func NewLogDispatcher(logger logx.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

// SendCode logs the request.
func (d *LogDispatcher) SendCode(_ context.Context, driverID, loadID, assignmentID, _ string, deadline time.Time) error {
	d.logger.Info("notification not published, kafka disabled",
		logx.String("kind", "code"),
		logx.String("assignment_id", assignmentID),
		logx.String("load_id", loadID),
		logx.String("driver_id", driverID),
		logx.Time("deadline", deadline),
	)
	return nil
}

// NotifyResolution logs the resolution.
func (d *LogDispatcher) NotifyResolution(_ context.Context, r domain.Resolution) error {
	d.logger.Info("notification not published, kafka disabled",
		logx.String("kind", "resolution"),
		logx.String("assignment_id", r.AssignmentID),
		logx.String("load_id", r.LoadID),
		logx.String("outcome", string(r.Outcome)),
		logx.Bool("needs_reassignment", r.NeedsReassignment()),
	)
	return nil
}
