// Package assignment runs the offer workflow between a load and a driver.
//
// An assignment leaves pending exactly once. Every resolution goes through
// the conditional update of the store, so Accept, Decline and the expiry
// callback may race freely: the first committed update wins and the others
// observe ErrAssignmentAlreadyResolved or a no-op.
package assignment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"loadboard-dispatch/internal/apperr"
	"loadboard-dispatch/internal/domain"
	"loadboard-dispatch/internal/logx"
	"loadboard-dispatch/internal/metrics"
	"loadboard-dispatch/internal/ports/assignmenttx"
)

// Config stores coordinator settings.
type Config struct {
	AcceptWindow     time.Duration
	OperationTimeout time.Duration
	SweepBatch       int
}

// Coordinator is the only writer of load, driver-busy and assignment state.
type Coordinator struct {
	runner   assignmenttx.Runner
	codes    CodeIssuer
	expiry   ExpiryTimer
	notifier Notifier
	metrics  *metrics.Assignment
	logger   logx.Logger

	window           time.Duration
	operationTimeout time.Duration
	sweepBatch       int

	now   func() time.Time
	newID func() string
}

// NewCoordinator creates a Coordinator. m may be nil.
func NewCoordinator(
	runner assignmenttx.Runner,
	codes CodeIssuer,
	expiry ExpiryTimer,
	notifier Notifier,
	m *metrics.Assignment,
	cfg Config,
	logger logx.Logger,
) *Coordinator {
	if cfg.AcceptWindow <= 0 {
		cfg.AcceptWindow = 15 * time.Minute
	}
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = 3 * time.Second
	}
	if cfg.SweepBatch <= 0 {
		cfg.SweepBatch = 100
	}
	if m == nil {
		m = metrics.NewAssignment()
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Coordinator{
		runner:           runner,
		codes:            codes,
		expiry:           expiry,
		notifier:         notifier,
		metrics:          m,
		logger:           logger,
		window:           cfg.AcceptWindow,
		operationTimeout: cfg.OperationTimeout,
		sweepBatch:       cfg.SweepBatch,
		now:              func() time.Time { return time.Now().UTC() },
		newID:            uuid.NewString,
	}
}

func (c *Coordinator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.operationTimeout)
}

// AssignLoad offers loadID to driverID. The returned assignment carries the
// freshly issued verification code.
func (c *Coordinator) AssignLoad(ctx context.Context, loadID, driverID string) (domain.Assignment, error) {
	loadID, err := requireID(loadID)
	if err != nil {
		return domain.Assignment{}, err
	}
	driverID, err = requireID(driverID)
	if err != nil {
		return domain.Assignment{}, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var (
		a     domain.Assignment
		armed bool
	)
	err = c.runner.WithTx(ctx, func(tx assignmenttx.Repository) error {
		load, err := tx.LoadForUpdate(ctx, loadID)
		if err != nil {
			return err
		}
		if load == nil {
			return fmt.Errorf("load %q: %w", loadID, apperr.ErrNotFound)
		}
		if load.Status != domain.LoadAvailable {
			return apperr.ErrLoadUnavailable
		}

		driver, err := tx.DriverForUpdate(ctx, driverID)
		if err != nil {
			return err
		}
		if driver == nil {
			return fmt.Errorf("driver %q: %w", driverID, apperr.ErrNotFound)
		}
		if !driver.Eligible() {
			return apperr.ErrDriverIneligible
		}
		if driver.Busy() {
			return apperr.ErrDriverAlreadyAssigned
		}

		now := c.now()
		a = domain.Assignment{
			ID:                 c.newID(),
			LoadID:             loadID,
			DriverID:           driverID,
			Status:             domain.AssignmentPending,
			CreatedAt:          now,
			AcceptanceDeadline: now.Add(c.window),
		}
		if err := tx.InsertAssignment(ctx, &a); err != nil {
			return err
		}
		if err := tx.SetLoadStatus(ctx, loadID, domain.LoadPendingAcceptance); err != nil {
			return err
		}
		if err := tx.SetDriverBusy(ctx, driverID, &a.ID); err != nil {
			return err
		}

		code, err := c.codes.Issue(ctx, a.ID, a.AcceptanceDeadline)
		if err != nil {
			return fmt.Errorf("issue code: %w", err)
		}
		a.VerificationCode = code

		if err := c.expiry.Arm(ctx, a.ID, a.AcceptanceDeadline); err != nil {
			return fmt.Errorf("arm expiry: %w", err)
		}
		armed = true
		return nil
	})
	if err != nil {
		if a.ID != "" {
			c.abandon(ctx, a.ID, armed)
		}
		return domain.Assignment{}, err
	}

	c.metrics.Created.Inc()
	c.logger.Info("assignment created",
		logx.String("event", "assignment_created"),
		logx.String("assignment_id", a.ID),
		logx.String("load_id", a.LoadID),
		logx.String("driver_id", a.DriverID),
		logx.Time("deadline", a.AcceptanceDeadline),
	)

	c.sendCode(ctx, a)
	return a, nil
}

// Accept confirms the offer when code matches and the window is still open.
func (c *Coordinator) Accept(ctx context.Context, assignmentID, code string) (domain.Assignment, error) {
	assignmentID, err := requireID(assignmentID)
	if err != nil {
		return domain.Assignment{}, err
	}
	if strings.TrimSpace(code) == "" {
		return domain.Assignment{}, apperr.ErrInvalid
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var resolved *domain.Assignment
	err = c.runner.WithTx(ctx, func(tx assignmenttx.Repository) error {
		a, err := c.pending(ctx, tx, assignmentID)
		if err != nil {
			return err
		}
		now := c.now()
		if a.ExpiredAt(now) {
			return apperr.ErrAssignmentExpired
		}
		if err := c.codes.Verify(ctx, assignmentID, code); err != nil {
			return err
		}

		resolved, err = tx.ResolvePending(ctx, assignmentID, domain.AssignmentAccepted, now)
		if err != nil {
			return err
		}
		if resolved == nil {
			return apperr.ErrAssignmentAlreadyResolved
		}
		return tx.SetLoadStatus(ctx, resolved.LoadID, domain.LoadAssigned)
	})
	if err != nil {
		c.logRejected("accept", assignmentID, err)
		return domain.Assignment{}, err
	}

	c.afterResolution(ctx, *resolved)
	return *resolved, nil
}

// Decline gives the load back to the pool.
func (c *Coordinator) Decline(ctx context.Context, assignmentID string) (domain.Assignment, error) {
	assignmentID, err := requireID(assignmentID)
	if err != nil {
		return domain.Assignment{}, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var resolved *domain.Assignment
	err = c.runner.WithTx(ctx, func(tx assignmenttx.Repository) error {
		a, err := c.pending(ctx, tx, assignmentID)
		if err != nil {
			return err
		}
		now := c.now()
		if a.ExpiredAt(now) {
			return apperr.ErrAssignmentExpired
		}
		resolved, err = c.release(ctx, tx, assignmentID, domain.AssignmentDeclined, now)
		if err != nil {
			return err
		}
		if resolved == nil {
			return apperr.ErrAssignmentAlreadyResolved
		}
		return nil
	})
	if err != nil {
		c.logRejected("decline", assignmentID, err)
		return domain.Assignment{}, err
	}

	c.afterResolution(ctx, *resolved)
	return *resolved, nil
}

// Expire resolves a pending assignment whose deadline passed. It is safe to
// call any number of times and for assignments that are already resolved.
// Before the deadline it does nothing; the sweeper retries overdue offers.
func (c *Coordinator) Expire(ctx context.Context, assignmentID string) error {
	_, err := c.expire(ctx, assignmentID)
	return err
}

func (c *Coordinator) expire(ctx context.Context, assignmentID string) (bool, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var resolved *domain.Assignment
	err := c.runner.WithTx(ctx, func(tx assignmenttx.Repository) error {
		var err error
		resolved, err = c.release(ctx, tx, assignmentID, domain.AssignmentExpired, c.now())
		return err
	})
	if err != nil {
		return false, fmt.Errorf("expire %s: %w", assignmentID, err)
	}
	if resolved == nil {
		c.logger.Debug("expiry skipped, assignment not pending or not due",
			logx.String("assignment_id", assignmentID),
		)
		return false, nil
	}

	c.afterResolution(ctx, *resolved)
	return true, nil
}

// Get returns the current snapshot of an assignment.
func (c *Coordinator) Get(ctx context.Context, assignmentID string) (domain.Assignment, error) {
	assignmentID, err := requireID(assignmentID)
	if err != nil {
		return domain.Assignment{}, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var out domain.Assignment
	err = c.runner.WithTx(ctx, func(tx assignmenttx.Repository) error {
		a, err := tx.GetAssignment(ctx, assignmentID)
		if err != nil {
			return err
		}
		if a == nil {
			return fmt.Errorf("assignment %q: %w", assignmentID, apperr.ErrNotFound)
		}
		out = *a
		return nil
	})
	return out, err
}

// ResendCode rotates the verification code and sends it again.
// The acceptance deadline does not move.
func (c *Coordinator) ResendCode(ctx context.Context, assignmentID string) (domain.Assignment, error) {
	assignmentID, err := requireID(assignmentID)
	if err != nil {
		return domain.Assignment{}, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var a *domain.Assignment
	err = c.runner.WithTx(ctx, func(tx assignmenttx.Repository) error {
		var err error
		a, err = c.pending(ctx, tx, assignmentID)
		if err != nil {
			return err
		}
		if a.ExpiredAt(c.now()) {
			return apperr.ErrAssignmentExpired
		}
		if err := tx.IncrementResends(ctx, assignmentID); err != nil {
			return err
		}
		code, resends, err := c.codes.Resend(ctx, assignmentID)
		if err != nil {
			return err
		}
		a.VerificationCode = code
		a.ResendCount = resends
		return nil
	})
	if err != nil {
		c.logRejected("resend", assignmentID, err)
		return domain.Assignment{}, err
	}

	c.logger.Info("verification code resent",
		logx.String("assignment_id", a.ID),
		logx.Int("resend_count", a.ResendCount),
	)
	c.sendCode(ctx, *a)
	return *a, nil
}

// UpdateLoadStatus moves a load along its lifecycle after acceptance.
// Delivered and cancelled loads free their driver.
func (c *Coordinator) UpdateLoadStatus(ctx context.Context, loadID string, status domain.LoadStatus) (domain.Load, error) {
	loadID, err := requireID(loadID)
	if err != nil {
		return domain.Load{}, err
	}
	if !status.Valid() {
		return domain.Load{}, apperr.ErrInvalid
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var from domain.LoadStatus
	err = c.runner.WithTx(ctx, func(tx assignmenttx.Repository) error {
		load, err := tx.LoadForUpdate(ctx, loadID)
		if err != nil {
			return err
		}
		if load == nil {
			return fmt.Errorf("load %q: %w", loadID, apperr.ErrNotFound)
		}
		from = load.Status
		if !from.CanAdvance(status) {
			return fmt.Errorf("%s -> %s: %w", from, status, apperr.ErrInvalidTransition)
		}
		if status.ReleasesDriver() {
			if err := tx.ReleaseDriverOfLoad(ctx, loadID); err != nil {
				return err
			}
		}
		return tx.SetLoadStatus(ctx, loadID, status)
	})
	if err != nil {
		return domain.Load{}, err
	}

	c.logger.Info("load status changed",
		logx.String("load_id", loadID),
		logx.String("from", string(from)),
		logx.String("to", string(status)),
	)
	return domain.Load{ID: loadID, Status: status}, nil
}

func (c *Coordinator) pending(ctx context.Context, tx assignmenttx.Repository, id string) (*domain.Assignment, error) {
	a, err := tx.GetAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("assignment %q: %w", id, apperr.ErrNotFound)
	}
	if a.Status != domain.AssignmentPending {
		return nil, apperr.ErrAssignmentAlreadyResolved
	}
	return a, nil
}

// release moves a pending assignment to a releasing outcome and frees its
// load and driver in the same transaction. A nil result means it lost.
func (c *Coordinator) release(
	ctx context.Context,
	tx assignmenttx.Repository,
	id string,
	to domain.AssignmentStatus,
	at time.Time,
) (*domain.Assignment, error) {
	resolved, err := tx.ResolvePending(ctx, id, to, at)
	if err != nil || resolved == nil {
		return nil, err
	}
	if err := tx.SetLoadStatus(ctx, resolved.LoadID, domain.LoadAvailable); err != nil {
		return nil, err
	}
	if err := tx.SetDriverBusy(ctx, resolved.DriverID, nil); err != nil {
		return nil, err
	}
	return resolved, nil
}

func (c *Coordinator) afterResolution(ctx context.Context, a domain.Assignment) {
	ctx, cancel := c.withTimeout(context.WithoutCancel(ctx))
	defer cancel()

	if a.Status != domain.AssignmentExpired {
		c.expiry.Cancel(ctx, a.ID)
	}
	if err := c.codes.Discard(ctx, a.ID); err != nil {
		c.logger.Warn("verification code not discarded",
			logx.String("assignment_id", a.ID),
			logx.Err(err),
		)
	}

	c.metrics.Resolved.WithLabelValues(string(a.Status)).Inc()
	c.logger.Info("assignment resolved",
		logx.String("event", "assignment_resolved"),
		logx.String("assignment_id", a.ID),
		logx.String("load_id", a.LoadID),
		logx.String("driver_id", a.DriverID),
		logx.String("outcome", string(a.Status)),
	)

	r := domain.Resolution{
		AssignmentID: a.ID,
		LoadID:       a.LoadID,
		DriverID:     a.DriverID,
		Outcome:      a.Status,
	}
	if a.ResolvedAt != nil {
		r.ResolvedAt = *a.ResolvedAt
	}
	if err := c.notifier.NotifyResolution(ctx, r); err != nil {
		c.notificationFailed("resolution", a.ID, err)
	}
}

func (c *Coordinator) sendCode(ctx context.Context, a domain.Assignment) {
	nctx, cancel := c.withTimeout(context.WithoutCancel(ctx))
	defer cancel()
	err := c.notifier.SendCode(nctx, a.DriverID, a.LoadID, a.ID, a.VerificationCode, a.AcceptanceDeadline)
	if err != nil {
		c.notificationFailed("code", a.ID, err)
	}
}

func (c *Coordinator) notificationFailed(kind, assignmentID string, err error) {
	c.metrics.NotificationFailures.WithLabelValues(kind).Inc()
	c.logger.Warn("notification delivery failed",
		logx.String("error_kind", apperr.Kind(apperr.ErrNotificationDeliveryFailed)),
		logx.String("notification", kind),
		logx.String("assignment_id", assignmentID),
		logx.Err(err),
	)
}

// abandon undoes side effects of an AssignLoad whose transaction failed.
func (c *Coordinator) abandon(ctx context.Context, assignmentID string, armed bool) {
	ctx, cancel := c.withTimeout(context.WithoutCancel(ctx))
	defer cancel()
	if armed {
		c.expiry.Cancel(ctx, assignmentID)
	}
	_ = c.codes.Discard(ctx, assignmentID)
}

func (c *Coordinator) logRejected(op, assignmentID string, err error) {
	fields := []logx.Field{
		logx.String("op", op),
		logx.String("assignment_id", assignmentID),
		logx.String("error_kind", apperr.Kind(err)),
	}
	switch {
	case apperr.IsRaceLoss(err):
		c.logger.Info("assignment operation lost the race", fields...)
	case apperr.Kind(err) != "internal":
		c.logger.Debug("assignment operation rejected", fields...)
	default:
		c.logger.Error("assignment operation failed", append(fields, logx.Err(err))...)
	}
}

func requireID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", apperr.ErrInvalid
	}
	return id, nil
}
