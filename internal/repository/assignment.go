package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"loadboard-dispatch/internal/apperr"
	"loadboard-dispatch/internal/domain"
	"loadboard-dispatch/internal/ports/assignmenttx"
)

const assignmentColumns = `id, load_id, driver_id, status, created_at, acceptance_deadline,
            verified_at, resolved_at, resend_count`

// AssignmentRepo represents the assignment repository.
type AssignmentRepo struct {
	db *pgxpool.Pool
}

// NewAssignmentRepo creates a new AssignmentRepo.
func NewAssignmentRepo(db *pgxpool.Pool) *AssignmentRepo {
	return &AssignmentRepo{db: db}
}

// WithTx opens a transaction and executes fn within it.
func (r *AssignmentRepo) WithTx(ctx context.Context, fn func(tx assignmenttx.Repository) error) (err error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	// откатываем при панике
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(&TxRepo{tx: tx}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback tx: %w (original error: %s)", rbErr, err.Error())
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ListOverdue returns ids of pending assignments whose deadline is before now.
func (r *AssignmentRepo) ListOverdue(ctx context.Context, now time.Time, limit int) ([]string, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id FROM assignments
        WHERE status = 'pending' AND acceptance_deadline < $1
        ORDER BY acceptance_deadline
        LIMIT $2
    `, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list overdue assignments: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// TxRepo represents transaction repository.
type TxRepo struct {
	tx pgx.Tx
}

// LoadForUpdate - returns the load locked for update.
func (r *TxRepo) LoadForUpdate(ctx context.Context, loadID string) (*domain.Load, error) {
	var l domain.Load
	err := r.tx.QueryRow(ctx,
		`SELECT id, status FROM loads WHERE id = $1 FOR UPDATE`, loadID,
	).Scan(&l.ID, &l.Status)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock load %q: %w", loadID, err)
	}
	return &l, nil
}

// SetLoadStatus - update load status.
func (r *TxRepo) SetLoadStatus(ctx context.Context, loadID string, status domain.LoadStatus) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE loads SET status = $2, updated_at = now() WHERE id = $1
    `, loadID, string(status))
	if err != nil {
		return fmt.Errorf("update load status %q: %w", loadID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("load %q: %w", loadID, apperr.ErrNotFound)
	}
	return nil
}

// DriverForUpdate - returns the driver locked for update.
func (r *TxRepo) DriverForUpdate(ctx context.Context, driverID string) (*domain.Driver, error) {
	var d domain.Driver
	err := r.tx.QueryRow(ctx, `
        SELECT id, phone, verified, active, busy_assignment_id
        FROM drivers WHERE id = $1 FOR UPDATE
    `, driverID).Scan(&d.ID, &d.Phone, &d.Verified, &d.Active, &d.BusyAssignmentID)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock driver %q: %w", driverID, err)
	}
	return &d, nil
}

// SetDriverBusy - sets or clears the driver busy flag.
func (r *TxRepo) SetDriverBusy(ctx context.Context, driverID string, assignmentID *string) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE drivers SET busy_assignment_id = $2, updated_at = now() WHERE id = $1
    `, driverID, assignmentID)
	if err != nil {
		return fmt.Errorf("update driver busy %q: %w", driverID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("driver %q: %w", driverID, apperr.ErrNotFound)
	}
	return nil
}

// ReleaseDriverOfLoad - clears the busy flag of the driver holding the load.
func (r *TxRepo) ReleaseDriverOfLoad(ctx context.Context, loadID string) error {
	_, err := r.tx.Exec(ctx, `
        UPDATE drivers d
        SET busy_assignment_id = NULL, updated_at = now()
        FROM assignments a
        WHERE a.load_id = $1
          AND a.status = 'accepted'
          AND d.busy_assignment_id = a.id
    `, loadID)
	if err != nil {
		return fmt.Errorf("release driver of load %q: %w", loadID, err)
	}
	return nil
}

// InsertAssignment - insert a new assignment.
func (r *TxRepo) InsertAssignment(ctx context.Context, a *domain.Assignment) error {
	_, err := r.tx.Exec(ctx, `
        INSERT INTO assignments (id, load_id, driver_id, status, created_at, acceptance_deadline, resend_count)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, a.ID, a.LoadID, a.DriverID, string(a.Status), a.CreatedAt, a.AcceptanceDeadline, a.ResendCount)
	if err != nil {
		switch violatedConstraint(err) {
		case constraintPendingLoad:
			return apperr.ErrLoadUnavailable
		case constraintPendingDriver:
			return apperr.ErrDriverAlreadyAssigned
		}
		return fmt.Errorf("insert assignment: %w", err)
	}
	return nil
}

// GetAssignment - get assignment by ID.
func (r *TxRepo) GetAssignment(ctx context.Context, id string) (*domain.Assignment, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE id = $1`, id)
	a, err := scanAssignment(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get assignment %q: %w", id, err)
	}
	return a, nil
}

// ResolvePending - conditional transition out of pending.
// Expiry only matches once the deadline is reached at `at`.
func (r *TxRepo) ResolvePending(
	ctx context.Context,
	id string,
	to domain.AssignmentStatus,
	at time.Time,
) (*domain.Assignment, error) {
	row := r.tx.QueryRow(ctx, `
        UPDATE assignments
        SET status      = $2::text,
            resolved_at = $3,
            verified_at = CASE WHEN $2::text = 'accepted' THEN $3 ELSE verified_at END
        WHERE id = $1 AND status = 'pending'
          AND ($2::text <> 'expired' OR acceptance_deadline <= $3)
        RETURNING `+assignmentColumns, id, string(to), at)
	a, err := scanAssignment(row)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve assignment %q: %w", id, err)
	}
	return a, nil
}

// IncrementResends - bump the resend counter of a pending assignment.
func (r *TxRepo) IncrementResends(ctx context.Context, id string) error {
	ct, err := r.tx.Exec(ctx, `
        UPDATE assignments SET resend_count = resend_count + 1
        WHERE id = $1 AND status = 'pending'
    `, id)
	if err != nil {
		return fmt.Errorf("increment resends %q: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.ErrAssignmentAlreadyResolved
	}
	return nil
}

func scanAssignment(row pgx.Row) (*domain.Assignment, error) {
	var a domain.Assignment
	err := row.Scan(
		&a.ID, &a.LoadID, &a.DriverID, &a.Status, &a.CreatedAt, &a.AcceptanceDeadline,
		&a.VerifiedAt, &a.ResolvedAt, &a.ResendCount,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
