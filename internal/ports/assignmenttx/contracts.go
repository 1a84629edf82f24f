package assignmenttx

import (
	"context"
	"time"

	"loadboard-dispatch/internal/domain"
)

// LoadRegistry is the narrow load contract used inside a transaction.
type LoadRegistry interface {
	// LoadForUpdate returns the load and locks it until the transaction ends.
	// A missing load yields (nil, nil).
	LoadForUpdate(ctx context.Context, loadID string) (*domain.Load, error)
	SetLoadStatus(ctx context.Context, loadID string, status domain.LoadStatus) error
}

// DriverRegistry is the narrow driver contract used inside a transaction.
type DriverRegistry interface {
	// DriverForUpdate returns the driver and locks it until the transaction ends.
	// A missing driver yields (nil, nil).
	DriverForUpdate(ctx context.Context, driverID string) (*domain.Driver, error)
	SetDriverBusy(ctx context.Context, driverID string, assignmentID *string) error
	// ReleaseDriverOfLoad clears the busy flag of the driver whose accepted
	// assignment holds loadID. It is a no-op when nobody holds the load.
	ReleaseDriverOfLoad(ctx context.Context, loadID string) error
}

// AssignmentStore persists assignment records.
type AssignmentStore interface {
	InsertAssignment(ctx context.Context, a *domain.Assignment) error
	GetAssignment(ctx context.Context, id string) (*domain.Assignment, error)
	// ResolvePending moves the assignment out of pending if and only if it is
	// still pending. It returns (nil, nil) when another resolution won.
	// A move to expired also requires the deadline to be reached at `at`.
	ResolvePending(ctx context.Context, id string, to domain.AssignmentStatus, at time.Time) (*domain.Assignment, error)
	IncrementResends(ctx context.Context, id string) error
}

// Repository is everything the coordinator may touch inside one transaction.
type Repository interface {
	LoadRegistry
	DriverRegistry
	AssignmentStore
}

// Runner is a transaction runner
type Runner interface {
	WithTx(ctx context.Context, fn func(tx Repository) error) error
	// ListOverdue returns ids of pending assignments whose deadline is before now.
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]string, error)
}
