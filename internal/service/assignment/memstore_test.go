package assignment

import (
	"context"
	"sort"
	"sync"
	"time"

	"loadboard-dispatch/internal/apperr"
	"loadboard-dispatch/internal/domain"
	"loadboard-dispatch/internal/ports/assignmenttx"
)

// memStore is a serializable in-memory stand-in for the Postgres repository.
// Each WithTx works on a copy that is swapped in only on success.
type memStore struct {
	mu          sync.Mutex
	loads       map[string]domain.Load
	drivers     map[string]domain.Driver
	assignments map[string]domain.Assignment
	txFail      error
}

func newMemStore() *memStore {
	return &memStore{
		loads:       map[string]domain.Load{},
		drivers:     map[string]domain.Driver{},
		assignments: map[string]domain.Assignment{},
	}
}

func (m *memStore) addLoad(id string, status domain.LoadStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads[id] = domain.Load{ID: id, Status: status}
}

func (m *memStore) addDriver(id string, verified, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[id] = domain.Driver{ID: id, Phone: "+1555" + id, Verified: verified, Active: active}
}

func (m *memStore) load(id string) domain.Load {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads[id]
}

func (m *memStore) driver(id string) domain.Driver {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drivers[id]
}

func (m *memStore) assignment(id string) domain.Assignment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.assignments[id]
}

func (m *memStore) WithTx(_ context.Context, fn func(tx assignmenttx.Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{
		loads:       make(map[string]domain.Load, len(m.loads)),
		drivers:     make(map[string]domain.Driver, len(m.drivers)),
		assignments: make(map[string]domain.Assignment, len(m.assignments)),
	}
	for k, v := range m.loads {
		tx.loads[k] = v
	}
	for k, v := range m.drivers {
		tx.drivers[k] = v
	}
	for k, v := range m.assignments {
		tx.assignments[k] = v
	}

	if err := fn(tx); err != nil {
		return err
	}
	if m.txFail != nil {
		return m.txFail
	}
	m.loads, m.drivers, m.assignments = tx.loads, tx.drivers, tx.assignments
	return nil
}

func (m *memStore) ListOverdue(_ context.Context, now time.Time, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var overdue []domain.Assignment
	for _, a := range m.assignments {
		if a.Status == domain.AssignmentPending && a.AcceptanceDeadline.Before(now) {
			overdue = append(overdue, a)
		}
	}
	sort.Slice(overdue, func(i, j int) bool {
		return overdue[i].AcceptanceDeadline.Before(overdue[j].AcceptanceDeadline)
	})
	ids := make([]string, 0, len(overdue))
	for i, a := range overdue {
		if i == limit {
			break
		}
		ids = append(ids, a.ID)
	}
	return ids, nil
}

type memTx struct {
	loads       map[string]domain.Load
	drivers     map[string]domain.Driver
	assignments map[string]domain.Assignment
}

func (t *memTx) LoadForUpdate(_ context.Context, id string) (*domain.Load, error) {
	l, ok := t.loads[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (t *memTx) SetLoadStatus(_ context.Context, id string, status domain.LoadStatus) error {
	l, ok := t.loads[id]
	if !ok {
		return apperr.ErrNotFound
	}
	l.Status = status
	t.loads[id] = l
	return nil
}

func (t *memTx) DriverForUpdate(_ context.Context, id string) (*domain.Driver, error) {
	d, ok := t.drivers[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (t *memTx) SetDriverBusy(_ context.Context, id string, assignmentID *string) error {
	d, ok := t.drivers[id]
	if !ok {
		return apperr.ErrNotFound
	}
	d.BusyAssignmentID = assignmentID
	t.drivers[id] = d
	return nil
}

func (t *memTx) ReleaseDriverOfLoad(_ context.Context, loadID string) error {
	for _, a := range t.assignments {
		if a.LoadID != loadID || a.Status != domain.AssignmentAccepted {
			continue
		}
		d := t.drivers[a.DriverID]
		if d.BusyAssignmentID != nil && *d.BusyAssignmentID == a.ID {
			d.BusyAssignmentID = nil
			t.drivers[a.DriverID] = d
		}
	}
	return nil
}

func (t *memTx) InsertAssignment(_ context.Context, a *domain.Assignment) error {
	for _, other := range t.assignments {
		if other.Status != domain.AssignmentPending {
			continue
		}
		if other.LoadID == a.LoadID {
			return apperr.ErrLoadUnavailable
		}
		if other.DriverID == a.DriverID {
			return apperr.ErrDriverAlreadyAssigned
		}
	}
	cp := *a
	cp.VerificationCode = ""
	t.assignments[a.ID] = cp
	return nil
}

func (t *memTx) GetAssignment(_ context.Context, id string) (*domain.Assignment, error) {
	a, ok := t.assignments[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (t *memTx) ResolvePending(_ context.Context, id string, to domain.AssignmentStatus, at time.Time) (*domain.Assignment, error) {
	a, ok := t.assignments[id]
	if !ok || a.Status != domain.AssignmentPending {
		return nil, nil
	}
	if to == domain.AssignmentExpired && at.Before(a.AcceptanceDeadline) {
		return nil, nil
	}
	a.Status = to
	a.ResolvedAt = &at
	if to == domain.AssignmentAccepted {
		a.VerifiedAt = &at
	}
	t.assignments[id] = a
	return &a, nil
}

func (t *memTx) IncrementResends(_ context.Context, id string) error {
	a, ok := t.assignments[id]
	if !ok || a.Status != domain.AssignmentPending {
		return apperr.ErrAssignmentAlreadyResolved
	}
	a.ResendCount++
	t.assignments[id] = a
	return nil
}

var (
	_ assignmenttx.Runner     = (*memStore)(nil)
	_ assignmenttx.Repository = (*memTx)(nil)
)
