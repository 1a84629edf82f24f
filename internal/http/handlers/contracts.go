package handlers

import (
	"context"

	"loadboard-dispatch/internal/domain"
	"loadboard-dispatch/internal/service/assignment"
)

type assignmentUsecase interface {
	AssignLoad(ctx context.Context, loadID, driverID string) (domain.Assignment, error)
	Accept(ctx context.Context, assignmentID, code string) (domain.Assignment, error)
	Decline(ctx context.Context, assignmentID string) (domain.Assignment, error)
	ResendCode(ctx context.Context, assignmentID string) (domain.Assignment, error)
	Get(ctx context.Context, assignmentID string) (domain.Assignment, error)
}

// NewAssignmentUsecase wires a Coordinator into an assignmentUsecase.
func NewAssignmentUsecase(c *assignment.Coordinator) assignmentUsecase {
	return c
}

type loadUsecase interface {
	UpdateLoadStatus(ctx context.Context, loadID string, status domain.LoadStatus) (domain.Load, error)
}

// NewLoadUsecase wires a Coordinator into a loadUsecase.
func NewLoadUsecase(c *assignment.Coordinator) loadUsecase {
	return c
}
