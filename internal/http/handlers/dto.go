package handlers

import (
	"time"

	"loadboard-dispatch/internal/domain"
)

type createAssignmentRequest struct {
	LoadID   string `json:"load_id"`
	DriverID string `json:"driver_id"`
}

type createAssignmentResponse struct {
	AssignmentID string    `json:"assignment_id"`
	Deadline     time.Time `json:"deadline"`
}

type acceptRequest struct {
	Code string `json:"code"`
}

type resendResponse struct {
	AssignmentID string    `json:"assignment_id"`
	Deadline     time.Time `json:"deadline"`
	ResendCount  int       `json:"resend_count"`
}

type assignmentDTO struct {
	ID          string                  `json:"assignment_id"`
	LoadID      string                  `json:"load_id"`
	DriverID    string                  `json:"driver_id"`
	Status      domain.AssignmentStatus `json:"status"`
	CreatedAt   time.Time               `json:"created_at"`
	Deadline    time.Time               `json:"deadline"`
	VerifiedAt  *time.Time              `json:"verified_at,omitempty"`
	ResolvedAt  *time.Time              `json:"resolved_at,omitempty"`
	ResendCount int                     `json:"resend_count"`
}

type loadStatusRequest struct {
	Status domain.LoadStatus `json:"status"`
}

type loadDTO struct {
	ID     string            `json:"load_id"`
	Status domain.LoadStatus `json:"status"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
