package domain

import "time"

// AssignmentStatus represents the status of an assignment.
type AssignmentStatus string

// List of possible assignment statuses
const (
	AssignmentPending  AssignmentStatus = "pending"
	AssignmentAccepted AssignmentStatus = "accepted"
	AssignmentDeclined AssignmentStatus = "declined"
	AssignmentExpired  AssignmentStatus = "expired"
	// AssignmentReassigned is reserved for dispatcher-initiated withdrawal, which
	// the coordinator does not perform.
	AssignmentReassigned AssignmentStatus = "reassigned"
)

// Terminal reports whether no transition out of s is allowed.
func (s AssignmentStatus) Terminal() bool {
	return s != AssignmentPending
}

// Assignment binds one load to one driver for a single offer cycle.
type Assignment struct {
	ID                 string
	LoadID             string
	DriverID           string
	Status             AssignmentStatus
	CreatedAt          time.Time
	AcceptanceDeadline time.Time
	VerifiedAt         *time.Time
	ResolvedAt         *time.Time
	ResendCount        int

	// VerificationCode is only populated on the value returned to the caller
	// that issued the code. It is never persisted in plaintext.
	VerificationCode string `json:"-"`
}

// ExpiredAt reports whether the acceptance window has closed at now.
func (a Assignment) ExpiredAt(now time.Time) bool {
	return now.After(a.AcceptanceDeadline)
}

// Resolution describes the single transition of an assignment out of pending.
type Resolution struct {
	AssignmentID string
	LoadID       string
	DriverID     string
	Outcome      AssignmentStatus
	ResolvedAt   time.Time
}

// NeedsReassignment reports whether the load went back to the pool.
func (r Resolution) NeedsReassignment() bool {
	return r.Outcome == AssignmentDeclined || r.Outcome == AssignmentExpired
}
