package apperr

import "errors"

// ErrInvalid is returned when the input fails domain validation.
var ErrInvalid = errors.New("invalid input")

// ErrNotFound indicates that the requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Assignment workflow errors. Each maps to a stable wire kind, see Kind.
var (
	ErrLoadUnavailable            = errors.New("load unavailable")
	ErrDriverIneligible           = errors.New("driver ineligible")
	ErrDriverAlreadyAssigned      = errors.New("driver already assigned")
	ErrAssignmentAlreadyResolved  = errors.New("assignment already resolved")
	ErrAssignmentExpired          = errors.New("assignment expired")
	ErrCodeMismatch               = errors.New("verification code mismatch")
	ErrResendLimitExceeded        = errors.New("resend limit exceeded")
	ErrNotificationDeliveryFailed = errors.New("notification delivery failed")
	ErrInvalidTransition          = errors.New("invalid load status transition")
)

// ErrSchedulerClosed is returned when an expiry timer cannot be armed
// because the scheduler is shutting down.
var ErrSchedulerClosed = errors.New("expiry scheduler closed")

var kinds = []struct {
	err  error
	kind string
}{
	{ErrInvalid, "invalid_input"},
	{ErrNotFound, "not_found"},
	{ErrLoadUnavailable, "load_unavailable"},
	{ErrDriverIneligible, "driver_ineligible"},
	{ErrDriverAlreadyAssigned, "driver_already_assigned"},
	{ErrAssignmentAlreadyResolved, "assignment_already_resolved"},
	{ErrAssignmentExpired, "assignment_expired"},
	{ErrCodeMismatch, "code_mismatch"},
	{ErrResendLimitExceeded, "resend_limit_exceeded"},
	{ErrNotificationDeliveryFailed, "notification_delivery_failed"},
	{ErrInvalidTransition, "invalid_transition"},
}

// Kind returns the wire name of a known error, or "internal".
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}

// IsRaceLoss reports whether err is a routine outcome of losing a race
// against another resolution of the same assignment.
func IsRaceLoss(err error) bool {
	return errors.Is(err, ErrAssignmentAlreadyResolved) || errors.Is(err, ErrAssignmentExpired)
}
