package notify

import "time"

// Event kinds carried on the notification topic.
const (
	KindCode       = "code"
	KindResolution = "resolution"
)

// Event is a single notification request.
type Event struct {
	Kind         string
	AssignmentID string
	LoadID       string
	DriverID     string
	// Code is set for KindCode only.
	Code     string
	Deadline time.Time
	// Outcome is set for KindResolution only.
	Outcome    string
	OccurredAt time.Time
}
