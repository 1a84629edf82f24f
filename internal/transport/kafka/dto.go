package kafka

import (
	"strings"
	"time"

	"loadboard-dispatch/internal/service/notify"
)

// NotificationDTO is the wire form of notify.Event
type NotificationDTO struct {
	Kind         string    `json:"kind"`
	AssignmentID string    `json:"assignment_id"`
	LoadID       string    `json:"load_id"`
	DriverID     string    `json:"driver_id"`
	Code         string    `json:"code,omitempty"`
	Deadline     time.Time `json:"deadline"`
	Outcome      string    `json:"outcome,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// ToDomain converts NotificationDTO to notify.Event
func ToDomain(dto NotificationDTO) notify.Event {
	return notify.Event{
		Kind:         strings.TrimSpace(dto.Kind),
		AssignmentID: strings.TrimSpace(dto.AssignmentID),
		LoadID:       strings.TrimSpace(dto.LoadID),
		DriverID:     strings.TrimSpace(dto.DriverID),
		Code:         strings.TrimSpace(dto.Code),
		Deadline:     dto.Deadline,
		Outcome:      strings.TrimSpace(dto.Outcome),
		OccurredAt:   dto.OccurredAt,
	}
}

// FromDomain converts notify.Event to NotificationDTO
func FromDomain(e notify.Event) NotificationDTO {
	return NotificationDTO{
		Kind:         e.Kind,
		AssignmentID: e.AssignmentID,
		LoadID:       e.LoadID,
		DriverID:     e.DriverID,
		Code:         e.Code,
		Deadline:     e.Deadline,
		Outcome:      e.Outcome,
		OccurredAt:   e.OccurredAt,
	}
}
