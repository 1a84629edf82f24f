package domain

// LoadStatus represents the lifecycle status of a load.
type LoadStatus string

// List of possible load statuses
const (
	LoadAvailable         LoadStatus = "available"
	LoadPendingAcceptance LoadStatus = "pending_acceptance"
	LoadAssigned          LoadStatus = "assigned"
	LoadInTransit         LoadStatus = "in_transit"
	LoadDelivered         LoadStatus = "delivered"
	LoadCancelled         LoadStatus = "cancelled"
)

var allowedLoadStatuses = [...]LoadStatus{
	LoadAvailable, LoadPendingAcceptance, LoadAssigned, LoadInTransit, LoadDelivered, LoadCancelled,
}

// Valid checks if the LoadStatus is valid
func (s LoadStatus) Valid() bool {
	for _, v := range allowedLoadStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// loadTransitions lists lifecycle moves that happen after an offer was accepted,
// or a cancellation of a load nobody holds. Moves into and out of
// pending_acceptance belong to the assignment workflow and are not listed.
var loadTransitions = map[LoadStatus][]LoadStatus{
	LoadAvailable: {LoadCancelled},
	LoadAssigned:  {LoadInTransit, LoadCancelled},
	LoadInTransit: {LoadDelivered, LoadCancelled},
}

// CanAdvance reports whether a load may move from s to next outside of the
// offer/accept cycle.
func (s LoadStatus) CanAdvance(next LoadStatus) bool {
	for _, v := range loadTransitions[s] {
		if v == next {
			return true
		}
	}
	return false
}

// ReleasesDriver reports whether reaching s frees the driver holding the load.
func (s LoadStatus) ReleasesDriver() bool {
	return s == LoadDelivered || s == LoadCancelled
}

// Load is a shipment as seen by the assignment workflow.
type Load struct {
	ID     string
	Status LoadStatus
}
