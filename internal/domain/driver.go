package domain

// Driver represents a carrier's driver.
type Driver struct {
	ID       string
	Phone    string
	Verified bool
	Active   bool
	// BusyAssignmentID is set while the driver holds a pending or accepted offer.
	BusyAssignmentID *string
}

// Eligible reports whether the driver may receive offers at all.
func (d Driver) Eligible() bool {
	return d.Verified && d.Active
}

// Busy reports whether the driver already holds an open assignment.
func (d Driver) Busy() bool {
	return d.BusyAssignmentID != nil
}
