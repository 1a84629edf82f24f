package handlers

import "loadboard-dispatch/internal/domain"

func assignmentToResponse(a domain.Assignment) assignmentDTO {
	return assignmentDTO{
		ID:          a.ID,
		LoadID:      a.LoadID,
		DriverID:    a.DriverID,
		Status:      a.Status,
		CreatedAt:   a.CreatedAt,
		Deadline:    a.AcceptanceDeadline,
		VerifiedAt:  a.VerifiedAt,
		ResolvedAt:  a.ResolvedAt,
		ResendCount: a.ResendCount,
	}
}

func loadToResponse(l domain.Load) loadDTO {
	return loadDTO{ID: l.ID, Status: l.Status}
}
