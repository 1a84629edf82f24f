package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"loadboard-dispatch/internal/logx"
)

// AssignmentHandler serves the offer endpoints.
type AssignmentHandler struct {
	usecase assignmentUsecase
	logger  logx.Logger
}

// NewAssignmentHandler creates a new AssignmentHandler.
func NewAssignmentHandler(logger logx.Logger, uc assignmentUsecase) *AssignmentHandler {
	if logger == nil {
		logger = logx.Nop()
	}
	return &AssignmentHandler{usecase: uc, logger: logger}
}

// Create handles POST /assignments.
func (h *AssignmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAssignmentRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	a, err := h.usecase.AssignLoad(r.Context(), req.LoadID, req.DriverID)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	w.Header().Set("Location", "/assignments/"+a.ID)
	writeJSON(h.logger, w, r, http.StatusCreated, createAssignmentResponse{
		AssignmentID: a.ID,
		Deadline:     a.AcceptanceDeadline,
	})
}

// Accept handles POST /assignments/{id}/accept.
func (h *AssignmentHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var req acceptRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	a, err := h.usecase.Accept(r.Context(), chi.URLParam(r, "id"), req.Code)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, assignmentToResponse(a))
}

// Decline handles POST /assignments/{id}/decline.
func (h *AssignmentHandler) Decline(w http.ResponseWriter, r *http.Request) {
	a, err := h.usecase.Decline(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, assignmentToResponse(a))
}

// Resend handles POST /assignments/{id}/resend. The new code goes to the
// driver only, never into the response.
func (h *AssignmentHandler) Resend(w http.ResponseWriter, r *http.Request) {
	a, err := h.usecase.ResendCode(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusAccepted, resendResponse{
		AssignmentID: a.ID,
		Deadline:     a.AcceptanceDeadline,
		ResendCount:  a.ResendCount,
	})
}

// Get handles GET /assignments/{id}.
func (h *AssignmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.usecase.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, assignmentToResponse(a))
}
