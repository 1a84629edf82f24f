package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"loadboard-dispatch/internal/logx"
)

// LoadHandler serves load lifecycle updates.
type LoadHandler struct {
	usecase loadUsecase
	logger  logx.Logger
}

// NewLoadHandler creates a new LoadHandler.
func NewLoadHandler(logger logx.Logger, uc loadUsecase) *LoadHandler {
	if logger == nil {
		logger = logx.Nop()
	}
	return &LoadHandler{usecase: uc, logger: logger}
}

// UpdateStatus handles POST /loads/{id}/status.
func (h *LoadHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req loadStatusRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	l, err := h.usecase.UpdateLoadStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, loadToResponse(l))
}
