package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"loadboard-dispatch/internal/apperr"
	"loadboard-dispatch/internal/logx"
)

const bodyLimit = 1 << 20

// offerGone is shown to drivers whether they lost the race or ran out of time.
const offerGone = "offer no longer available"

func reqID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return "-"
}

func writeJSON(logger logx.Logger, w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil && logger != nil {
		logger.Warn("json encode failed",
			logx.String("request_id", reqID(r.Context())),
			logx.Err(err),
		)
	}
}

func writeError(logger logx.Logger, w http.ResponseWriter, r *http.Request, status int, kind, msg string) {
	if logger != nil {
		logger.Debug("http error",
			logx.String("request_id", reqID(r.Context())),
			logx.Int("status", status),
			logx.String("kind", kind),
			logx.String("msg", msg),
		)
	}
	writeJSON(logger, w, r, status, ErrorResponse{Error: kind, Message: msg})
}

// writeAppError maps err to a status code. Unknown errors become 500 and are
// logged at error level.
func writeAppError(logger logx.Logger, w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	kind := apperr.Kind(err)
	if status == http.StatusInternalServerError {
		if logger != nil {
			logger.Error("request failed",
				logx.String("request_id", reqID(r.Context())),
				logx.String("method", r.Method),
				logx.String("path", r.URL.Path),
				logx.Err(err),
			)
		}
		writeError(logger, w, r, status, kind, "internal error")
		return
	}
	writeError(logger, w, r, status, kind, messageFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrLoadUnavailable),
		errors.Is(err, apperr.ErrDriverIneligible),
		errors.Is(err, apperr.ErrDriverAlreadyAssigned),
		errors.Is(err, apperr.ErrAssignmentAlreadyResolved),
		errors.Is(err, apperr.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrAssignmentExpired):
		return http.StatusGone
	case errors.Is(err, apperr.ErrCodeMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrResendLimitExceeded):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error) string {
	if apperr.IsRaceLoss(err) {
		return offerGone
	}
	switch {
	case errors.Is(err, apperr.ErrCodeMismatch):
		return "verification code does not match"
	case errors.Is(err, apperr.ErrResendLimitExceeded):
		return "no more codes can be sent for this offer"
	case errors.Is(err, apperr.ErrNotFound):
		return "not found"
	case errors.Is(err, apperr.ErrInvalid):
		return "invalid input"
	}
	return strings.ReplaceAll(apperr.Kind(err), "_", " ")
}

func decodeJSON[T any](logger logx.Logger, w http.ResponseWriter, r *http.Request, dst *T) bool {
	r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeError(logger, w, r, http.StatusBadRequest, "invalid_input", "invalid json")
		return false
	}
	if err := dec.Decode(new(struct{})); err != io.EOF {
		writeError(logger, w, r, http.StatusBadRequest, "invalid_input", "invalid json: trailing data")
		return false
	}
	return true
}
