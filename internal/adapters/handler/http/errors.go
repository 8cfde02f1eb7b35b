package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/platform/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorResponse(w http.ResponseWriter, err error) {
	appErr := mapError(err)
	if appErr.StatusCode() >= http.StatusInternalServerError {
		slogLogger.Error("request failed", "event", "request_failed", "error", err)
	}
	writeJSON(w, appErr.StatusCode(), map[string]string{
		"error":   appErr.Code,
		"message": appErr.Message,
	})
}

func mapError(err error) *apperr.AppError {
	if err == nil {
		return apperr.Internal("internal_error", "internal server error", nil)
	}

	// an AppError anywhere in the chain already carries its response
	var appErr *apperr.AppError
	if !errors.As(err, &appErr) {
		if mapped := domainError(err); mapped != nil {
			return mapped
		}
	}
	return apperr.FromError(err)
}

func domainError(err error) *apperr.AppError {
	switch {
	case errors.Is(err, domain.ErrPollNotFound):
		return apperr.NotFound("poll_not_found", "poll not found", err)
	case errors.Is(err, domain.ErrInvalidPollID):
		return apperr.BadRequest("invalid_poll_id", "invalid poll id", err)
	case errors.Is(err, domain.ErrInvalidPoll):
		return apperr.BadRequest("invalid_poll", err.Error(), err)
	case errors.Is(err, domain.ErrInvalidOption):
		return apperr.BadRequest("invalid_option", "option does not belong to poll", err)
	case errors.Is(err, domain.ErrPollExists):
		return apperr.Conflict("poll_exists", "poll id already in use", err)
	case errors.Is(err, domain.ErrAlreadyVoted):
		return apperr.Conflict("already_voted", "user already voted in this poll", err)
	case errors.Is(err, domain.ErrPollClosed):
		return apperr.Conflict("poll_closed", "poll is closed", err)
	case errors.Is(err, domain.ErrPollExpired):
		return apperr.Conflict("poll_expired", "poll has expired", err)
	case errors.Is(err, domain.ErrUnauthorized):
		return apperr.Forbidden("forbidden", "only the poll creator can do this", err)
	case errors.Is(err, domain.ErrUnavailable):
		return apperr.Unavailable("poll_busy", "poll is busy, try again", err)
	case errors.Is(err, domain.ErrSlowConsumer):
		return apperr.Unavailable("slow_consumer", "live stream fell behind", err)
	case errors.Is(err, domain.ErrBroadcasterClosed):
		return apperr.Unavailable("shutting_down", "server is shutting down", err)
	default:
		return nil
	}
}
