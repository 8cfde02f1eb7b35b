package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
	"github.com/vncsmyrnk/livepoll/internal/platform/apperr"
)

type PollHandler struct {
	service ports.PollService
}

func NewPollHandler(service ports.PollService) *PollHandler {
	return &PollHandler{
		service: service,
	}
}

type createPollRequest struct {
	PollID         int64      `json:"poll_id,omitempty"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Options        []string   `json:"options"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

type votedResponse struct {
	PollID int64 `json:"poll_id"`
	Voted  bool  `json:"voted"`
}

// CreatePoll godoc
// @Summary      Creates a poll
// @Description  Creates an active poll owned by the authenticated user. Options get ids 1..n in the given order.
// @Tags         polls
// @Accept       json
// @Produce      json
// @Param        poll  body      createPollRequest  true  "Poll"
// @Success      201   {object}  domain.Poll
// @Failure      400,401,409
// @Security     BearerAuth
// @Router       /polls [post]
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromCtx(r)
	if !ok {
		errorResponse(w, apperr.Unauthorized("missing_identity", "missing user identity", nil))
		return
	}

	var req createPollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, apperr.BadRequest("invalid_body", "invalid request body", err))
		return
	}

	poll, err := h.service.CreatePoll(r.Context(), ports.CreatePollInput{
		ID:          req.PollID,
		Title:       req.Title,
		Description: req.Description,
		Options:     req.Options,
		ExpiresAt:   req.ExpirationDate,
		Creator:     identity.UserID,
	})
	if err != nil {
		errorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, poll)
}

// ListPolls godoc
// @Summary      Lists polls
// @Tags         polls
// @Produce      json
// @Param        creator  query     string  false  "Creator user id"
// @Param        status   query     string  false  "active, closed or expired"
// @Success      200      {array}   domain.Poll
// @Failure      400
// @Router       /polls [get]
func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	polls, err := h.service.ListPolls(r.Context(), ports.ListPollsInput{
		Creator: q.Get("creator"),
		Status:  domain.Status(q.Get("status")),
	})
	if err != nil {
		errorResponse(w, err)
		return
	}
	if polls == nil {
		polls = []*domain.Poll{}
	}

	writeJSON(w, http.StatusOK, polls)
}

// GetPoll godoc
// @Summary      Gets a poll
// @Tags         polls
// @Produce      json
// @Param        id   path      int  true  "Poll id"
// @Success      200  {object}  domain.Poll
// @Failure      400,404
// @Router       /polls/{id} [get]
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		errorResponse(w, err)
		return
	}

	poll, err := h.service.GetPoll(r.Context(), id)
	if err != nil {
		errorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, poll)
}

// Results godoc
// @Summary      Current results of a poll
// @Description  Vote counts and rounded percentages per option, computed from the stored poll.
// @Tags         polls
// @Produce      json
// @Param        id   path      int  true  "Poll id"
// @Success      200  {object}  domain.Snapshot
// @Failure      400,404
// @Router       /polls/{id}/results [get]
func (h *PollHandler) Results(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		errorResponse(w, err)
		return
	}

	snapshot, err := h.service.Results(r.Context(), id)
	if err != nil {
		errorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

// HasVoted godoc
// @Summary      Whether the caller already voted
// @Tags         polls
// @Produce      json
// @Param        id   path      int  true  "Poll id"
// @Success      200  {object}  votedResponse
// @Failure      400,401,404
// @Security     BearerAuth
// @Router       /polls/{id}/voted [get]
func (h *PollHandler) HasVoted(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromCtx(r)
	if !ok {
		errorResponse(w, apperr.Unauthorized("missing_identity", "missing user identity", nil))
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		errorResponse(w, err)
		return
	}

	voted, err := h.service.HasVoted(r.Context(), id, identity.UserID)
	if err != nil {
		errorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, votedResponse{PollID: id, Voted: voted})
}

// ClosePoll godoc
// @Summary      Closes a poll
// @Description  Only the creator or an administrator may close a poll. Closing a poll that is not active changes nothing.
// @Tags         polls
// @Produce      json
// @Param        id   path      int  true  "Poll id"
// @Success      200  {object}  domain.Poll
// @Failure      400,401,403,404,503
// @Security     BearerAuth
// @Router       /polls/{id}/close [post]
func (h *PollHandler) ClosePoll(w http.ResponseWriter, r *http.Request) {
	h.manage(w, r, h.service.ClosePoll)
}

// ResetPoll godoc
// @Summary      Resets a poll
// @Description  Zeroes every tally, forgets all voters and reopens the poll. Only the creator or an administrator may reset.
// @Tags         polls
// @Produce      json
// @Param        id   path      int  true  "Poll id"
// @Success      200  {object}  domain.Poll
// @Failure      400,401,403,404,503
// @Security     BearerAuth
// @Router       /polls/{id}/reset [post]
func (h *PollHandler) ResetPoll(w http.ResponseWriter, r *http.Request) {
	h.manage(w, r, h.service.ResetPoll)
}

type manageFunc func(ctx context.Context, id int64, requesterID string) (*domain.Poll, error)

func (h *PollHandler) manage(w http.ResponseWriter, r *http.Request, fn manageFunc) {
	identity, ok := identityFromCtx(r)
	if !ok {
		errorResponse(w, apperr.Unauthorized("missing_identity", "missing user identity", nil))
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		errorResponse(w, err)
		return
	}

	poll, err := fn(r.Context(), id, identity.UserID)
	if err != nil {
		errorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, poll)
}

func parseIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidPollID
	}
	return id, nil
}
