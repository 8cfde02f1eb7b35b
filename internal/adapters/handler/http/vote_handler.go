package http

import (
	"encoding/json"
	"net/http"

	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
	"github.com/vncsmyrnk/livepoll/internal/platform/apperr"
)

type VoteHandler struct {
	service ports.PollService
}

func NewVoteHandler(service ports.PollService) *VoteHandler {
	return &VoteHandler{
		service: service,
	}
}

type voteRequest struct {
	OptionID int64 `json:"option_id"`
}

// VoteOnPoll godoc
// @Summary      Casts a vote
// @Description  Records the caller's single vote on an active poll and returns the updated results.
// @Tags         votes
// @Accept       json
// @Produce      json
// @Param        id    path      int          true  "Poll id"
// @Param        vote  body      voteRequest  true  "Chosen option"
// @Success      200   {object}  domain.Snapshot
// @Failure      400,401,404,409,429,503
// @Security     BearerAuth
// @Router       /polls/{id}/vote [post]
func (h *VoteHandler) VoteOnPoll(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromCtx(r)
	if !ok {
		errorResponse(w, apperr.Unauthorized("missing_identity", "missing user identity", nil))
		return
	}

	pollID, err := parseIDParam(r)
	if err != nil {
		errorResponse(w, err)
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, apperr.BadRequest("invalid_body", "invalid request body", err))
		return
	}

	poll, err := h.service.Vote(r.Context(), ports.VoteInput{
		PollID:   pollID,
		OptionID: req.OptionID,
		UserID:   identity.UserID,
	})
	if err != nil {
		errorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domain.Aggregate(poll))
}
