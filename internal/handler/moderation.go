package handler

import (
	"net/http"

	"github.com/hushcampus-dev/hushcampus/internal/domain"
	"github.com/hushcampus-dev/hushcampus/internal/middleware"
	"github.com/hushcampus-dev/hushcampus/internal/service"
	"github.com/hushcampus-dev/hushcampus/internal/utils"
)

func (h *Handler) ModeratorAction(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	type bodyJson struct {
		CommunityId   string `validate:"required" json:"communityId"`
		Action        string `validate:"required" json:"action"`
		TargetId      string `validate:"required" json:"targetId"`
		Reason        string `validate:"required" json:"reason"`
		DurationHours int    `json:"durationHours"`
	}
	var body bodyJson
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	entry, err := h.modlog.Perform(service.ModerationAction{
		ActorId:       claims.StudentId,
		CommunityId:   body.CommunityId,
		Action:        domain.ModActionType(body.Action),
		TargetId:      body.TargetId,
		Reason:        utils.SanitizeContent(body.Reason),
		DurationHours: body.DurationHours,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, entry)
}

func (h *Handler) ModerationLogEntries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.modlog.Entries())
}
