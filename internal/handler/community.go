package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hushcampus-dev/hushcampus/internal/domain"
	"github.com/hushcampus-dev/hushcampus/internal/middleware"
	"github.com/hushcampus-dev/hushcampus/internal/utils"
)

func (h *Handler) ListCommunities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.store.Communities())
}

func (h *Handler) JoinCommunity(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	membership, err := h.store.JoinCommunity(chi.URLParam(r, "community"), claims.StudentId, domain.RoleMember)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, membership)
}

func (h *Handler) MarkCommunityRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.store.MarkCommunityRead(chi.URLParam(r, "community"), claims.StudentId); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) SetChannelMute(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	type bodyJson struct {
		Muted *bool `validate:"required" json:"muted"`
	}
	var body bodyJson
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	h.store.SetChannelMuted(chi.URLParam(r, "community"), claims.StudentId,
		chi.URLParam(r, "channel"), *body.Muted)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) UpdateNotificationSettings(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	type bodyJson struct {
		MuteAll          bool                      `json:"muteAll"`
		NotifyOnPost     bool                      `json:"notifyOnPost"`
		NotifyOnMention  bool                      `json:"notifyOnMention"`
		NotifyOnReply    bool                      `json:"notifyOnReply"`
		ChannelOverrides map[domain.ChannelId]bool `json:"channelOverrides"`
	}
	var body bodyJson
	if err := utils.Decode(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	h.store.UpdateNotificationSettings(domain.NotificationSettings{
		CommunityId:      chi.URLParam(r, "community"),
		StudentId:        claims.StudentId,
		MuteAll:          body.MuteAll,
		NotifyOnPost:     body.NotifyOnPost,
		NotifyOnMention:  body.NotifyOnMention,
		NotifyOnReply:    body.NotifyOnReply,
		ChannelOverrides: body.ChannelOverrides,
	})
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.store.Notifications())
}
