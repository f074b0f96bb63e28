package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hushcampus-dev/hushcampus/internal/domain"
	"github.com/hushcampus-dev/hushcampus/internal/errors"
	"github.com/hushcampus-dev/hushcampus/internal/middleware"
	"github.com/hushcampus-dev/hushcampus/internal/service"
	"github.com/hushcampus-dev/hushcampus/internal/utils"
)

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	type bodyJson struct {
		Content     string               `validate:"required" json:"content"`
		Category    string               `json:"category"`
		Lifetime    string               `validate:"required" json:"lifetime"`
		CustomHours int                  `json:"customHours"`
		Encrypted   bool                 `json:"encrypted"`
		Community   *domain.CommunityRef `json:"community"`
	}
	var body bodyJson
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	content := utils.SanitizeContent(body.Content)
	if err := h.content.Text(content); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	post, err := h.store.CreatePost(service.CreatePostInput{
		AuthorId:    claims.StudentId,
		Content:     content,
		Category:    body.Category,
		Lifetime:    domain.Lifetime(body.Lifetime),
		CustomHours: body.CustomHours,
		Encrypted:   body.Encrypted,
		Community:   body.Community,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, post)
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.store.GetPost(chi.URLParam(r, "post"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, post)
}

func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.store.Posts())
}

func (h *Handler) React(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	type bodyJson struct {
		Kind string `validate:"required" json:"kind"`
	}
	var body bodyJson
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	err := h.store.React(chi.URLParam(r, "post"), domain.ReactionKind(body.Kind), claims.StudentId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	type bodyJson struct {
		Content  string            `validate:"required" json:"content"`
		ParentId *domain.CommentId `json:"parentId"`
	}
	var body bodyJson
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	content := utils.SanitizeContent(body.Content)
	if err := h.content.Text(content); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	comment, err := h.store.AddComment(chi.URLParam(r, "post"), claims.StudentId, content, body.ParentId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, comment)
}

func (h *Handler) MarkHelpful(w http.ResponseWriter, r *http.Request) {
	err := h.store.MarkHelpful(chi.URLParam(r, "post"), chi.URLParam(r, "comment"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	type bodyJson struct {
		TargetType  string `validate:"required" json:"targetType"`
		TargetId    string `validate:"required" json:"targetId"`
		ReportType  string `validate:"required" json:"reportType"`
		Description string `json:"description"`
	}
	var body bodyJson
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	report, err := h.store.Report(domain.ReportTargetType(body.TargetType), body.TargetId,
		claims.StudentId, body.ReportType, utils.SanitizeContent(body.Description))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, report)
}

func (h *Handler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	bookmarked, err := h.store.ToggleBookmark(chi.URLParam(r, "post"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, map[string]bool{"bookmarked": bookmarked})
}

func (h *Handler) ExtendLifetime(w http.ResponseWriter, r *http.Request) {
	post, err := h.store.ExtendLifetime(chi.URLParam(r, "post"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	writeJSON(w, post)
}

// DeletePost removes the caller's own post. Moderator removals go through
// the moderation actions endpoint, which audits them.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	post, err := h.store.GetPost(chi.URLParam(r, "post"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if post.AuthorId != claims.StudentId {
		utils.WriteErrorAndStatusCode(w, &errors.PermissionError{Message: "only the author can delete this post"})
		return
	}

	if err := h.store.DeletePost(post.Id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
