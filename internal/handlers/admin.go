package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/crucial707/blog/internal/metrics"
	"github.com/crucial707/blog/internal/middleware"
	"github.com/crucial707/blog/internal/repo"
)

// AuditLogger records admin actions. *repo.AuditRepo implements it.
type AuditLogger interface {
	Log(ctx context.Context, userID int, action, resourceType string, resourceID int, details string) error
}

// ==========================
// Admin Handler (session required)
// ==========================
type AdminHandler struct {
	Posts    PostStore
	Audit    AuditLogger
	Render   Renderer
	PageSize int
}

// ==========================
// Dashboard
// ==========================
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	list, page, err := listPosts(r.Context(), h.Posts, r.URL.Query().Get("page"), h.PageSize)
	if err != nil {
		internalError(w, r, "list posts", err)
		return
	}

	h.Render.Render(w, r, http.StatusOK, "admin/dashboard", map[string]any{
		"locals":     locals("Dashboard"),
		"data":       list,
		"pagination": page,
	})
}

// ==========================
// Add Post
// ==========================
func (h *AdminHandler) AddPostPage(w http.ResponseWriter, r *http.Request) {
	h.Render.Render(w, r, http.StatusOK, "admin/add-post", map[string]any{"locals": locals("Add Post")})
}

func (h *AdminHandler) AddPost(w http.ResponseWriter, r *http.Request) {
	var input postInput
	if !bindAndValidate(w, r, &input) {
		return
	}

	post, err := h.Posts.Create(r.Context(), input.Title, input.Body)
	if err != nil {
		internalError(w, r, "create post", err)
		return
	}
	h.record(r, "create", post.ID, post.Title)

	if wantsJSON(r) {
		writeJSON(w, http.StatusCreated, post)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// ==========================
// Edit Post
// ==========================
func (h *AdminHandler) EditPostPage(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	post, err := h.Posts.GetByID(r.Context(), id)
	if errors.Is(err, repo.ErrPostNotFound) {
		JSONError(w, "post not found", http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, r, "get post", err)
		return
	}

	h.Render.Render(w, r, http.StatusOK, "admin/edit-post", map[string]any{
		"locals": locals("Edit Post"),
		"data":   post,
	})
}

func (h *AdminHandler) EditPost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	var input postInput
	if !bindAndValidate(w, r, &input) {
		return
	}

	post, err := h.Posts.Update(r.Context(), id, input.Title, input.Body)
	if errors.Is(err, repo.ErrPostNotFound) {
		JSONError(w, "post not found", http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, r, "update post", err)
		return
	}
	h.record(r, "update", post.ID, post.Title)

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, post)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// ==========================
// Delete Post
// ==========================
func (h *AdminHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}

	err := h.Posts.Delete(r.Context(), id)
	if errors.Is(err, repo.ErrPostNotFound) {
		JSONError(w, "post not found", http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, r, "delete post", err)
		return
	}
	h.record(r, "delete", id, "")

	if wantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// record counts the mutation and writes an audit entry. Audit failures are
// logged and never fail the request.
func (h *AdminHandler) record(r *http.Request, action string, id int, details string) {
	metrics.IncPostMutation(action)

	if h.Audit == nil {
		return
	}
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		return
	}
	if err := h.Audit.Log(r.Context(), userID, action, "post", id, details); err != nil {
		slog.Warn("audit log", "action", action, "post_id", id, "err", err)
	}
}

var (
	_ PostStore   = (*repo.PostRepo)(nil)
	_ AuditLogger = (*repo.AuditRepo)(nil)
)
