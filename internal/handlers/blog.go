package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/crucial707/blog/internal/models"
	"github.com/crucial707/blog/internal/pagination"
	"github.com/crucial707/blog/internal/repo"
	"github.com/crucial707/blog/internal/search"
)

// PostStore is the post persistence the handlers rely on. *repo.PostRepo implements it.
type PostStore interface {
	ListPage(ctx context.Context, limit, offset int) ([]models.Post, error)
	Count(ctx context.Context) (int, error)
	GetByID(ctx context.Context, id int) (models.Post, error)
	Create(ctx context.Context, title, body string) (models.Post, error)
	Update(ctx context.Context, id int, title, body string) (models.Post, error)
	Delete(ctx context.Context, id int) error
	Search(ctx context.Context, f search.Filter, limit int) ([]models.Post, error)
}

// DefaultSearchLimit caps search results when SearchLimit is unset.
const DefaultSearchLimit = 50

// ==========================
// Blog Handler (public pages)
// ==========================
type BlogHandler struct {
	Posts       PostStore
	Search      search.Builder
	Render      Renderer
	PageSize    int
	SearchLimit int
}

// listPosts loads one page of posts, newest first.
func listPosts(ctx context.Context, posts PostStore, rawPage string, size int) ([]models.Post, pagination.Page, error) {
	total, err := posts.Count(ctx)
	if err != nil {
		return nil, pagination.Page{}, err
	}
	page := pagination.Paginate(total, pagination.ParsePage(rawPage), size)

	list, err := posts.ListPage(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, page, err
	}
	return list, page, nil
}

// ==========================
// Home (paginated listing)
// ==========================
func (h *BlogHandler) Home(w http.ResponseWriter, r *http.Request) {
	list, page, err := listPosts(r.Context(), h.Posts, r.URL.Query().Get("page"), h.PageSize)
	if err != nil {
		internalError(w, r, "list posts", err)
		return
	}

	h.Render.Render(w, r, http.StatusOK, "index", map[string]any{
		"locals":     locals("Blog"),
		"data":       list,
		"pagination": page,
	})
}

// ==========================
// Single Post
// ==========================
func (h *BlogHandler) Post(w http.ResponseWriter, r *http.Request) {
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

	bodyHTML, err := RenderMarkdown(post.Body)
	if err != nil {
		slog.Warn("render markdown", "post_id", post.ID, "err", err)
	}

	h.Render.Render(w, r, http.StatusOK, "post", map[string]any{
		"locals":        locals(post.Title),
		"data":          post,
		"body_html":     bodyHTML,
		"current_route": "/post/" + strconv.Itoa(post.ID),
	})
}

// ==========================
// Search
// ==========================
func (h *BlogHandler) SearchPosts(w http.ResponseWriter, r *http.Request) {
	var input searchInput
	if err := decodeInput(r, &input); err != nil {
		JSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	limit := h.SearchLimit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	filter := h.Search.Build(input.Term)
	results, err := h.Posts.Search(r.Context(), filter, limit)
	if err != nil {
		internalError(w, r, "search posts", err)
		return
	}

	h.Render.Render(w, r, http.StatusOK, "search", map[string]any{
		"locals": locals("Search"),
		"data":   results,
		"term":   filter.Term,
	})
}

// ==========================
// Static pages
// ==========================
func (h *BlogHandler) About(w http.ResponseWriter, r *http.Request) {
	h.Render.Render(w, r, http.StatusOK, "about", map[string]any{"locals": locals("About")})
}

func (h *BlogHandler) Contact(w http.ResponseWriter, r *http.Request) {
	h.Render.Render(w, r, http.StatusOK, "contact", map[string]any{"locals": locals("Contact")})
}
