package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/upb/blog-api/repositories"
	"github.com/upb/blog-api/services"
	"github.com/upb/blog-api/utils"
	"go.uber.org/zap"
)

// CreatePostRequest is the body of POST /posts
type CreatePostRequest struct {
	Title   string `json:"title" validate:"required,notblank,min=5,max=200"`
	Content string `json:"content" validate:"required,notblank,min=10"`
}

// UpdatePostRequest is the body of PUT /posts/{id}. Omitted fields are kept.
type UpdatePostRequest struct {
	Title   *string `json:"title" validate:"omitempty,notblank,min=5,max=200"`
	Content *string `json:"content" validate:"omitempty,notblank,min=10"`
}

// PostHandler serves post CRUD
type PostHandler struct {
	posts  *services.PostService
	logger *zap.Logger
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(posts *services.PostService, logger *zap.Logger) *PostHandler {
	return &PostHandler{posts: posts, logger: logger}
}

// HandleList handles GET /posts?page&page_size&author_id&is_published
func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, ok := pagination(w, r, h.logger)
	if !ok {
		return
	}

	filter, err := parsePostFilter(r)
	if err != nil {
		HandleRequestError(w, err, h.logger)
		return
	}

	result, err := h.posts.List(r.Context(), filter, page)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeLogged(h.logger, utils.WriteOK(w, result))
}

// HandleGet handles GET /posts/{id}. Each read counts as a view.
func (h *PostHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}

	post, err := h.posts.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeLogged(h.logger, utils.WriteOK(w, post))
}

// HandleCreate handles POST /posts
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}

	var req CreatePostRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	post, err := h.posts.Create(r.Context(), principal, services.CreatePostInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeLogged(h.logger, utils.WriteCreated(w, "Post created successfully", post))
}

// HandleUpdate handles PUT /posts/{id}
func (h *PostHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}

	var req UpdatePostRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	post, err := h.posts.Update(r.Context(), principal, id, services.UpdatePostInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeLogged(h.logger, utils.WriteOKMessage(w, "Post updated successfully", post))
}

// HandleDelete handles DELETE /posts/{id}
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.posts.Delete(r.Context(), principal, id); err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}

// HandlePublish handles POST /posts/{id}/publish
func (h *PostHandler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}

	if _, err := h.posts.Publish(r.Context(), principal, id); err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeLogged(h.logger, utils.WriteOKMessage(w, "Post published successfully", nil))
}

func parsePostFilter(r *http.Request) (repositories.PostFilter, error) {
	var filter repositories.PostFilter
	q := r.URL.Query()

	if raw := q.Get("author_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, &utils.QueryError{Field: "author_id", Message: "author_id must be a UUID"}
		}
		filter.AuthorID = &id
	}

	if raw := q.Get("is_published"); raw != "" {
		published, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, &utils.QueryError{Field: "is_published", Message: "is_published must be a boolean"}
		}
		filter.IsPublished = &published
	}

	return filter, nil
}
