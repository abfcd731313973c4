package comments

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/quillpress/quillpress/internal/platform/httpx"
	"github.com/quillpress/quillpress/internal/rbac"
	"github.com/quillpress/quillpress/internal/shared"
)

// Handler exposes the comment endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	rbac      rbac.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New(), rbac: rbac}
}

// MountPostRoutes registers the public per-post listing. The route nests
// under /posts/{id}.
func (h *Handler) MountPostRoutes(r chi.Router) {
	r.Get("/{id}/comments", h.listByPost)
}

// MountRoutes registers the authenticated comment surface. Update and remove
// are ownership-scoped on top of their catalog grants.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.Authorize(shared.ActionSearch, shared.ResourceComment)).Get("/", h.search)
	r.With(h.rbac.Authorize(shared.ActionCreate, shared.ResourceComment)).Post("/", h.create)
	r.With(h.rbac.Authorize(shared.ActionShow, shared.ResourceComment)).Get("/{id}", h.show)
	r.With(h.rbac.Authorize(shared.ActionUpdate, shared.ResourceComment), h.rbac.RequireOwner("id", h.service.OwnerID)).Patch("/{id}", h.update)
	r.With(h.rbac.Authorize(shared.ActionRemove, shared.ResourceComment), h.rbac.RequireOwner("id", h.service.OwnerID)).Delete("/{id}", h.remove)
}

func (h *Handler) listByPost(w http.ResponseWriter, r *http.Request) {
	postID, err := parseID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, shared.InvalidID("id", "Invalid post id"))
		return
	}
	opts := shared.ParseListOptions(r)
	comments, meta, err := h.service.ListByPost(r.Context(), postID, opts)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OKWithMeta(w, "Comments fetched successfully", comments, meta)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	opts := shared.ParseListOptions(r)
	comments, meta, err := h.service.Search(r.Context(), opts)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OKWithMeta(w, "Comments fetched successfully", comments, meta)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, shared.InvalidID("id", "Invalid comment id"))
		return
	}
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Comment fetched successfully", c)
}

type createRequest struct {
	PostID  int64  `json:"post" validate:"required"`
	Content string `json:"content" validate:"required,max=2000"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, h.logger, shared.Unauthorized("Token is not provided"))
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, shared.ValidationFailed(map[string][]string{"body": {"Invalid request body"}}))
		return
	}
	if verr := shared.ValidateStruct(h.validator, req); verr != nil {
		httpx.RespondError(w, h.logger, verr)
		return
	}
	c, err := h.service.Create(r.Context(), req.PostID, principal.ID, req.Content)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.Created(w, "Comment created successfully", c)
}

type updateRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, shared.InvalidID("id", "Invalid comment id"))
		return
	}
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, shared.ValidationFailed(map[string][]string{"body": {"Invalid request body"}}))
		return
	}
	if verr := shared.ValidateStruct(h.validator, req); verr != nil {
		httpx.RespondError(w, h.logger, verr)
		return
	}
	c, err := h.service.Update(r.Context(), id, req.Content)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Comment updated successfully", c)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, shared.InvalidID("id", "Invalid comment id"))
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Comment removed successfully", nil)
}

func parseID(r *http.Request, param string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, param), 10, 64)
}
