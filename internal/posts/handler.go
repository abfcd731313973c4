package posts

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/quillpress/quillpress/internal/platform/httpx"
	"github.com/quillpress/quillpress/internal/rbac"
	"github.com/quillpress/quillpress/internal/shared"
	"github.com/quillpress/quillpress/internal/token"
)

// Handler exposes the post endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	rbac      rbac.Middleware
	tokens    rbac.Verifier
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware, tokens rbac.Verifier) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New(), rbac: rbac, tokens: tokens}
}

// MountPublicRoutes registers the unauthenticated read surface. A bearer
// token, when present and valid, only personalises the isLiked flag.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Get("/", h.search)
	r.Get("/{id}", h.show)
}

// MountRoutes registers the authenticated write surface behind catalog
// grants. There is no ownership gate here: any principal holding the grant
// may edit any post.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.Authorize(shared.ActionCreate, shared.ResourcePost)).Post("/", h.create)
	r.With(h.rbac.Authorize(shared.ActionUpdate, shared.ResourcePost)).Patch("/{id}", h.update)
	r.With(h.rbac.Authorize(shared.ActionRemove, shared.ResourcePost)).Delete("/{id}", h.remove)
	r.With(h.rbac.Authorize(shared.ActionLike, shared.ResourcePost)).Patch("/{id}/like", h.toggleLike)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	opts := shared.ParseListOptions(r)
	posts, meta, err := h.service.Search(r.Context(), opts, h.viewerID(r))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OKWithMeta(w, "Posts fetched successfully", posts, meta)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, shared.InvalidID("id", "Invalid post id"))
		return
	}
	post, err := h.service.Get(r.Context(), id, h.viewerID(r))
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Post fetched successfully", post)
}

type createRequest struct {
	Title      string  `json:"title" validate:"required,min=3,max=200"`
	Content    string  `json:"content" validate:"required"`
	CategoryID int64   `json:"category" validate:"required"`
	PostImage  *string `json:"postImage"`
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
	post, err := h.service.Create(r.Context(), principal.ID, CreateInput{
		CategoryID: req.CategoryID,
		Title:      req.Title,
		Content:    req.Content,
		PostImage:  req.PostImage,
	})
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.Created(w, "Post created successfully", post)
}

type updateRequest struct {
	Title      *string `json:"title" validate:"omitempty,min=3,max=200"`
	Content    *string `json:"content"`
	CategoryID *int64  `json:"category"`
	PostImage  *string `json:"postImage"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, h.logger, shared.Unauthorized("Token is not provided"))
		return
	}
	id, err := parseID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, shared.InvalidID("id", "Invalid post id"))
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
	post, err := h.service.Update(r.Context(), id, principal.ID, UpdateInput{
		CategoryID: req.CategoryID,
		Title:      req.Title,
		Content:    req.Content,
		PostImage:  req.PostImage,
	})
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Post updated successfully", post)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, shared.InvalidID("id", "Invalid post id"))
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Post removed successfully", nil)
}

func (h *Handler) toggleLike(w http.ResponseWriter, r *http.Request) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, h.logger, shared.Unauthorized("Token is not provided"))
		return
	}
	id, err := parseID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, shared.InvalidID("id", "Invalid post id"))
		return
	}
	liked, err := h.service.ToggleLike(r.Context(), id, principal.ID)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	message := "Post liked successfully"
	if !liked {
		message = "Post unliked successfully"
	}
	httpx.OK(w, message, map[string]bool{"isLiked": liked})
}

// viewerID extracts the principal id from an optional bearer token. A missing
// or invalid token degrades to the anonymous view instead of failing.
func (h *Handler) viewerID(r *http.Request) int64 {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return 0
	}
	principal, err := h.tokens.Verify(raw, token.KindAccess)
	if err != nil {
		return 0
	}
	return principal.ID
}

func parseID(r *http.Request, param string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, param), 10, 64)
}
