package categories

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

// Handler exposes the category endpoints.
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

// MountPublicRoutes registers the unauthenticated read surface.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Get("/", h.search)
	r.Get("/{id}", h.show)
}

// MountRoutes registers the authenticated write surface.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.Authorize(shared.ActionCreate, shared.ResourceCategory)).Post("/", h.create)
	r.With(h.rbac.Authorize(shared.ActionUpdate, shared.ResourceCategory)).Patch("/{id}", h.update)
	r.With(h.rbac.Authorize(shared.ActionRemove, shared.ResourceCategory)).Delete("/{id}", h.remove)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	opts := shared.ParseListOptions(r)
	cats, meta, err := h.service.Search(r.Context(), opts)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OKWithMeta(w, "Categories fetched successfully", cats, meta)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, shared.InvalidID("id", "Invalid category id"))
		return
	}
	c, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Category fetched successfully", c)
}

type categoryRequest struct {
	Name string `json:"name" validate:"required,min=2,max=50"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, shared.ValidationFailed(map[string][]string{"body": {"Invalid request body"}}))
		return
	}
	if verr := shared.ValidateStruct(h.validator, req); verr != nil {
		httpx.RespondError(w, h.logger, verr)
		return
	}
	c, err := h.service.Create(r.Context(), req.Name)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.Created(w, "Category created successfully", c)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, shared.InvalidID("id", "Invalid category id"))
		return
	}
	var req categoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, shared.ValidationFailed(map[string][]string{"body": {"Invalid request body"}}))
		return
	}
	if verr := shared.ValidateStruct(h.validator, req); verr != nil {
		httpx.RespondError(w, h.logger, verr)
		return
	}
	c, err := h.service.Update(r.Context(), id, req.Name)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Category updated successfully", c)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, shared.InvalidID("id", "Invalid category id"))
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Category removed successfully", nil)
}

func parseID(r *http.Request, param string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, param), 10, 64)
}
