package roles

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

// Handler exposes the role management endpoints.
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

// MountRoutes registers role routes behind their catalog grants.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.Authorize(shared.ActionCreate, shared.ResourceRole)).Post("/", h.create)
	r.With(h.rbac.Authorize(shared.ActionSearch, shared.ResourceRole)).Get("/", h.search)
	r.With(h.rbac.Authorize(shared.ActionShow, shared.ResourceRole)).Get("/{id}", h.show)
	r.With(h.rbac.Authorize(shared.ActionUpdate, shared.ResourceRole)).Patch("/{id}", h.update)
	r.With(h.rbac.Authorize(shared.ActionRemove, shared.ResourceRole)).Delete("/{id}", h.remove)
}

type createRequest struct {
	Name          string  `json:"name" validate:"required,min=2,max=50"`
	PermissionIDs []int64 `json:"permissions"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, shared.ValidationFailed(map[string][]string{"body": {"Invalid request body"}}))
		return
	}
	if verr := shared.ValidateStruct(h.validator, req); verr != nil {
		httpx.RespondError(w, h.logger, verr)
		return
	}
	role, err := h.service.Create(r.Context(), req.Name, req.PermissionIDs)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.Created(w, "Role created successfully", role)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	opts := shared.ParseListOptions(r)
	roles, meta, err := h.service.Search(r.Context(), opts)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OKWithMeta(w, "Roles fetched successfully", roles, meta)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, shared.InvalidID("id", "Invalid role id"))
		return
	}
	role, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Role fetched successfully", role)
}

type updateRequest struct {
	Name          *string `json:"name" validate:"omitempty,min=2,max=50"`
	PermissionIDs []int64 `json:"permissions"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, shared.InvalidID("id", "Invalid role id"))
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
	role, err := h.service.Update(r.Context(), id, req.Name, req.PermissionIDs)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Role updated successfully", role)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, shared.InvalidID("id", "Invalid role id"))
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Role removed successfully", nil)
}

func parseID(r *http.Request, param string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, param), 10, 64)
}
