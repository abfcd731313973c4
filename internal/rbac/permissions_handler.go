package rbac

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/quillpress/quillpress/internal/platform/httpx"
	"github.com/quillpress/quillpress/internal/shared"
)

// PermissionsHandler exposes the catalog CRUD endpoints.
type PermissionsHandler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	rbac      Middleware
}

// NewPermissionsHandler constructs a PermissionsHandler.
func NewPermissionsHandler(logger *slog.Logger, service *Service, rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{logger: logger, service: service, validator: validator.New(), rbac: rbac}
}

// MountRoutes registers catalog routes. Authentication is applied by the
// router; the authorize gates are per-operation.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.With(h.rbac.Authorize(shared.ActionCreate, shared.ResourcePermission)).Post("/", h.create)
	r.With(h.rbac.Authorize(shared.ActionSearch, shared.ResourcePermission)).Get("/", h.search)
	r.With(h.rbac.Authorize(shared.ActionShow, shared.ResourcePermission)).Get("/{id}", h.show)
	r.With(h.rbac.Authorize(shared.ActionUpdate, shared.ResourcePermission)).Patch("/{id}", h.update)
	r.With(h.rbac.Authorize(shared.ActionRemove, shared.ResourcePermission)).Delete("/{id}", h.remove)
}

type permissionRequest struct {
	Action   string `json:"action" validate:"required"`
	Resource string `json:"resource" validate:"required"`
}

func (h *PermissionsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req permissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, shared.ValidationFailed(map[string][]string{"body": {"Invalid request body"}}))
		return
	}
	if verr := shared.ValidateStruct(h.validator, req); verr != nil {
		httpx.RespondError(w, h.logger, verr)
		return
	}
	perm, err := h.service.CreatePermission(r.Context(), req.Action, req.Resource)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.Created(w, "Permission created successfully", perm)
}

func (h *PermissionsHandler) search(w http.ResponseWriter, r *http.Request) {
	opts := shared.ParseListOptions(r)
	perms, meta, err := h.service.SearchPermissions(r.Context(), opts)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OKWithMeta(w, "Permissions fetched successfully", perms, meta)
}

func (h *PermissionsHandler) show(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, shared.InvalidID("id", "Invalid permission id"))
		return
	}
	perm, err := h.service.GetPermission(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Permission fetched successfully", perm)
}

func (h *PermissionsHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, shared.InvalidID("id", "Invalid permission id"))
		return
	}
	var req permissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, shared.ValidationFailed(map[string][]string{"body": {"Invalid request body"}}))
		return
	}
	if verr := shared.ValidateStruct(h.validator, req); verr != nil {
		httpx.RespondError(w, h.logger, verr)
		return
	}
	perm, err := h.service.UpdatePermission(r.Context(), id, req.Action, req.Resource)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Permission updated successfully", perm)
}

func (h *PermissionsHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, shared.InvalidID("id", "Invalid permission id"))
		return
	}
	if err := h.service.DeletePermission(r.Context(), id); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.OK(w, "Permission removed successfully", nil)
}

func parseID(r *http.Request, param string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, param), 10, 64)
}
