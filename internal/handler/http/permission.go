package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crudkit/identity/internal/service"
	"github.com/crudkit/identity/pkg/httputil"
)

// PermissionHandler handles HTTP requests for permission administration.
type PermissionHandler struct {
	service *service.PermissionService
	logger  *slog.Logger
}

// NewPermissionHandler creates a new permission HTTP handler.
func NewPermissionHandler(svc *service.PermissionService, logger *slog.Logger) *PermissionHandler {
	return &PermissionHandler{service: svc, logger: logger}
}

// CreatePermissionRequest is the JSON request body for creating a permission.
type CreatePermissionRequest struct {
	Name        string `json:"name" validate:"required,min=3,max=128"`
	Description string `json:"description" validate:"max=255"`
}

// CreatePermissionBatchRequest is the JSON request body for creating several
// permissions in one call.
type CreatePermissionBatchRequest struct {
	Permissions []CreatePermissionRequest `json:"permissions" validate:"required,min=1,max=100,dive"`
}

// UpdatePermissionRequest is the JSON request body for updating a permission.
type UpdatePermissionRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=3,max=128"`
	Description *string `json:"description" validate:"omitempty,max=255"`
	Active      *bool   `json:"active"`
}

// Create handles POST /api/v1/permissions
func (h *PermissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePermissionRequest
	if !decode(w, r, &req) {
		return
	}

	perm, err := h.service.Create(r.Context(), service.CreatePermissionInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: perm})
}

// CreateBatch handles POST /api/v1/permissions/batch
func (h *PermissionHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req CreatePermissionBatchRequest
	if !decode(w, r, &req) {
		return
	}

	inputs := make([]service.CreatePermissionInput, len(req.Permissions))
	for i, p := range req.Permissions {
		inputs[i] = service.CreatePermissionInput{
			Name:        p.Name,
			Description: p.Description,
		}
	}

	perms, err := h.service.CreateBatch(r.Context(), inputs)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: perms})
}

// List handles GET /api/v1/permissions
func (h *PermissionHandler) List(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: perms})
}

// Get handles GET /api/v1/permissions/{id}
func (h *PermissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	perm, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: perm})
}

// Update handles PUT /api/v1/permissions/{id}
func (h *PermissionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdatePermissionRequest
	if !decode(w, r, &req) {
		return
	}

	perm, err := h.service.Update(r.Context(), id, service.UpdatePermissionInput{
		Name:        req.Name,
		Description: req.Description,
		Active:      req.Active,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: perm})
}

// Delete handles DELETE /api/v1/permissions/{id}
func (h *PermissionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
