// Package management implements the `/management/v1/...` CRUD surface
// for projects and warehouses (spec.md §6), following the same
// Handler-struct-plus-Register(rg) shape as internal/api/catalog, built
// from the teacher's internal/api/handlers/tenant.go request/response
// conventions.
package management

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lakekeeper/lakekeeper/internal/api/catalog"
	"github.com/lakekeeper/lakekeeper/internal/catalog/authz"
	"github.com/lakekeeper/lakekeeper/internal/catalog/model"
	"github.com/lakekeeper/lakekeeper/internal/catalog/store"
	"github.com/lakekeeper/lakekeeper/internal/catalogerr"
)

// Handler serves the project/warehouse management endpoints over the
// Catalog Store (C1) directly — there is no separate management-domain
// repository, since store.Store already owns this entity tree.
type Handler struct {
	store  store.Store
	authz  *authz.Engine
	logger *slog.Logger
}

// NewHandler wires a Handler's collaborators.
func NewHandler(st store.Store, az *authz.Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: st, authz: az, logger: logger.With("component", "management-api")}
}

// Register adds the management routes to rg.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/v1/projects", h.CreateProject)
	rg.GET("/v1/projects", h.ListProjects)
	rg.GET("/v1/projects/:projectId", h.GetProject)
	rg.DELETE("/v1/projects/:projectId", h.DeleteProject)

	rg.POST("/v1/projects/:projectId/warehouses", h.CreateWarehouse)
	rg.GET("/v1/projects/:projectId/warehouses", h.ListWarehouses)
	rg.GET("/v1/warehouses/:warehouseId", h.GetWarehouse)
	rg.POST("/v1/warehouses/:warehouseId/rename", h.RenameWarehouse)
	rg.DELETE("/v1/warehouses/:warehouseId", h.DeleteWarehouse)
}

type createProjectRequest struct {
	Name       string            `json:"project-name" binding:"required"`
	Properties map[string]string `json:"properties"`
}

type projectResponse struct {
	ID         model.ProjectID   `json:"project-id"`
	Name       string            `json:"project-name"`
	Properties map[string]string `json:"properties,omitempty"`
}

func toProjectResponse(p *model.Project) projectResponse {
	return projectResponse{ID: p.ID, Name: p.Name, Properties: p.Properties}
}

// CreateProject answers POST /management/v1/projects.
func (h *Handler) CreateProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		catalog.RespondErr(c, catalogerr.InvalidRequest("invalid request body: %v", err))
		return
	}
	principal := catalog.PrincipalFrom(c)
	if err := h.authz.AuthorizeResource(c.Request.Context(), principal, "CreateProject", authz.Resource{Type: authz.EntityServer}); err != nil {
		catalog.RespondErr(c, err)
		return
	}
	p := &model.Project{ID: uuid.New(), Name: req.Name, Properties: req.Properties}
	if err := h.store.CreateProject(c.Request.Context(), p); err != nil {
		catalog.RespondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProjectResponse(p))
}

// GetProject answers GET /management/v1/projects/{projectId}.
func (h *Handler) GetProject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		catalog.RespondErr(c, catalogerr.InvalidRequest("malformed project id: %v", err))
		return
	}
	principal := catalog.PrincipalFrom(c)
	if err := h.authz.AuthorizeResource(c.Request.Context(), principal, "ReadProject", authz.Resource{Type: authz.EntityProject, ID: id}); err != nil {
		catalog.RespondErr(c, err)
		return
	}
	p, err := h.store.GetProject(c.Request.Context(), id)
	if err != nil {
		catalog.RespondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, toProjectResponse(p))
}

// ListProjects answers GET /management/v1/projects.
func (h *Handler) ListProjects(c *gin.Context) {
	principal := catalog.PrincipalFrom(c)
	if err := h.authz.AuthorizeResource(c.Request.Context(), principal, "ListProjects", authz.Resource{Type: authz.EntityServer}); err != nil {
		catalog.RespondErr(c, err)
		return
	}
	page, err := h.store.ListProjects(c.Request.Context(), store.ListOptions{Cursor: c.Query("pageToken"), PageSize: 100})
	if err != nil {
		catalog.RespondErr(c, err)
		return
	}
	out := make([]projectResponse, 0, len(page.Items))
	for _, p := range page.Items {
		out = append(out, toProjectResponse(&p))
	}
	c.JSON(http.StatusOK, gin.H{"projects": out, "next-page-token": page.NextCursor})
}

// DeleteProject answers DELETE /management/v1/projects/{projectId}.
func (h *Handler) DeleteProject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		catalog.RespondErr(c, catalogerr.InvalidRequest("malformed project id: %v", err))
		return
	}
	principal := catalog.PrincipalFrom(c)
	if err := h.authz.AuthorizeResource(c.Request.Context(), principal, "DeleteProject", authz.Resource{Type: authz.EntityProject, ID: id}); err != nil {
		catalog.RespondErr(c, err)
		return
	}
	if err := h.store.DeleteProject(c.Request.Context(), id); err != nil {
		catalog.RespondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type createWarehouseRequest struct {
	Name       string               `json:"warehouse-name" binding:"required"`
	Storage    model.StorageProfile `json:"storage-profile"`
	Credential model.StorageCredentialRef `json:"storage-credential"`
	Delete     model.DeleteProfile `json:"delete-profile"`
	Properties map[string]string   `json:"properties"`
}

type warehouseResponse struct {
	ID         model.WarehouseID      `json:"warehouse-id"`
	ProjectID  model.ProjectID        `json:"project-id"`
	Name       string                 `json:"warehouse-name"`
	Status     model.WarehouseStatus  `json:"status"`
	Properties map[string]string      `json:"properties,omitempty"`
}

func toWarehouseResponse(w *model.Warehouse) warehouseResponse {
	return warehouseResponse{ID: w.ID, ProjectID: w.ProjectID, Name: w.Name, Status: w.Status, Properties: w.Properties}
}

// CreateWarehouse answers POST /management/v1/projects/{projectId}/warehouses.
func (h *Handler) CreateWarehouse(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		catalog.RespondErr(c, catalogerr.InvalidRequest("malformed project id: %v", err))
		return
	}
	var req createWarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		catalog.RespondErr(c, catalogerr.InvalidRequest("invalid request body: %v", err))
		return
	}
	principal := catalog.PrincipalFrom(c)
	if err := h.authz.AuthorizeResource(c.Request.Context(), principal, "CreateWarehouse", authz.Resource{Type: authz.EntityProject, ID: projectID}); err != nil {
		catalog.RespondErr(c, err)
		return
	}
	w := &model.Warehouse{
		ID: uuid.New(), ProjectID: projectID, Name: req.Name, Status: model.WarehouseActive,
		Storage: req.Storage, Credential: req.Credential, Delete: req.Delete, Properties: req.Properties,
	}
	if err := h.store.CreateWarehouse(c.Request.Context(), w); err != nil {
		catalog.RespondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, toWarehouseResponse(w))
}

// GetWarehouse answers GET /management/v1/warehouses/{warehouseId}.
func (h *Handler) GetWarehouse(c *gin.Context) {
	id, err := uuid.Parse(c.Param("warehouseId"))
	if err != nil {
		catalog.RespondErr(c, catalogerr.InvalidRequest("malformed warehouse id: %v", err))
		return
	}
	principal := catalog.PrincipalFrom(c)
	if err := h.authz.AuthorizeResource(c.Request.Context(), principal, "ReadWarehouse", authz.Resource{Type: authz.EntityWarehouse, ID: id}); err != nil {
		catalog.RespondErr(c, err)
		return
	}
	w, err := h.store.GetWarehouse(c.Request.Context(), id)
	if err != nil {
		catalog.RespondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, toWarehouseResponse(w))
}

// ListWarehouses answers GET /management/v1/projects/{projectId}/warehouses.
func (h *Handler) ListWarehouses(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		catalog.RespondErr(c, catalogerr.InvalidRequest("malformed project id: %v", err))
		return
	}
	principal := catalog.PrincipalFrom(c)
	if err := h.authz.AuthorizeResource(c.Request.Context(), principal, "ListWarehouses", authz.Resource{Type: authz.EntityProject, ID: projectID}); err != nil {
		catalog.RespondErr(c, err)
		return
	}
	page, err := h.store.ListWarehouses(c.Request.Context(), projectID, store.ListOptions{Cursor: c.Query("pageToken"), PageSize: 100})
	if err != nil {
		catalog.RespondErr(c, err)
		return
	}
	out := make([]warehouseResponse, 0, len(page.Items))
	for _, w := range page.Items {
		out = append(out, toWarehouseResponse(&w))
	}
	c.JSON(http.StatusOK, gin.H{"warehouses": out, "next-page-token": page.NextCursor})
}

type renameWarehouseRequest struct {
	NewName string `json:"new-name" binding:"required"`
}

// RenameWarehouse answers POST /management/v1/warehouses/{warehouseId}/rename.
func (h *Handler) RenameWarehouse(c *gin.Context) {
	id, err := uuid.Parse(c.Param("warehouseId"))
	if err != nil {
		catalog.RespondErr(c, catalogerr.InvalidRequest("malformed warehouse id: %v", err))
		return
	}
	var req renameWarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		catalog.RespondErr(c, catalogerr.InvalidRequest("invalid request body: %v", err))
		return
	}
	principal := catalog.PrincipalFrom(c)
	if err := h.authz.AuthorizeResource(c.Request.Context(), principal, "UpdateWarehouse", authz.Resource{Type: authz.EntityWarehouse, ID: id}); err != nil {
		catalog.RespondErr(c, err)
		return
	}
	if err := h.store.RenameWarehouse(c.Request.Context(), id, req.NewName); err != nil {
		catalog.RespondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteWarehouse answers DELETE /management/v1/warehouses/{warehouseId}.
func (h *Handler) DeleteWarehouse(c *gin.Context) {
	id, err := uuid.Parse(c.Param("warehouseId"))
	if err != nil {
		catalog.RespondErr(c, catalogerr.InvalidRequest("malformed warehouse id: %v", err))
		return
	}
	principal := catalog.PrincipalFrom(c)
	if err := h.authz.AuthorizeResource(c.Request.Context(), principal, "DeleteWarehouse", authz.Resource{Type: authz.EntityWarehouse, ID: id}); err != nil {
		catalog.RespondErr(c, err)
		return
	}
	force := c.Query("force") == "true"
	if err := h.store.DeleteWarehouse(c.Request.Context(), id, force); err != nil {
		catalog.RespondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
