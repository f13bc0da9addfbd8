package catalog

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lakekeeper/lakekeeper/internal/catalog/authz"
	"github.com/lakekeeper/lakekeeper/internal/catalog/commit"
	"github.com/lakekeeper/lakekeeper/internal/catalog/model"
	"github.com/lakekeeper/lakekeeper/internal/catalog/storagebroker"
	"github.com/lakekeeper/lakekeeper/internal/catalog/store"
	"github.com/lakekeeper/lakekeeper/internal/catalogerr"
)

// Handler wires the Commit Engine (C2), Catalog Store (C1), Authorization
// Engine (C3), and Storage Access Broker (C4) onto the REST surface.
// Method receivers mirror internal/api/handlers' one-struct-per-resource
// shape; Register hangs every route off a *gin.RouterGroup, same as
// AlertHandler.Register.
type Handler struct {
	store   store.Store
	commit  *commit.Engine
	authz   *authz.Engine
	broker  *storagebroker.Broker
	logger  *slog.Logger
}

// NewHandler wires a Handler's collaborators.
func NewHandler(st store.Store, ce *commit.Engine, az *authz.Engine, broker *storagebroker.Broker, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: st, commit: ce, authz: az, broker: broker, logger: logger.With("component", "catalog-api")}
}

// Register adds the Iceberg REST Catalog routes (under /catalog, per
// spec.md §6) and the remote-signing route to rg.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/v1/config", h.GetConfig)

	wh := rg.Group("/v1/:warehouseId")
	wh.GET("/namespaces", h.ListNamespaces)
	wh.POST("/namespaces", h.CreateNamespace)
	wh.GET("/namespaces/:namespace", h.LoadNamespaceMetadata)
	wh.HEAD("/namespaces/:namespace", h.NamespaceExists)
	wh.DELETE("/namespaces/:namespace", h.DropNamespace)
	wh.POST("/namespaces/:namespace/properties", h.UpdateNamespaceProperties)

	wh.GET("/namespaces/:namespace/tables", h.ListTables)
	wh.POST("/namespaces/:namespace/tables", h.CreateTable)
	wh.POST("/namespaces/:namespace/register", h.RegisterTable)
	wh.GET("/namespaces/:namespace/tables/:table", h.LoadTable)
	wh.POST("/namespaces/:namespace/tables/:table", h.UpdateTable)
	wh.DELETE("/namespaces/:namespace/tables/:table", h.DropTable)

	wh.POST("/aws/s3/sign", h.SignS3Request)
	wh.POST("/namespaces/:namespace/tables/:table/aws/s3/sign", h.SignS3Request)
}

// GetConfig answers GET /catalog/v1/config. No warehouse-specific
// overrides are implemented; clients get the server's baseline
// defaults, per spec.md §6's loadTable-adjacent "config" merge contract.
func (h *Handler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"defaults":  gin.H{},
		"overrides": gin.H{},
	})
}

func (h *Handler) warehouseID(c *gin.Context) (model.WarehouseID, bool) {
	id, err := uuid.Parse(c.Param("warehouseId"))
	if err != nil {
		respondErr(c, catalogerr.InvalidRequest("malformed warehouse id: %v", err))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) namespacePath(c *gin.Context) ([]string, bool) {
	path, err := namespacePathFromMultipart(c.Param("namespace"))
	if err != nil {
		respondErr(c, err)
		return nil, false
	}
	return path, true
}

// ListNamespaces answers GET /catalog/v1/{warehouseId}/namespaces.
func (h *Handler) ListNamespaces(c *gin.Context) {
	warehouseID, ok := h.warehouseID(c)
	if !ok {
		return
	}
	if err := h.authz.AuthorizeResource(c.Request.Context(), principalFrom(c), "ListNamespaces", authz.Resource{Type: authz.EntityWarehouse, ID: warehouseID}); err != nil {
		respondErr(c, err)
		return
	}
	var parent []string
	if p := c.Query("parent"); p != "" {
		path, err := splitMultipartIdentifier(p)
		if err != nil {
			respondErr(c, catalogerr.InvalidRequest("malformed parent: %v", err))
			return
		}
		parent = path
	}
	page, err := h.store.ListNamespaces(c.Request.Context(), warehouseID, parent, store.ListOptions{
		Cursor: c.Query("pageToken"), PageSize: 100,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	idents := make([][]string, 0, len(page.Items))
	for _, ns := range page.Items {
		idents = append(idents, ns.Path)
	}
	c.JSON(http.StatusOK, gin.H{"namespaces": idents, "next-page-token": page.NextCursor})
}

type createNamespaceRequest struct {
	Namespace  []string          `json:"namespace"`
	Properties map[string]string `json:"properties"`
}

// CreateNamespace answers POST /catalog/v1/{warehouseId}/namespaces.
func (h *Handler) CreateNamespace(c *gin.Context) {
	warehouseID, ok := h.warehouseID(c)
	if !ok {
		return
	}
	var req createNamespaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, catalogerr.InvalidRequest("invalid request body: %v", err))
		return
	}
	principal := principalFrom(c)
	if err := h.authz.AuthorizeResource(c.Request.Context(), principal, "CreateNamespace", authz.Resource{Type: authz.EntityWarehouse, ID: warehouseID}); err != nil {
		respondErr(c, err)
		return
	}
	ns := &model.Namespace{WarehouseID: warehouseID, Path: req.Namespace, Properties: req.Properties}
	if err := h.store.CreateNamespace(c.Request.Context(), ns); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"namespace": ns.Path, "properties": ns.Properties})
}

// LoadNamespaceMetadata answers GET /catalog/v1/{warehouseId}/namespaces/{namespace}.
func (h *Handler) LoadNamespaceMetadata(c *gin.Context) {
	warehouseID, ok := h.warehouseID(c)
	if !ok {
		return
	}
	path, ok := h.namespacePath(c)
	if !ok {
		return
	}
	ns, err := h.store.GetNamespaceByPath(c.Request.Context(), warehouseID, path)
	if err != nil {
		respondErr(c, err)
		return
	}
	principal := principalFrom(c)
	if err := h.authz.AuthorizeResource(c.Request.Context(), principal, "ReadNamespaceMetadata", authz.Resource{Type: authz.EntityNamespace, ID: ns.ID}); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"namespace": ns.Path, "properties": ns.Properties})
}

// NamespaceExists answers HEAD /catalog/v1/{warehouseId}/namespaces/{namespace}.
func (h *Handler) NamespaceExists(c *gin.Context) {
	warehouseID, ok := h.warehouseID(c)
	if !ok {
		return
	}
	path, ok := h.namespacePath(c)
	if !ok {
		return
	}
	if _, err := h.store.GetNamespaceByPath(c.Request.Context(), warehouseID, path); err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

// DropNamespace answers DELETE /catalog/v1/{warehouseId}/namespaces/{namespace}.
func (h *Handler) DropNamespace(c *gin.Context) {
	warehouseID, ok := h.warehouseID(c)
	if !ok {
		return
	}
	path, ok := h.namespacePath(c)
	if !ok {
		return
	}
	ns, err := h.store.GetNamespaceByPath(c.Request.Context(), warehouseID, path)
	if err != nil {
		respondErr(c, err)
		return
	}
	principal := principalFrom(c)
	if err := h.authz.AuthorizeResource(c.Request.Context(), principal, "DropNamespace", authz.Resource{Type: authz.EntityNamespace, ID: ns.ID}); err != nil {
		respondErr(c, err)
		return
	}
	if err := h.store.SoftDeleteNamespace(c.Request.Context(), ns.ID, false); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type updateNamespacePropertiesRequest struct {
	Removals []string          `json:"removals"`
	Updates  map[string]string `json:"updates"`
}

// UpdateNamespaceProperties answers POST /catalog/v1/{warehouseId}/namespaces/{namespace}/properties.
func (h *Handler) UpdateNamespaceProperties(c *gin.Context) {
	warehouseID, ok := h.warehouseID(c)
	if !ok {
		return
	}
	path, ok := h.namespacePath(c)
	if !ok {
		return
	}
	var req updateNamespacePropertiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, catalogerr.InvalidRequest("invalid request body: %v", err))
		return
	}
	ns, err := h.store.GetNamespaceByPath(c.Request.Context(), warehouseID, path)
	if err != nil {
		respondErr(c, err)
		return
	}
	principal := principalFrom(c)
	if err := h.authz.AuthorizeResource(c.Request.Context(), principal, "UpdateNamespaceProperties", authz.Resource{Type: authz.EntityNamespace, ID: ns.ID}); err != nil {
		respondErr(c, err)
		return
	}
	if err := h.store.UpdateNamespaceProperties(c.Request.Context(), ns.ID, req.Updates, req.Removals); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": keysOf(req.Updates), "removed": req.Removals, "missing": []string{}})
}

func keysOf(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// ListTables answers GET /catalog/v1/{warehouseId}/namespaces/{namespace}/tables.
func (h *Handler) ListTables(c *gin.Context) {
	warehouseID, ok := h.warehouseID(c)
	if !ok {
		return
	}
	path, ok := h.namespacePath(c)
	if !ok {
		return
	}
	ns, err := h.store.GetNamespaceByPath(c.Request.Context(), warehouseID, path)
	if err != nil {
		respondErr(c, err)
		return
	}
	if err := h.authz.AuthorizeResource(c.Request.Context(), principalFrom(c), "ListTables", authz.Resource{Type: authz.EntityNamespace, ID: ns.ID}); err != nil {
		respondErr(c, err)
		return
	}
	page, err := h.store.ListTabulars(c.Request.Context(), ns.ID, model.KindTable, store.ListOptions{
		Cursor: c.Query("pageToken"), PageSize: 100,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	idents := make([]gin.H, 0, len(page.Items))
	for _, t := range page.Items {
		idents = append(idents, gin.H{"namespace": t.NamespacePath, "name": t.Name})
	}
	c.JSON(http.StatusOK, gin.H{"identifiers": idents, "next-page-token": page.NextCursor})
}

// CreateTable answers POST /catalog/v1/{warehouseId}/namespaces/{namespace}/tables.
func (h *Handler) CreateTable(c *gin.Context) {
	warehouseID, ok := h.warehouseID(c)
	if !ok {
		return
	}
	path, ok := h.namespacePath(c)
	if !ok {
		return
	}
	var req createTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, catalogerr.InvalidRequest("invalid request body: %v", err))
		return
	}
	ref := commit.TableRef{WarehouseID: warehouseID, Namespace: path, Name: req.Name}
	principal := principalFrom(c)

	if req.StageCreate {
		id, err := h.commit.StageTable(c.Request.Context(), ref, principal)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"metadata-location": "", "table-uuid": id.String()})
		return
	}

	spec := model.PartitionSpec{}
	if req.PartitionSpec != nil {
		spec = *req.PartitionSpec
	}
	sortOrder := model.SortOrder{}
	if req.WriteOrder != nil {
		sortOrder = *req.WriteOrder
	}
	result, err := h.commit.CreateTable(c.Request.Context(), ref, principal, req.Schema, spec, sortOrder, req.Location, 2, req.Properties)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, loadTableResponse{MetadataLocation: result.MetadataFileURI, Metadata: result.Metadata})
}

// RegisterTable answers POST /catalog/v1/{warehouseId}/namespaces/{namespace}/register.
func (h *Handler) RegisterTable(c *gin.Context) {
	warehouseID, ok := h.warehouseID(c)
	if !ok {
		return
	}
	path, ok := h.namespacePath(c)
	if !ok {
		return
	}
	var req registerTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, catalogerr.InvalidRequest("invalid request body: %v", err))
		return
	}
	warehouse, err := h.store.GetWarehouse(c.Request.Context(), warehouseID)
	if err != nil {
		respondErr(c, err)
		return
	}
	ref := commit.TableRef{WarehouseID: warehouseID, Namespace: path, Name: req.Name}
	result, err := h.commit.RegisterTable(c.Request.Context(), ref, principalFrom(c), req.MetadataLocation, warehouse)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, loadTableResponse{MetadataLocation: result.MetadataFileURI, Metadata: result.Metadata})
}

// LoadTable answers GET /catalog/v1/{warehouseId}/namespaces/{namespace}/tables/{table}.
func (h *Handler) LoadTable(c *gin.Context) {
	warehouseID, ok := h.warehouseID(c)
	if !ok {
		return
	}
	path, ok := h.namespacePath(c)
	if !ok {
		return
	}
	ref := commit.TableRef{WarehouseID: warehouseID, Namespace: path, Name: c.Param("table")}
	result, err := h.commit.LoadTable(c.Request.Context(), ref, principalFrom(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, loadTableResponse{MetadataLocation: result.MetadataFileURI, Metadata: result.Metadata})
}

// UpdateTable answers POST /catalog/v1/{warehouseId}/namespaces/{namespace}/tables/{table},
// the updateTable commit endpoint (spec.md §4.2).
func (h *Handler) UpdateTable(c *gin.Context) {
	warehouseID, ok := h.warehouseID(c)
	if !ok {
		return
	}
	path, ok := h.namespacePath(c)
	if !ok {
		return
	}
	var req commitTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, catalogerr.InvalidRequest("invalid request body: %v", err))
		return
	}
	reqs, updates, err := req.decode()
	if err != nil {
		respondErr(c, err)
		return
	}
	ref := commit.TableRef{WarehouseID: warehouseID, Namespace: path, Name: c.Param("table")}
	result, err := h.commit.UpdateTable(c.Request.Context(), ref, principalFrom(c), reqs, updates)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, loadTableResponse{MetadataLocation: result.MetadataFileURI, Metadata: result.Metadata})
}

// DropTable answers DELETE /catalog/v1/{warehouseId}/namespaces/{namespace}/tables/{table}.
func (h *Handler) DropTable(c *gin.Context) {
	warehouseID, ok := h.warehouseID(c)
	if !ok {
		return
	}
	path, ok := h.namespacePath(c)
	if !ok {
		return
	}
	warehouse, err := h.store.GetWarehouse(c.Request.Context(), warehouseID)
	if err != nil {
		respondErr(c, err)
		return
	}
	purge := c.Query("purgeRequested") == "true"
	ref := commit.TableRef{WarehouseID: warehouseID, Namespace: path, Name: c.Param("table")}
	if err := h.commit.DropTable(c.Request.Context(), ref, principalFrom(c), warehouse, purge); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SignS3Request answers POST .../aws/s3/sign, vending a SigV4-signed
// request for the data plane (spec.md §4.4 / §6). store.Store already
// satisfies storagebroker.TableResolver, and *authz.Engine already
// satisfies commit.Authorizer via Authorize, so both pass straight
// through without an adapter.
func (h *Handler) SignS3Request(c *gin.Context) {
	warehouseID, ok := h.warehouseID(c)
	if !ok {
		return
	}
	warehouse, err := h.store.GetWarehouse(c.Request.Context(), warehouseID)
	if err != nil {
		respondErr(c, err)
		return
	}
	var input storagebroker.SignRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondErr(c, catalogerr.InvalidRequest("invalid request body: %v", err))
		return
	}
	input.WarehouseID = warehouseID
	result, err := h.broker.SignRequest(c.Request.Context(), input, principalFrom(c), warehouse, h.store, h.authz)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
