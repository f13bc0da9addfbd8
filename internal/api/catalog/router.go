package catalog

import (
	"github.com/gin-gonic/gin"

	"github.com/lakekeeper/lakekeeper/internal/catalog/extiface"
)

// RegisterRoutes hangs the Iceberg REST Catalog surface off router under
// /catalog, bearer-authenticated via verifier (nil trusts X-Principal-Id,
// for local development). Mirrors registerRoutes' group-per-prefix shape
// in internal/api/server.go.
func RegisterRoutes(router *gin.Engine, h *Handler, verifier extiface.TokenVerifier) {
	catalogGroup := router.Group("/catalog")
	catalogGroup.Use(AuthMiddleware(verifier))
	h.Register(catalogGroup)
}
