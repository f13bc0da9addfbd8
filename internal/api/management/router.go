package management

import (
	"github.com/gin-gonic/gin"

	"github.com/lakekeeper/lakekeeper/internal/api/catalog"
	"github.com/lakekeeper/lakekeeper/internal/catalog/extiface"
)

// RegisterRoutes hangs the management API off router under /management,
// sharing internal/api/catalog's bearer-auth middleware so a single
// token verifier backs both protocol surfaces.
func RegisterRoutes(router *gin.Engine, h *Handler, verifier extiface.TokenVerifier) {
	mgmtGroup := router.Group("/management")
	mgmtGroup.Use(catalog.AuthMiddleware(verifier))
	h.Register(mgmtGroup)
}
