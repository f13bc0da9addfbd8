package catalog

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lakekeeper/lakekeeper/internal/catalog/commit"
	"github.com/lakekeeper/lakekeeper/internal/catalog/extiface"
	"github.com/lakekeeper/lakekeeper/internal/catalogerr"
)

const principalContextKey = "catalog_principal"

// AuthMiddleware verifies the bearer token via the configured
// extiface.TokenVerifier and stores the resulting commit.Principal on
// the request context. A nil verifier trusts an X-Principal-Id header
// instead, for local development and tests where no IdP is wired.
func AuthMiddleware(verifier extiface.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil {
			id := c.GetHeader("X-Principal-Id")
			if id == "" {
				id = "anonymous"
			}
			c.Set(principalContextKey, commit.Principal{ID: id})
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondErr(c, catalogerr.Unauthorized("missing bearer token"))
			c.Abort()
			return
		}

		p, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			respondErr(c, catalogerr.Unauthorized("invalid bearer token: %v", err))
			c.Abort()
			return
		}
		c.Set(principalContextKey, commit.Principal{ID: p.Subject, IsService: p.IsService})
		c.Next()
	}
}

func principalFrom(c *gin.Context) commit.Principal {
	v, ok := c.Get(principalContextKey)
	if !ok {
		return commit.Principal{ID: "anonymous"}
	}
	return v.(commit.Principal)
}

// PrincipalFrom is principalFrom exported for the management API, which
// shares this package's AuthMiddleware rather than re-deriving its own.
func PrincipalFrom(c *gin.Context) commit.Principal { return principalFrom(c) }
