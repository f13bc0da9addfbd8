package catalog

import (
	"github.com/gin-gonic/gin"

	"github.com/lakekeeper/lakekeeper/internal/catalogerr"
)

// respondErr renders err as the error envelope with its mapped HTTP
// status, per spec.md §7's error taxonomy.
func respondErr(c *gin.Context, err error) {
	e := catalogerr.Wrap(err)
	c.JSON(e.HTTPStatus(), catalogerr.ToEnvelope(e, false))
}

// RespondErr is respondErr exported for sibling protocol adapters (the
// management API) that share this package's error envelope rendering.
func RespondErr(c *gin.Context, err error) { respondErr(c, err) }
