package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/crossidm/idsync/internal/httputil"
)

// respondError keeps middleware error responses on the shared JSON shape.
func respondError(c *gin.Context, status int, code, message string) {
	httputil.RespondError(c, status, code, message)
}
