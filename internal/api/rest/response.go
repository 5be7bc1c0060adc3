package rest

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/slokabox/internal/app/catalog"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func respondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// respondCatalogError maps catalog lookup failures to 404 or 500.
func respondCatalogError(c *gin.Context, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		respondError(c, http.StatusNotFound, "not_found", "Not found")
		return
	}
	_ = c.Error(err)
	zlog.Error().Msgf("rest: catalog query failed: path=%s err=%v", c.Request.URL.Path, err)
	respondError(c, http.StatusInternalServerError, "internal", "Internal server error")
}
