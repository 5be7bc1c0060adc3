package rest

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/slokabox/internal/app/catalog"
	"github.com/osa030/slokabox/internal/app/filter"
	"github.com/osa030/slokabox/internal/domain/sloka"
	"github.com/osa030/slokabox/internal/infra/config"
)

// UploadHandler accepts new collections from the authoring page.
type UploadHandler struct {
	catalog *catalog.Service
	config  *config.Config
}

// NewUploadHandler creates an upload handler. Reject messages come from
// cfg.Messages.
func NewUploadHandler(svc *catalog.Service, cfg *config.Config) *UploadHandler {
	return &UploadHandler{
		catalog: svc,
		config:  cfg,
	}
}

type uploadResponse struct {
	Success bool   `json:"success"`
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// Upload validates and stores one collection.
func (h *UploadHandler) Upload(c *gin.Context) {
	var collection sloka.Collection
	if err := c.ShouldBindJSON(&collection); err != nil {
		zlog.Debug().Msgf("rest: upload: invalid body: %v", err)
		respondError(c, http.StatusBadRequest, "invalid_body", h.config.GetMessage("missing_fields"))
		return
	}
	// IDs are assigned by the store.
	collection.ID = 0
	for i := range collection.Slokas {
		collection.Slokas[i].ID = 0
	}

	result, err := h.catalog.Upload(c.Request.Context(), filter.OriginAPI, &collection)
	if err != nil {
		_ = c.Error(err)
		status := http.StatusInternalServerError
		if errors.Is(err, catalog.ErrReadOnly) {
			status = http.StatusServiceUnavailable
		}
		zlog.Error().Msgf("rest: upload failed: title=%s err=%v", collection.Title, err)
		respondError(c, status, "default_error", h.config.GetMessage("default_error"))
		return
	}

	if !result.Accepted {
		respondError(c, rejectStatus(result.Code), result.Code, h.config.GetMessage(result.Code))
		return
	}

	respondOK(c, uploadResponse{
		Success: true,
		ID:      result.CollectionID,
		Message: h.config.GetMessage("success"),
	})
}

func rejectStatus(code string) int {
	if code == "duplicate_collection" {
		return http.StatusConflict
	}
	return http.StatusBadRequest
}
