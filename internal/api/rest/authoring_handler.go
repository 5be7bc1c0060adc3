package rest

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/slokabox/internal/app/authoring"
)

// AuthoringHandler pre-fills transliteration and meaning with the
// text generation service.
type AuthoringHandler struct {
	authoring *authoring.Service
}

// NewAuthoringHandler creates an authoring handler.
func NewAuthoringHandler(svc *authoring.Service) *AuthoringHandler {
	return &AuthoringHandler{authoring: svc}
}

type generateRequest struct {
	SanskritText string `json:"sanskritText"`
}

// Generate answers {result, fields} for the given Sanskrit text.
func (h *AuthoringHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_body", "Sanskrit text is required.")
		return
	}

	result, err := h.authoring.Generate(c.Request.Context(), req.SanskritText)
	switch {
	case errors.Is(err, authoring.ErrEmptyText):
		respondError(c, http.StatusBadRequest, "empty_text", "Sanskrit text is required.")
		return
	case errors.Is(err, authoring.ErrNotConfigured):
		respondError(c, http.StatusInternalServerError, "not_configured", "API key not configured.")
		return
	case err != nil:
		_ = c.Error(err)
		zlog.Error().Msgf("rest: generate failed: %v", err)
		respondError(c, http.StatusInternalServerError, "generation_failed", "Failed to generate content.")
		return
	}

	respondOK(c, result)
}
