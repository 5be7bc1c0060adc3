// Package rest serves the catalog, upload and authoring JSON API.
package rest

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/osa030/slokabox/internal/infra/logger"
)

// RouterConfig holds the handlers mounted by NewRouter. Nil handlers
// leave their routes unregistered.
type RouterConfig struct {
	CORSOrigins []string

	HealthHandler    *HealthHandler
	CatalogHandler   *CatalogHandler
	UploadHandler    *UploadHandler
	AuthoringHandler *AuthoringHandler
}

// NewRouter builds the gin engine for the JSON API.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(logger.GinRecovery())
	r.Use(logger.GinAccessLog())
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.CatalogHandler != nil {
			api.GET("/collections", cfg.CatalogHandler.ListCollections)
			api.GET("/collections/:id", cfg.CatalogHandler.GetCollection)
			api.GET("/collections/slug/:slug", cfg.CatalogHandler.GetCollectionBySlug)
			api.GET("/slokas/:id", cfg.CatalogHandler.GetSloka)
			api.GET("/deities", cfg.CatalogHandler.ListDeities)
			api.GET("/deities/:deity/slokas", cfg.CatalogHandler.ListByDeity)
			api.GET("/scriptures", cfg.CatalogHandler.ListScriptures)
			api.GET("/scriptures/:scripture/slokas", cfg.CatalogHandler.ListByScripture)
			api.GET("/learn/:slug/:index", cfg.CatalogHandler.GetVerse)
		}

		if cfg.UploadHandler != nil {
			api.POST("/upload-sloka", cfg.UploadHandler.Upload)
		}

		if cfg.AuthoringHandler != nil {
			api.POST("/generate-sloka", cfg.AuthoringHandler.Generate)
		}
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Connect-Protocol-Version"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// HealthHandler answers liveness probes.
type HealthHandler struct{}

// NewHealthHandler creates a health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// HealthCheck always reports ok.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	respondOK(c, gin.H{"status": "ok"})
}
