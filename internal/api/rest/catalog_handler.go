package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/osa030/slokabox/internal/app/catalog"
	"github.com/osa030/slokabox/internal/domain/sloka"
)

// CatalogHandler serves read-only catalog queries.
type CatalogHandler struct {
	catalog *catalog.Service
}

// NewCatalogHandler creates a catalog handler.
func NewCatalogHandler(svc *catalog.Service) *CatalogHandler {
	return &CatalogHandler{catalog: svc}
}

type collectionSummary struct {
	ID        int64    `json:"id"`
	Slug      string   `json:"slug"`
	Deities   []string `json:"deities"`
	Scripture string   `json:"scripture"`
	Title     string   `json:"title"`
	Verses    int      `json:"verses"`
}

func summarize(c *sloka.Collection) collectionSummary {
	return collectionSummary{
		ID:        c.ID,
		Slug:      c.Slug(),
		Deities:   c.Deities,
		Scripture: c.Scripture,
		Title:     c.Title,
		Verses:    len(c.Slokas),
	}
}

type verseResponse struct {
	Collection collectionSummary    `json:"collection"`
	Sloka      sloka.FlattenedSloka `json:"sloka"`
	Index      int                  `json:"index"`
	Total      int                  `json:"total"`
	Prev       *int                 `json:"prev"`
	Next       *int                 `json:"next"`
}

// ListCollections returns every collection with its verses.
func (h *CatalogHandler) ListCollections(c *gin.Context) {
	collections, err := h.catalog.Collections(c.Request.Context())
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	respondOK(c, collections)
}

// GetCollection returns one collection by numeric ID.
func (h *CatalogHandler) GetCollection(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	collection, err := h.catalog.Collection(c.Request.Context(), id)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	respondOK(c, collection)
}

// GetCollectionBySlug returns one collection by title slug.
func (h *CatalogHandler) GetCollectionBySlug(c *gin.Context) {
	collection, err := h.catalog.CollectionBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	respondOK(c, collection)
}

// GetSloka returns one verse with its collection's grouping fields.
func (h *CatalogHandler) GetSloka(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	s, err := h.catalog.Sloka(c.Request.Context(), id)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	respondOK(c, s)
}

func (h *CatalogHandler) ListDeities(c *gin.Context) {
	deities, err := h.catalog.Deities(c.Request.Context())
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	respondOK(c, deities)
}

func (h *CatalogHandler) ListByDeity(c *gin.Context) {
	slokas, err := h.catalog.ByDeity(c.Request.Context(), c.Param("deity"))
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	respondOK(c, slokas)
}

func (h *CatalogHandler) ListScriptures(c *gin.Context) {
	scriptures, err := h.catalog.Scriptures(c.Request.Context())
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	respondOK(c, scriptures)
}

func (h *CatalogHandler) ListByScripture(c *gin.Context) {
	slokas, err := h.catalog.ByScripture(c.Request.Context(), c.Param("scripture"))
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	respondOK(c, slokas)
}

// GetVerse returns one page of the learn view. The index is zero-based;
// prev and next are null at the ends of the collection.
func (h *CatalogHandler) GetVerse(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		respondError(c, http.StatusNotFound, "not_found", "Not found")
		return
	}

	view, err := h.catalog.Verse(c.Request.Context(), c.Param("slug"), index)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	resp := verseResponse{
		Collection: summarize(view.Collection),
		Sloka:      view.Sloka,
		Index:      view.Index,
		Total:      view.Total,
	}
	if view.HasPrev() {
		prev := view.Index - 1
		resp.Prev = &prev
	}
	if view.HasNext() {
		next := view.Index + 1
		resp.Next = &next
	}
	respondOK(c, resp)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "invalid_id", "Invalid id")
		return 0, false
	}
	return id, true
}
