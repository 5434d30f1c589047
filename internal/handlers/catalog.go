package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/imyashkale/geoconnect/internal/catalog"
)

// CatalogHandler serves the supported server and auth kinds
type CatalogHandler struct {
	catalog *catalog.Catalog
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(cat *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: cat}
}

// Get returns the catalog
func (h *CatalogHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog)
}
