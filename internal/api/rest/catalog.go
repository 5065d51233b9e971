package rest

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/KevinKickass/mtconnect-core/internal/observation"
	"github.com/KevinKickass/mtconnect-core/internal/types"
)

// GET /api/v1/catalog/types?category=SAMPLE
func (s *Server) listTypes(c *gin.Context) {
	category := observation.ParseCategory(c.Query("category"))

	response := make([]gin.H, 0, s.catalog.Len())
	for _, t := range s.catalog.Types() {
		if category != observation.CategoryUnset && t.Category != category {
			continue
		}
		response = append(response, gin.H{
			"type":     t.Type,
			"element":  t.ElementName(),
			"category": t.Category,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"version": s.catalog.Version(),
		"types":   response,
		"count":   len(response),
	})
}

// GET /api/v1/catalog/types/:type accepts either TYPE_NAME or ElementName.
func (s *Server) getType(c *gin.Context) {
	name := c.Param("type")
	typ := strings.ToUpper(name)
	if _, ok := s.catalog.Lookup(typ); !ok {
		typ, _, _ = s.catalog.Resolve(name)
	}

	t, ok := s.catalog.Lookup(typ)
	if !ok {
		c.JSON(http.StatusNotFound, types.NewErrorResponse("CATALOG_404", "Unknown DataItem type", name))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"type":                 t,
		"category_description": s.catalog.CategoryDescription(t.Category),
	})
}
