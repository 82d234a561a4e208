package handlers

import (
	"errors"
	"net/http"

	"legislative-ai-assist/service"

	"github.com/gin-gonic/gin"
)

// SearchHandler handles HTTP requests for direct document search
type SearchHandler struct {
	searchService *service.SearchService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searchService *service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// SearchRequest represents the request body for a search
type SearchRequest struct {
	Query        string `json:"query" binding:"required"`
	Jurisdiction string `json:"jurisdiction"`
	TopK         int    `json:"top_k"`
}

// Search handles POST /api/v1/search
func (h *SearchHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	if req.Jurisdiction != "" && req.Jurisdiction != "SK" && req.Jurisdiction != "EU" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_JURISDICTION",
				"message": "jurisdiction must be SK, EU, or empty",
			},
		})
		return
	}

	results, language, err := h.searchService.Search(c.Request.Context(), req.Query, req.Jurisdiction, req.TopK)
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuery) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "EMPTY_QUERY",
					"message": "query must not be empty",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SEARCH_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"results":  results,
			"language": language,
			"count":    len(results),
		},
	})
}
