package handlers

import (
	"net/http"

	"legislative-ai-assist/pipeline"

	"github.com/gin-gonic/gin"
)

// JudgeHandler handles HTTP requests for the case analysis workflow
type JudgeHandler struct {
	judge *pipeline.Judge
}

// NewJudgeHandler creates a new judge handler
func NewJudgeHandler(judge *pipeline.Judge) *JudgeHandler {
	return &JudgeHandler{judge: judge}
}

// JudgeRequest represents the request body for a case analysis
type JudgeRequest struct {
	CaseDescription string `json:"case_description" binding:"required"`
	Language        string `json:"language"`
}

// Analyze handles POST /api/v1/judge/analyze
func (h *JudgeHandler) Analyze(c *gin.Context) {
	var req JudgeRequest
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

	language := req.Language
	if language == "" {
		language = "sk"
	}
	if language != "sk" && language != "hu" && language != "en" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_LANGUAGE",
				"message": "language must be sk, hu, or en",
			},
		})
		return
	}

	result, err := h.judge.Analyze(c.Request.Context(), req.CaseDescription, language)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ANALYSIS_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}
