package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	apperrors "github.com/nyx-moment/moment/internal/errors"
	"github.com/nyx-moment/moment/internal/types"
)

type adjustRequest struct {
	AdjustmentType string `json:"adjustmentType"`
}

type adjustmentDTO struct {
	Type        string                `json:"type"`
	Delta       types.FilterPredicate `json:"delta"`
	QuerySuffix string                `json:"querySuffix,omitempty"`
}

type adjustResponse struct {
	Type              string                      `json:"type"`
	Adjustment        adjustmentDTO               `json:"adjustment"`
	Recommendations   []types.RecommendationItem  `json:"recommendations"`
	AdjustmentApplied string                      `json:"adjustmentApplied"`
}

// Adjust handles POST /adjust/{sessionId}: resolves a named quick
// adjustment and re-runs the pipeline with its delta layered on.
func (h *Handler) Adjust(c *gin.Context) {
	sessionID := c.Param("sessionId")

	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		abortWithError(c, apperrors.NewValidationError("malformed request body"))
		return
	}
	if req.AdjustmentType == "" {
		abortWithError(c, apperrors.NewValidationError("adjustmentType is required"))
		return
	}

	ctx := c.Request.Context()
	result, selection, err := h.orch.Adjust(ctx, sessionID, req.AdjustmentType)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(200, adjustResponse{
		Type: "adjusted_recommendations",
		Adjustment: adjustmentDTO{
			Type:        selection.AdjustmentType,
			Delta:       selection.Delta,
			QuerySuffix: selection.QuerySuffix,
		},
		Recommendations:   result.Recommendations,
		AdjustmentApplied: selection.AdjustmentType,
	})
}
