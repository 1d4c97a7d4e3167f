package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	apperrors "github.com/nyx-moment/moment/internal/errors"
	"github.com/nyx-moment/moment/internal/types"
	"github.com/nyx-moment/moment/internal/utils"
)

type feedbackItem struct {
	MovieID  string              `json:"movieId"`
	Reaction types.ReactionKind  `json:"reaction"`
	Tags     []string            `json:"tags,omitempty"`
	Text     string              `json:"text,omitempty"`
}

type refineRequest struct {
	Feedback    []feedbackItem `json:"feedback"`
	Action      string         `json:"action"`
	QuickAdjust string         `json:"quickAdjust"`
}

type refineResponse struct {
	Type            string                      `json:"type"`
	Recommendations []types.RecommendationItem  `json:"recommendations"`
	Strategy        string                      `json:"strategy"`
	Confidence      int                         `json:"confidence"`
	Adjustments     types.FilterPredicate       `json:"adjustments"`
	Validation      types.ValidationResult      `json:"validation"`
}

// Refine handles POST /refine/{sessionId}. A non-empty quickAdjust field
// takes precedence over feedback/action: it resolves through the
// Quick-Adjust Engine's closed name table instead of pattern-detecting a
// strategy from reactions, since quickAdjust names (lighter, deeper, ...)
// aren't reaction data the Refinement Engine understands.
func (h *Handler) Refine(c *gin.Context) {
	sessionID := c.Param("sessionId")

	var req refineRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		abortWithError(c, apperrors.NewValidationError("malformed request body"))
		return
	}

	ctx := c.Request.Context()

	if req.QuickAdjust != "" {
		result, selection, err := h.orch.Adjust(ctx, sessionID, req.QuickAdjust)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(200, refineResponse{
			Type:            "refined_recommendations",
			Recommendations: result.Recommendations,
			Strategy:        selection.AdjustmentType,
			Confidence:      100,
			Adjustments:     selection.Delta,
			Validation:      result.Validation,
		})
		return
	}

	reactions := make([]types.Reaction, 0, len(req.Feedback))
	for _, f := range req.Feedback {
		reactions = append(reactions, types.Reaction{ItemID: f.MovieID, Reaction: f.Reaction, Tags: f.Tags, Text: utils.SanitizeForDisplay(f.Text)})
	}

	result, selection, err := h.orch.Refine(ctx, sessionID, reactions, req.Action)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(200, refineResponse{
		Type:            "refined_recommendations",
		Recommendations: result.Recommendations,
		Strategy:        string(selection.Strategy),
		Confidence:      selection.Confidence,
		Adjustments:     selection.Delta,
		Validation:      result.Validation,
	})
}
