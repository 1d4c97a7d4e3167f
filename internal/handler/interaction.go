package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	apperrors "github.com/nyx-moment/moment/internal/errors"
)

type interactionRequest struct {
	MovieID         string         `json:"movieId"`
	InteractionType string         `json:"interactionType"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

type interactionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Interaction handles POST /interaction/{sessionId}: a lightweight
// acknowledge-only endpoint confirming the session is still live. It
// doesn't emit an analytics event — the analytics event kind vocabulary is
// closed to session_embedded, temporal_preference, recommendation_result,
// and refinement, none of which this call fits.
func (h *Handler) Interaction(c *gin.Context) {
	sessionID := c.Param("sessionId")

	var req interactionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		abortWithError(c, apperrors.NewValidationError("malformed request body"))
		return
	}
	if req.MovieID == "" || req.InteractionType == "" {
		abortWithError(c, apperrors.NewValidationError("movieId and interactionType are required"))
		return
	}

	ctx := c.Request.Context()
	if _, err := h.sessions.Get(ctx, sessionID); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(200, interactionResponse{Success: true, Message: "interaction recorded"})
}
