package handler

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/nyx-moment/moment/internal/errors"
)

// Moment handles GET /moment/{sessionId}: recomputes the moment summary
// from the session's last generated recommendation list and profile,
// since the session record persists recommendations and profile but not
// the scalar validation scoring, which is cheap to recompute deterministically.
func (h *Handler) Moment(c *gin.Context) {
	sessionID := c.Param("sessionId")
	ctx := c.Request.Context()

	sess, err := h.sessions.Get(ctx, sessionID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if sess.Profile == nil {
		abortWithError(c, apperrors.NewNotFoundError("no recommendations generated yet for this session"))
		return
	}

	validation := h.validator.Score(sess.LastRecommendations, *sess.Profile, false)
	c.JSON(200, validation.Moment)
}
