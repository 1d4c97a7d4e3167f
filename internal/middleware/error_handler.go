package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nyx-moment/moment/internal/errors"
)

// ErrorHandler translates an AppError left on the Gin context into the
// response shape  fixes; any other error type falls back to a
// generic 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		if appErr, ok := errors.IsAppError(err); ok {
			body := gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
				"details": appErr.Details,
			}
			if appErr.RetryAfter > 0 {
				body["retryAfter"] = appErr.RetryAfter
			}
			c.JSON(appErr.HTTPCode, gin.H{
				"success": false,
				"error":   body,
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    errors.ErrInternal,
				"message": "internal server error",
			},
		})
	}
}
