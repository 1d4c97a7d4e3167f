package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/nyx-moment/moment/internal/types"
)

// Domains handles GET /domains: the static, closed list of supported
// content verticals.
func (h *Handler) Domains(c *gin.Context) {
	c.JSON(200, types.SupportedDomains)
}
