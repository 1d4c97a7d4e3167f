package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	apperrors "github.com/nyx-moment/moment/internal/errors"
	"github.com/nyx-moment/moment/internal/types"
)

// startRequest is the inbound body for POST /start. Every field is
// optional: an empty domain defaults to movies, an empty flow defaults to
// standard (types.NormalizeFlowType), and a zero-value context means
// "no situational hints supplied".
type startRequest struct {
	Domain  string              `json:"domain"`
	Context types.RequestContext `json:"context"`
	Flow    string              `json:"flow"`
}

type startResponse struct {
	SessionID string              `json:"sessionId"`
	Domain    types.Domain        `json:"domain"`
	Greeting  string              `json:"greeting"`
	Question  types.Question      `json:"question"`
	Progress  progress            `json:"progress"`
	FlowType  types.FlowType      `json:"flowType"`
	Context   types.RequestContext `json:"context"`
}

// Start handles POST /start: plans a question flow for the requested
// domain and opens a new session pinned to the catalog version that flow
// was built from.
func (h *Handler) Start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		abortWithError(c, apperrors.NewValidationError("malformed request body"))
		return
	}

	domain := types.Domain(req.Domain)
	if domain == "" {
		domain = types.DomainMovies
	}
	if !domain.Valid() {
		abortWithError(c, apperrors.NewValidationError("unknown domain: "+req.Domain))
		return
	}

	ctx := c.Request.Context()
	_, catalogVersion := h.catalog.GetQuestions(ctx, domain)
	flow := h.planner.Plan(ctx, domain, req.Flow, req.Context)

	sess, err := h.sessions.Create(ctx, domain, flow.FlowType, req.Context, catalogVersion)
	if err != nil {
		abortWithError(c, err)
		return
	}

	question, prog, ok := nextQuestion(flow, sess)
	if !ok {
		abortWithError(c, apperrors.NewInternalError("question flow has no questions"))
		return
	}

	c.JSON(200, startResponse{
		SessionID: sess.ID,
		Domain:    domain,
		Greeting:  flow.Greeting,
		Question:  question,
		Progress:  prog,
		FlowType:  flow.FlowType,
		Context:   flow.Context,
	})
}
