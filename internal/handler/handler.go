// Package handler implements the HTTP transport for the recommendation
// pipeline: one gin.HandlerFunc per endpoint, translating JSON request
// bodies into collaborator calls and collaborator results (or AppErrors)
// back into JSON. Uses a per-resource handler shape: a struct holding
// injected collaborators, ShouldBindJSON plus c.Error(appErr) for
// failures, c.JSON for success, applied to the fixed seven-endpoint
// recommendation flow.
package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/nyx-moment/moment/internal/adjust"
	"github.com/nyx-moment/moment/internal/catalog"
	"github.com/nyx-moment/moment/internal/errors"
	"github.com/nyx-moment/moment/internal/flowplanner"
	"github.com/nyx-moment/moment/internal/logger"
	"github.com/nyx-moment/moment/internal/orchestrator"
	"github.com/nyx-moment/moment/internal/session"
	"github.com/nyx-moment/moment/internal/types"
	"github.com/nyx-moment/moment/internal/validator"
)

// Handler wires the Question Catalog, Flow Planner, Session Store, Pipeline
// Orchestrator, Validator, and Quick-Adjust Engine's known-adjustment list
// into the seven recommendation endpoints.
type Handler struct {
	catalog   *catalog.Store
	planner   *flowplanner.Planner
	sessions  *session.Store
	orch      *orchestrator.Orchestrator
	validator *validator.Validator
}

// New wires a Handler from its already-constructed collaborators.
func New(catalogStore *catalog.Store, planner *flowplanner.Planner, sessions *session.Store, orch *orchestrator.Orchestrator, validatorEngine *validator.Validator) *Handler {
	return &Handler{catalog: catalogStore, planner: planner, sessions: sessions, orch: orch, validator: validatorEngine}
}

// progress is the {current,total} pair describing where in a flow's
// question list the caller currently stands.
type progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// nextQuestion finds the first question in flow.Questions the session
// hasn't answered yet, returning ok=false once every question has been
// answered.
func nextQuestion(flow types.QuestionFlow, sess *types.Session) (types.Question, progress, bool) {
	total := len(flow.Questions)
	for i, q := range flow.Questions {
		if !sess.HasAnswer(q.ID) {
			return q, progress{Current: i + 1, Total: total}, true
		}
	}
	return types.Question{}, progress{Current: total, Total: total}, false
}

// quickAdjustments is the fixed list of named adjustments a recommendations
// response advertises as available via POST /adjust/{sessionId}.
func quickAdjustments() []string {
	return adjust.KnownAdjustments()
}

// abortWithError reports err on the gin context and lets ErrorHandler
// translate it into a response; non-AppError values are wrapped so the
// client still gets a structured body instead of a bare 500.
func abortWithError(c *gin.Context, err error) {
	if _, ok := errors.IsAppError(err); ok {
		_ = c.Error(err)
		return
	}
	logger.Errorf(c.Request.Context(), "handler: unclassified error: %v", err)
	_ = c.Error(errors.NewInternalError(err.Error()))
}
