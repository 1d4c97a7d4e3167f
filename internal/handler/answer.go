package handler

import (
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/nyx-moment/moment/internal/errors"
	"github.com/nyx-moment/moment/internal/session"
	"github.com/nyx-moment/moment/internal/types"
)

type answerRequest struct {
	QuestionID   string  `json:"questionId"`
	Answer       string  `json:"answer"`
	ResponseTime float64 `json:"responseTime"`
}

type answerQuestionResponse struct {
	Question types.Question `json:"question"`
	Progress progress       `json:"progress"`
}

type recommendationsResponse struct {
	Type             string                       `json:"type"`
	Recommendations  []types.RecommendationItem   `json:"recommendations"`
	Moment           types.MomentSummary          `json:"moment"`
	Validation       types.ValidationResult       `json:"validation"`
	CanRefine        bool                         `json:"canRefine"`
	QuickAdjustments []string                     `json:"quickAdjustments"`
}

// Answer handles POST /answer/{sessionId}: records one answer, then either
// returns the next unanswered question or, once the planned flow is
// complete, runs the recommendation pipeline.
func (h *Handler) Answer(c *gin.Context) {
	sessionID := c.Param("sessionId")

	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		abortWithError(c, apperrors.NewValidationError("malformed request body"))
		return
	}
	if req.QuestionID == "" || req.Answer == "" {
		abortWithError(c, apperrors.NewValidationError("questionId and answer are required"))
		return
	}

	ctx := c.Request.Context()

	sess, err := h.sessions.Get(ctx, sessionID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	flow := h.planner.Plan(ctx, sess.Domain, string(sess.FlowType), sess.Context)
	question, ok := findQuestion(flow, req.QuestionID)
	if !ok {
		abortWithError(c, apperrors.NewValidationError("unknown questionId: "+req.QuestionID))
		return
	}
	if !hasOption(question, req.Answer) {
		abortWithError(c, apperrors.NewValidationError("unknown answer option: "+req.Answer))
		return
	}

	answer := types.Answer{QuestionID: req.QuestionID, OptionID: req.Answer, ResponseTime: req.ResponseTime, SubmittedAt: time.Now()}
	sess, err = h.sessions.Update(ctx, sessionID, session.RecordAnswer(answer))
	if err != nil {
		abortWithError(c, err)
		return
	}

	if nextQ, prog, hasNext := nextQuestion(flow, sess); hasNext {
		c.JSON(200, answerQuestionResponse{Question: nextQ, Progress: prog})
		return
	}

	result, err := h.orch.Recommend(ctx, sessionID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(200, recommendationsResponse{
		Type:             "recommendations",
		Recommendations:  result.Recommendations,
		Moment:           result.Validation.Moment,
		Validation:       result.Validation,
		CanRefine:        true,
		QuickAdjustments: quickAdjustments(),
	})
}

func findQuestion(flow types.QuestionFlow, questionID string) (types.Question, bool) {
	for _, q := range flow.Questions {
		if q.ID == questionID {
			return q, true
		}
	}
	return types.Question{}, false
}

func hasOption(q types.Question, optionID string) bool {
	for _, o := range q.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}
