package client

import (
	"context"
	"net/http"
)

// AnswerRequest is the request body for SubmitAnswer.
type AnswerRequest struct {
	QuestionID   string  `json:"questionId"`
	Answer       string  `json:"answer"`
	ResponseTime float64 `json:"responseTime,omitempty"`
}

// AnswerResponse is the response to POST /answer/{sessionId}. Exactly one
// of the two shapes is populated: Question/Progress while the planned flow
// still has unanswered questions, or Type=="recommendations" plus
// Recommendations once it's complete.
type AnswerResponse struct {
	// Populated when the flow isn't finished yet.
	Question Question `json:"question"`
	Progress Progress `json:"progress"`

	// Populated once every question has been answered.
	Type             string                `json:"type"`
	Recommendations  []RecommendationItem  `json:"recommendations"`
	Moment           MomentSummary         `json:"moment"`
	Validation       ValidationResult      `json:"validation"`
	CanRefine        bool                  `json:"canRefine"`
	QuickAdjustments []string              `json:"quickAdjustments"`
}

// Complete reports whether this response carries the final recommendation
// set rather than the next question.
func (r *AnswerResponse) Complete() bool {
	return r.Type == "recommendations"
}

// SubmitAnswer records one answer, returning either the next question or,
// once the planned flow is complete, the recommendation set.
func (c *Client) SubmitAnswer(ctx context.Context, sessionID string, req *AnswerRequest) (*AnswerResponse, error) {
	path := "/answer/" + sessionID
	resp, err := c.doRequest(ctx, http.MethodPost, path, req, nil)
	if err != nil {
		return nil, err
	}

	var out AnswerResponse
	if err := parseResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
