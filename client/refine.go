package client

import (
	"context"
	"net/http"
)

// RefineRequest is the request body for Refine. A non-empty QuickAdjust
// takes precedence over Feedback/Action: it resolves through the
// quick-adjust name table instead of pattern-detecting a strategy from
// reactions.
type RefineRequest struct {
	Feedback    []Feedback `json:"feedback,omitempty"`
	Action      string     `json:"action,omitempty"`
	QuickAdjust string     `json:"quickAdjust,omitempty"`
}

// RefineResponse is the response to POST /refine/{sessionId}.
type RefineResponse struct {
	Type            string               `json:"type"`
	Recommendations []RecommendationItem `json:"recommendations"`
	Strategy        string               `json:"strategy"`
	Confidence      int                  `json:"confidence"`
	Adjustments     FilterPredicate      `json:"adjustments"`
	Validation      ValidationResult     `json:"validation"`
}

// Refine submits per-item feedback (or a named quick adjustment) and
// returns the re-run recommendation set.
func (c *Client) Refine(ctx context.Context, sessionID string, req *RefineRequest) (*RefineResponse, error) {
	path := "/refine/" + sessionID
	resp, err := c.doRequest(ctx, http.MethodPost, path, req, nil)
	if err != nil {
		return nil, err
	}

	var out RefineResponse
	if err := parseResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
