package client

import (
	"context"
	"net/http"
)

// AdjustRequest is the request body for Adjust.
type AdjustRequest struct {
	AdjustmentType string `json:"adjustmentType"`
}

// Adjustment describes the named quick adjustment that was applied.
type Adjustment struct {
	Type        string          `json:"type"`
	Delta       FilterPredicate `json:"delta"`
	QuerySuffix string          `json:"querySuffix,omitempty"`
}

// AdjustResponse is the response to POST /adjust/{sessionId}.
type AdjustResponse struct {
	Type              string               `json:"type"`
	Adjustment        Adjustment           `json:"adjustment"`
	Recommendations   []RecommendationItem `json:"recommendations"`
	AdjustmentApplied string               `json:"adjustmentApplied"`
}

// Adjust applies a named quick adjustment and returns the re-run
// recommendation set.
func (c *Client) Adjust(ctx context.Context, sessionID string, adjustmentType string) (*AdjustResponse, error) {
	path := "/adjust/" + sessionID
	resp, err := c.doRequest(ctx, http.MethodPost, path, &AdjustRequest{AdjustmentType: adjustmentType}, nil)
	if err != nil {
		return nil, err
	}

	var out AdjustResponse
	if err := parseResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
