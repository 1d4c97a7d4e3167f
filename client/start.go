package client

import (
	"context"
	"net/http"
)

// StartRequest is the request body for StartSession. Every field is
// optional: an empty Domain defaults to movies, an empty Flow defaults to
// standard, and a zero-value Context means "no situational hints supplied".
type StartRequest struct {
	Domain  string         `json:"domain,omitempty"`
	Context RequestContext `json:"context,omitempty"`
	Flow    string         `json:"flow,omitempty"`
}

// StartResponse is the response to POST /start.
type StartResponse struct {
	SessionID string         `json:"sessionId"`
	Domain    Domain         `json:"domain"`
	Greeting  string         `json:"greeting"`
	Question  Question       `json:"question"`
	Progress  Progress       `json:"progress"`
	FlowType  FlowType       `json:"flowType"`
	Context   RequestContext `json:"context"`
}

// StartSession opens a new recommendation session and plans its first
// question.
func (c *Client) StartSession(ctx context.Context, req *StartRequest) (*StartResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/start", req, nil)
	if err != nil {
		return nil, err
	}

	var out StartResponse
	if err := parseResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
