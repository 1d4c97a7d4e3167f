package client

import (
	"context"
	"net/http"
)

// InteractionRequest is the request body for RecordInteraction.
type InteractionRequest struct {
	MovieID         string         `json:"movieId"`
	InteractionType string         `json:"interactionType"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// InteractionResponse is the response to POST /interaction/{sessionId}.
type InteractionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// RecordInteraction acknowledges a per-item interaction (e.g. a detail
// view) against a live session.
func (c *Client) RecordInteraction(ctx context.Context, sessionID string, req *InteractionRequest) (*InteractionResponse, error) {
	path := "/interaction/" + sessionID
	resp, err := c.doRequest(ctx, http.MethodPost, path, req, nil)
	if err != nil {
		return nil, err
	}

	var out InteractionResponse
	if err := parseResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
