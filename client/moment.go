package client

import (
	"context"
	"net/http"
)

// GetMoment fetches the moment summary recomputed from a session's last
// generated recommendation set.
func (c *Client) GetMoment(ctx context.Context, sessionID string) (*MomentSummary, error) {
	path := "/moment/" + sessionID
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var out MomentSummary
	if err := parseResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
