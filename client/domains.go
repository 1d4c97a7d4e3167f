package client

import (
	"context"
	"net/http"
)

// GetDomains fetches the closed list of supported content verticals.
func (c *Client) GetDomains(ctx context.Context) ([]Domain, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/domains", nil, nil)
	if err != nil {
		return nil, err
	}

	var out []Domain
	if err := parseResponse(resp, &out); err != nil {
		return nil, err
	}
	return out, nil
}
