package registry

import (
	"context"
	"net/url"
)

// DiscoverOwners lists nodes the host knows about. Failures yield an empty
// slice; discovery only feeds suggestions.
func (c *Client) DiscoverOwners(ctx context.Context) []string {
	var payload struct {
		Nodes []string `json:"nodes"`
	}
	if err := c.getJSON(ctx, "/nodes", &payload); err != nil {
		c.logger.Debug("discover nodes failed", "error", err)
		return []string{}
	}
	return nonNil(payload.Nodes)
}

// DiscoverMembers lists the methods of owner. owner is percent-encoded as a
// single path segment.
func (c *Client) DiscoverMembers(ctx context.Context, owner string) []string {
	if owner == "" {
		return []string{}
	}
	var payload struct {
		Methods []string `json:"methods"`
	}
	if err := c.getJSON(ctx, "/methods/"+url.PathEscape(owner), &payload); err != nil {
		c.logger.Debug("discover methods failed", "node", owner, "error", err)
		return []string{}
	}
	return nonNil(payload.Methods)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
