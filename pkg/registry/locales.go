package registry

import (
	"context"
	"net/url"
)

// FetchLocale downloads the flat key/value dictionary for locale. Unlike
// the discovery calls, errors are returned so the caller can keep its
// previous dictionary.
func (c *Client) FetchLocale(ctx context.Context, locale string) (map[string]string, error) {
	dict := map[string]string{}
	if err := c.getJSON(ctx, "/locales/"+url.PathEscape(locale), &dict); err != nil {
		return nil, err
	}
	return dict, nil
}
