package tieba

import (
	"context"
	"fmt"
)

// TBS fetches the anti-forgery token required by Sign.
func (c *Client) TBS(ctx context.Context) (string, error) {
	resp, err := c.get(ctx, "tbs", c.endpoints.TBS)
	if err != nil {
		return "", err
	}

	doc, err := decodeJSON("tbs", resp.Body())
	if err != nil {
		return "", err
	}

	if v, ok := doc["is_login"].(float64); ok && v == 0 {
		return "", fmt.Errorf("tbs: %w", ErrNotLoggedIn)
	}

	tbs, ok := doc["tbs"].(string)
	if !ok || tbs == "" {
		return "", fmt.Errorf("tbs: %w", ErrMissingTBS)
	}
	return tbs, nil
}

// Sign submits the check-in of one forum and returns the decoded response
// document. The document is returned as is; classification is left to the
// caller.
func (c *Client) Sign(ctx context.Context, forum, tbs string) (map[string]any, error) {
	resp, err := c.postForm(ctx, "sign", c.endpoints.Sign, map[string]string{
		"ie":  "utf-8",
		"kw":  forum,
		"tbs": tbs,
	})
	if err != nil {
		return nil, err
	}
	return decodeJSON("sign", resp.Body())
}
