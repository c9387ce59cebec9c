package helper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"media-inspector/internal/settings"
)

// Settings fetches the settings in effect on the helper.
func (c *Client) Settings(ctx context.Context) (settings.Settings, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/settings", nil)
	if err != nil {
		return settings.Settings{}, err
	}
	body, err := c.roundTrip(req)
	if err != nil {
		return settings.Settings{}, err
	}
	s := settings.Default()
	if err := json.Unmarshal(body, &s); err != nil {
		return settings.Settings{}, fmt.Errorf("invalid settings reply: %w", err)
	}
	return s, nil
}

// PutSettings replaces the settings of the helper.
func (c *Client) PutSettings(ctx context.Context, s settings.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.base+"/api/settings", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	_, err = c.roundTrip(req)
	return err
}

// roundTrip sends req and returns the body of a 2xx reply.
func (c *Client) roundTrip(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("helper unreachable at %s: %w", c.base, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReply))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("helper answered %d: %s", resp.StatusCode, e.Error)
		}
		return nil, fmt.Errorf("helper answered %d", resp.StatusCode)
	}
	return body, nil
}
