// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gemini is a minimal client for the two Gemini API surfaces the
// engine uses: schema-constrained content generation and background agent
// interactions. It speaks the REST API directly so the wire format stays
// visible and testable.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/debrief-engine/internal/httputil"
)

// apiBase is the Gemini API endpoint. Package-level so tests can point the
// client at a local server.
var apiBase = "https://generativelanguage.googleapis.com/v1beta"

// Client calls the Gemini REST API. The zero value is not usable; APIKey is
// required and HTTPClient defaults to http.DefaultClient.
type Client struct {
	APIKey     string
	HTTPClient *http.Client

	// MaxRetries bounds retries on rate-limit responses. Zero means the
	// httputil default.
	MaxRetries int
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// postJSON sends body as JSON to apiBase+path and decodes the response into
// out. A nil out discards the response body.
func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiBase+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBase+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("x-goog-api-key", c.APIKey)

	resp, err := httputil.DoWithRetry(req.Context(), c.httpClient(), req, c.MaxRetries)
	if err != nil {
		return fmt.Errorf("calling Gemini API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gemini API returned %d: %s", resp.StatusCode, string(body))
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
