// Package dynalist is an HTTP client for the Dynalist API that implements
// outline.Client.
package dynalist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hay-kot/dyna/internal/core/logging"
	"github.com/hay-kot/dyna/internal/core/outline"
	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL = "https://dynalist.io/api/v1"

	// maxChanges caps the number of changes sent in one doc/edit request.
	maxChanges = 200
)

// Client talks to the Dynalist API with a single user's token.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client

	log zerolog.Logger
}

var _ outline.Client = (*Client)(nil)

// New creates a Client. An empty baseURL uses DefaultBaseURL.
func New(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: timeout},
		log:     logging.Component("dynalist"),
	}
}

// Factory returns an outline.ClientFactory producing Clients for baseURL.
func Factory(baseURL string, timeout time.Duration) outline.ClientFactory {
	return func(token string) outline.Client {
		return New(baseURL, token, timeout)
	}
}

type envelope struct {
	Code    string `json:"_code"`
	Message string `json:"_msg"`
}

// post sends body with the token to endpoint and decodes the response into out.
func (c *Client) post(ctx context.Context, endpoint string, body map[string]any, out any) error {
	if body == nil {
		body = map[string]any{}
	}
	body["token"] = c.Token

	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("dynalist %s: encode request: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+endpoint, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("dynalist %s: create request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("dynalist %s: %w", endpoint, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.Debug().Err(err).Str("endpoint", endpoint).Msg("close response body")
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("dynalist %s: read response: %w", endpoint, err)
	}

	c.log.Debug().Ctx(ctx).
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("request")

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("dynalist %s: status %d", endpoint, resp.StatusCode)
		}
		return fmt.Errorf("dynalist %s: decode response: %w", endpoint, err)
	}

	if env.Code == "" {
		return fmt.Errorf("dynalist %s: status %d: missing response code", endpoint, resp.StatusCode)
	}

	if env.Code != CodeOK {
		return &APIError{Endpoint: endpoint, Code: env.Code, Message: env.Message}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("dynalist %s: decode response: %w", endpoint, err)
		}
	}

	return nil
}
