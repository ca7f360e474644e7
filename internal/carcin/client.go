package carcin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const runRequestsPath = "/run_requests"

// Client talks to a carc.in instance.
type Client struct {
	baseURL string
	http    *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient creates a client for the service at baseURL. An empty baseURL
// means DefaultBaseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root the client posts to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type runRequestEnvelope struct {
	RunRequest map[string]any `json:"run_request"`
}

type runResponseEnvelope struct {
	RunRequest struct {
		Run *Run `json:"run"`
	} `json:"run_request"`
}

// Submit sends one run request and waits for the result. It never retries.
// Keys in opts override the body fields, "code" included.
func (c *Client) Submit(ctx context.Context, code string, opts Options) (*Run, error) {
	payload := make(map[string]any, len(opts)+1)
	payload["code"] = code
	for k, v := range opts {
		payload[k] = v
	}

	body, err := json.Marshal(runRequestEnvelope{RunRequest: payload})
	if err != nil {
		return nil, fmt.Errorf("encoding run request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+runRequestsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/javascript")
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("reading response: %w", err)}
	}

	if !isSuccess(resp.StatusCode) {
		var payload map[string]any
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, &MalformedResponseError{StatusCode: resp.StatusCode, Err: err}
		}
		return nil, &ServiceError{StatusCode: resp.StatusCode, Payload: payload, Body: data}
	}

	var envelope runResponseEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, &MalformedResponseError{StatusCode: resp.StatusCode, Err: err}
	}
	if envelope.RunRequest.Run == nil {
		return nil, &MalformedResponseError{StatusCode: resp.StatusCode, Err: fmt.Errorf("missing run_request.run")}
	}
	return envelope.RunRequest.Run, nil
}

// isSuccess treats 0 (opaque transports) and 200..399 as success.
func isSuccess(status int) bool {
	return status == 0 || (status >= 200 && status < 400)
}
