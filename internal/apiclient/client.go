// Package apiclient issues authenticated calls to the backend API and
// normalizes its response envelope.
//
// Every call builds its Authorization header first, so credential failures
// surface before anything touches the network. Nothing is cached or retried
// here; callers that want a retry policy implement it themselves.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	dErrors "gatehouse/pkg/domain-errors"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	msgRequestFailed = "API request failed"
	msgInvalidJSON   = "Invalid JSON response from server"
)

// HeaderSource yields the Authorization header value for one call.
type HeaderSource interface {
	AuthorizationHeader(ctx context.Context) (string, error)
}

// Client talks to one backend base URL.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	credentials HeaderSource
	logger      *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default instrumented client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithCredentials attaches a bearer credential to every call. A client
// without credentials issues public calls.
func WithCredentials(src HeaderSource) Option {
	return func(c *Client) {
		c.credentials = src
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// no client timeout: transport defaults apply
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do issues one call and returns the normalized 2xx payload.
//
// Failures are Unauthenticated or CredentialMintFailure from the header
// source (unchanged), ApiFailure for non-2xx responses, and NetworkFailure
// for transport errors.
func (c *Client) Do(ctx context.Context, method, path string, body any) (Payload, error) {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	if c.credentials != nil {
		authz, err := c.credentials.AuthorizationHeader(ctx)
		if err != nil {
			return Payload{}, err
		}
		header.Set("Authorization", authz)
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return Payload{}, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return Payload{}, fmt.Errorf("build request: %w", err)
	}
	req.Header = header

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Payload{}, networkFailure(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Payload{}, networkFailure(err)
	}

	c.logger.DebugContext(ctx, "backend call completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Payload{}, dErrors.New(dErrors.CodeAPIFailure, failureMessage(resp, raw))
	}
	return normalize(raw)
}

func networkFailure(err error) error {
	return dErrors.Wrap(err, dErrors.CodeNetwork, "")
}

// failureMessage prefers the envelope's message and falls back to the
// status line when the body is not an envelope.
func failureMessage(resp *http.Response, raw []byte) string {
	var env struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Sprintf("HTTP %d: %s", resp.StatusCode, statusText(resp))
	}
	if env.Message == "" {
		return msgRequestFailed
	}
	return env.Message
}

func statusText(resp *http.Response) string {
	text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))
	text = strings.TrimSpace(text)
	if text == "" {
		return http.StatusText(resp.StatusCode)
	}
	return text
}
