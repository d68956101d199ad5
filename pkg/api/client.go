package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/nexusforge/console/pkg/api/httpclient"
	"github.com/nexusforge/console/pkg/common/logger"
	"golang.org/x/oauth2"
)

const requestIDHeader = "X-Request-ID"

// Client talks to the registry REST API. It attaches the session token,
// when one exists, to every request and never retries.
type Client struct {
	rest    *resty.Client
	baseURL string
	tokens  oauth2.TokenSource
}

type Options struct {
	BaseURL string
	// Tokens is consulted before every request. A nil source or a source
	// returning an error means the request goes out unauthenticated.
	Tokens  oauth2.TokenSource
	Timeout time.Duration
}

func New(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	c := &Client{
		baseURL: baseURL,
		tokens:  opts.Tokens,
	}

	c.rest = resty.NewWithClient(httpclient.New(opts.Timeout)).
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		OnBeforeRequest(c.authorize).
		OnAfterResponse(logResponse)

	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) authorize(_ *resty.Client, r *resty.Request) error {
	if r.Header.Get(requestIDHeader) == "" {
		r.SetHeader(requestIDHeader, uuid.New().String())
	}
	if c.tokens == nil {
		return nil
	}
	tok, err := c.tokens.Token()
	if err != nil || tok == nil || tok.AccessToken == "" {
		return nil
	}
	r.SetHeader("Authorization", tok.Type()+" "+tok.AccessToken)
	return nil
}

func logResponse(_ *resty.Client, resp *resty.Response) error {
	logger.Log.WithFields(map[string]interface{}{
		"method":     resp.Request.Method,
		"url":        resp.Request.URL,
		"status":     resp.StatusCode(),
		"request_id": resp.Request.Header.Get(requestIDHeader),
		"duration":   resp.Time().Milliseconds(),
	}).Debug("Registry request")
	return nil
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.rest.R().SetContext(ctx)
}

// do executes a JSON request and decodes the response into result when
// result is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var failure errorBody
	req := c.request(ctx).SetError(&failure)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		return newError(method, path, resp.StatusCode(), failure, resp.Body())
	}
	return nil
}
