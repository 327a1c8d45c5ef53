// Package acoustid is a client for the AcoustID fingerprint lookup service.
package acoustid

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.acoustid.org/v2"
	DefaultMeta    = "recordings"
)

// ServiceError reports a failed exchange with the lookup service: transport
// errors, undecodable bodies and unsuccessful statuses.
type ServiceError struct {
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("acoustid: %s: %v", e.Message, e.Err)
	}
	return "acoustid: " + e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

const defaultTimeout = 15 * time.Second

type Client struct {
	apiKey  string
	baseURL string
	timeout time.Duration
	http    *http.Client
}

type Option func(*Client)

func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithHTTPClient replaces the underlying client. Its transport is wrapped
// in a GzipTransport unless it already is one.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		cp := *hc
		if _, ok := hc.Transport.(*GzipTransport); !ok {
			cp.Transport = &GzipTransport{Base: hc.Transport}
		}
		c.http = &cp
	}
}

// WithTimeout overrides the request timeout, including the one carried by a
// client given to WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    &http.Client{Transport: &GzipTransport{}},
	}
	for _, opt := range opts {
		opt(c)
	}

	switch {
	case c.timeout > 0:
		c.http.Timeout = c.timeout
	case c.http.Timeout == 0:
		c.http.Timeout = defaultTimeout
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Lookup sends a fingerprint to {base}/lookup. meta selects which linked
// metadata the service returns; an empty value means "recordings".
func (c *Client) Lookup(ctx context.Context, fingerprint []byte, duration float64, meta string) (*Response, error) {
	if meta == "" {
		meta = DefaultMeta
	}

	form := url.Values{}
	form.Set("format", "json")
	form.Set("client", c.apiKey)
	form.Set("duration", strconv.Itoa(int(duration)))
	form.Set("fingerprint", string(fingerprint))
	form.Set("meta", meta)

	return c.post(ctx, "/lookup", form)
}

func (c *Client) post(ctx context.Context, path string, form url.Values) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &ServiceError{Message: "failed to build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ServiceError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ServiceError{Message: "failed to read response", Err: err}
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &ServiceError{Message: "response is not valid JSON"}
	}

	return &out, nil
}
