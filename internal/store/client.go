package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	appLog "hackwave/internal/log"
	"hackwave/internal/model"
)

// StatusError is returned when the API answers with an unexpected status.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Msg    string
}

func (e *StatusError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Code, e.Msg)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Code, http.StatusText(e.Code))
}

// NotFoundMessage is the API error body for an unknown event id. Only a 404
// carrying it means "no such event"; any other 404 is a routing error.
const NotFoundMessage = "event not found"

func isEventNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound && se.Msg == NotFoundMessage
}

// Client is a Store backed by the HackWave HTTP API.
type Client struct {
	base   *url.URL
	client *http.Client

	username string
	password string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client (15s timeout).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.client = hc }
}

// WithBasicAuth sends HTTP Basic credentials on every request.
func WithBasicAuth(username, password string) ClientOption {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// NewClient builds a Client for the API rooted at baseURL
// (e.g. "http://127.0.0.1:8080").
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must include scheme and host", baseURL)
	}
	c := &Client{
		base:   u,
		client: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

var _ Store = (*Client)(nil)

func (c *Client) List(ctx context.Context) ([]model.Event, error) {
	var out []model.Event
	if _, err := c.do(ctx, http.MethodGet, "/api/events", nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (c *Client) ListRecommended(ctx context.Context) ([]model.Event, error) {
	var out []model.Event
	if _, err := c.do(ctx, http.MethodGet, "/api/events/recommended", nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (c *Client) Create(ctx context.Context, fields model.Fields) (model.Event, error) {
	var out model.Event
	if _, err := c.do(ctx, http.MethodPost, "/api/events", fields, &out); err != nil {
		return model.Event{}, err
	}
	return out, nil
}

func (c *Client) Update(ctx context.Context, id string, patch model.Patch) (model.Event, bool, error) {
	var out model.Event
	_, err := c.do(ctx, http.MethodPatch, "/api/events/"+url.PathEscape(id), patch, &out)
	if isEventNotFound(err) {
		return model.Event{}, false, nil
	}
	if err != nil {
		return model.Event{}, false, err
	}
	return out, true, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/events/"+url.PathEscape(id), nil, nil)
	if isEventNotFound(err) {
		return nil
	}
	return err
}

// do sends a JSON request and decodes a 2xx JSON response into out. It always
// returns the HTTP status when a response was received.
func (c *Client) do(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	u := c.base.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&apiErr)
		return resp.StatusCode, &StatusError{Method: method, Path: path, Code: resp.StatusCode, Msg: apiErr.Error}
	}

	if out == nil {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return resp.StatusCode, fmt.Errorf("%s %s: empty response body", method, path)
		}
		return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	appLog.Debug("api call", "method", method, "path", path, "status", resp.StatusCode)
	return resp.StatusCode, nil
}

func nonNil(events []model.Event) []model.Event {
	if events == nil {
		return []model.Event{}
	}
	return events
}
