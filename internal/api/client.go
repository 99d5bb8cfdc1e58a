// Package api is the client for the search/document service: paginated
// full-text search across sources and single-document retrieval.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/abelbrown/emsal/internal/logging"
	"github.com/abelbrown/emsal/internal/model"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 15 * time.Second

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 32 << 20

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	Sources []model.Source  `json:"sources"`
	Query   string          `json:"query"`
	Filters model.FilterSet `json:"filters"`
	Page    int             `json:"page"`
}

// Client talks to the search/document service. No retries, no caching: one
// call is one request.
type Client struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithRateLimit paces outgoing requests to perSecond. Zero or negative means
// unlimited. Waiting counts against the request timeout.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		} else {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
		}
	}
}

// NewClient creates a Client rooted at baseURL (e.g. "http://localhost:3000").
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		timeout: DefaultTimeout,
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search runs one paginated query.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*model.SearchPage, error) {
	logging.Debug("search request", "query", req.Query, "sources", len(req.Sources), "page", req.Page)

	if req.Sources == nil {
		req.Sources = []model.Source{}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("api: marshal search request: %w", err)
	}

	var page model.SearchPage
	if err := c.do(ctx, opSearch, http.MethodPost, c.baseURL+"/api/search", body, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Document fetches one full document by source and id.
func (c *Client) Document(ctx context.Context, source model.Source, id string) (*model.FullDocument, error) {
	logging.Debug("document request", "source", source, "id", id)

	params := url.Values{}
	params.Set("id", id)
	params.Set("source", string(source))

	var doc model.FullDocument
	if err := c.do(ctx, opDocument, http.MethodGet, c.baseURL+"/api/document?"+params.Encode(), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// do performs one request under the client timeout and decodes a 200 body
// into out. Every failure comes back as *Error.
func (c *Client) do(ctx context.Context, op, method, target string, body []byte, out any) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(reqCtx); err != nil {
		if ctx.Err() == nil {
			// the limiter refuses waits that cannot finish before the deadline
			return &Error{Kind: KindTimeout, Op: op, Message: timeoutMessages[op], Err: err}
		}
		return transportError(reqCtx, op, err)
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, target, reader)
	if err != nil {
		return &Error{Kind: KindConnectivity, Op: op, Message: connectivityMessages[op], Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		e := transportError(reqCtx, op, err)
		logging.Error("api request failed", "op", op, "kind", e.Kind, "error", err)
		return e
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return transportError(reqCtx, op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e := rejected(op, resp, data)
		logging.Error("api request rejected", "op", op, "status", resp.StatusCode, "message", e.Message)
		return e
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindConnectivity, Op: op, Message: connectivityMessages[op], Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// rejected builds the error for a non-success status, preferring the
// server's own message.
func rejected(op string, resp *http.Response, data []byte) *Error {
	e := &Error{Kind: KindServerRejected, Op: op, Status: resp.StatusCode}

	var payload struct {
		Message string `json:"message"`
	}
	switch {
	case json.Unmarshal(data, &payload) != nil:
		e.Message = msgUnreadableBody
	case strings.TrimSpace(payload.Message) != "":
		e.Message = payload.Message
	default:
		e.Message = fmt.Sprintf(msgServerStatus, statusText(resp))
	}
	return e
}

func statusText(resp *http.Response) string {
	if text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); text != "" && text != resp.Status {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
