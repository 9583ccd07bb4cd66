// Package renet talks to the ReNet website API: listings, agents and the
// enquiry forms endpoint. Every call is a single attempt with a bounded timeout.
package renet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/yourorg/listings-api/internal/listing"
	"github.com/yourorg/listings-api/internal/logger"
)

const maxBody = 4 << 20

var ErrNotFound = errors.New("renet: not found")

type Config struct {
	BaseURL     string
	Token       string
	PublicToken string
	Timeout     time.Duration
	// RPS <= 0 disables the outbound limiter.
	RPS   float64
	Burst int
}

type Client struct {
	baseURL     string
	token       string
	publicToken string
	http        *retryablehttp.Client
	limiter     *rate.Limiter
}

func NewClient(cfg Config) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 0
	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		return false, err
	}
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = nil
	rc.HTTPClient.Timeout = cfg.Timeout
	if rc.HTTPClient.Timeout <= 0 {
		rc.HTTPClient.Timeout = 8 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		token:       cfg.Token,
		publicToken: cfg.PublicToken,
		http:        rc,
		limiter:     limiter,
	}
}

type tokenKey struct{}

// WithToken overrides the bearer token for calls made with ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// bearer resolves the token: request override, then server secret, then public token.
func (c *Client) bearer(ctx context.Context) string {
	if t, ok := ctx.Value(tokenKey{}).(string); ok && t != "" {
		return t
	}
	if c.token != "" {
		return c.token
	}
	return c.publicToken
}

// ListingsQuery is one page request against /Website/Listings.
type ListingsQuery struct {
	Type           string
	DisposalMethod string
	Categories     []string
	PropertyType   string
	Page           int
	PageSize       int
	OrderBy        string
	OrderDirection string
	// Extra carries pass-through filters such as suburb or minPrice.
	Extra url.Values
}

func (q ListingsQuery) Values() url.Values {
	v := url.Values{}
	for k, vals := range q.Extra {
		v[k] = append([]string(nil), vals...)
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	v.Set("page", strconv.Itoa(page))
	if q.PageSize > 0 {
		v.Set("resultsPerPage", strconv.Itoa(q.PageSize))
	}
	setIf(v, "disposalMethod", q.DisposalMethod)
	setIf(v, "type", q.Type)
	setIf(v, "propertyType", q.PropertyType)
	if len(q.Categories) > 0 {
		v.Set("category", strings.Join(q.Categories, ","))
	}
	setIf(v, "orderBy", q.OrderBy)
	setIf(v, "orderDirection", q.OrderDirection)
	return v
}

func setIf(v url.Values, k, val string) {
	if val != "" {
		v.Set(k, val)
	}
}

type response struct {
	body   []byte
	header http.Header
	status int
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body []byte) (*response, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			// Wait refuses early when the deadline cannot be met; report that as a timeout.
			if _, ok := ctx.Deadline(); ok && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
			}
			return nil, &UpstreamError{Endpoint: path, Err: err}
		}
	}

	var rawBody interface{}
	if body != nil {
		rawBody = body
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, u, rawBody)
	if err != nil {
		return nil, &UpstreamError{Endpoint: path, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.bearer(ctx))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Pragma", "no-cache")
	if id := logger.TraceID(ctx); id != "" {
		req.Header.Set(logger.TraceHeader, id)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &UpstreamError{Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	b, err := ioReadAllLimit(resp.Body, maxBody)
	logger.FromContext(ctx).Debug("upstream call", logger.Fields{
		"method":      method,
		"endpoint":    path,
		"status_code": resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		return nil, &UpstreamError{Endpoint: path, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Endpoint: path, Status: resp.StatusCode, Body: string(b)}
	}
	return &response{body: b, header: resp.Header, status: resp.StatusCode}, nil
}

// Listings fetches one page and normalises it.
func (c *Client) Listings(ctx context.Context, q ListingsQuery) (Batch, error) {
	resp, err := c.do(ctx, http.MethodGet, "/Website/Listings", q.Values(), nil)
	if err != nil {
		return Batch{}, err
	}
	b, err := DecodeListings(resp.body, resp.header)
	if err != nil {
		return Batch{}, &UpstreamError{Endpoint: "/Website/Listings", Status: resp.status, Body: string(resp.body), Err: err}
	}
	return b, nil
}

func (c *Client) Listing(ctx context.Context, id string) (listing.Listing, error) {
	path := "/Website/Listings/" + url.PathEscape(id)
	resp, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return listing.Listing{}, err
	}
	b, err := DecodeListings(resp.body, resp.header)
	if err != nil {
		return listing.Listing{}, &UpstreamError{Endpoint: path, Status: resp.status, Body: string(resp.body), Err: err}
	}
	if len(b.Listings) == 0 {
		return listing.Listing{}, ErrNotFound
	}
	return b.Listings[0], nil
}

func (c *Client) Agents(ctx context.Context) ([]listing.Agent, error) {
	resp, err := c.do(ctx, http.MethodGet, "/Website/Agents", nil, nil)
	if err != nil {
		return nil, err
	}
	agents, err := DecodeAgents(resp.body)
	if err != nil {
		return nil, &UpstreamError{Endpoint: "/Website/Agents", Status: resp.status, Body: string(resp.body), Err: err}
	}
	return agents, nil
}

func (c *Client) Agent(ctx context.Context, id string) (listing.Agent, error) {
	path := "/Website/Agents/" + url.PathEscape(id)
	resp, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return listing.Agent{}, err
	}
	agents, err := DecodeAgents(resp.body)
	if err != nil {
		return listing.Agent{}, &UpstreamError{Endpoint: path, Status: resp.status, Body: string(resp.body), Err: err}
	}
	if len(agents) == 0 {
		return listing.Agent{}, ErrNotFound
	}
	return agents[0], nil
}

// AgentListings pages through an agent's listings by offset.
func (c *Client) AgentListings(ctx context.Context, agentID string, offset, limit int) (Batch, error) {
	q := url.Values{}
	q.Set("agentID", agentID)
	q.Set("offset", strconv.Itoa(max(offset, 0)))
	q.Set("limit", strconv.Itoa(limit))
	resp, err := c.do(ctx, http.MethodGet, "/Website/Listings", q, nil)
	if err != nil {
		return Batch{}, err
	}
	b, err := DecodeListings(resp.body, resp.header)
	if err != nil {
		return Batch{}, &UpstreamError{Endpoint: "/Website/Listings", Status: resp.status, Body: string(resp.body), Err: err}
	}
	return b, nil
}

// AgentListingCount asks upstream for the agent's total listing count.
func (c *Client) AgentListingCount(ctx context.Context, agentID string) (int, error) {
	q := url.Values{}
	q.Set("agentID", agentID)
	q.Set("count", "true")
	resp, err := c.do(ctx, http.MethodGet, "/Website/Listings", q, nil)
	if err != nil {
		return 0, err
	}
	var out struct {
		Total stringNumber `json:"total"`
	}
	if err := json.Unmarshal(resp.body, &out); err == nil && out.Total != "" {
		return atoi(string(out.Total)), nil
	}
	b, err := DecodeListings(resp.body, resp.header)
	if err != nil {
		return 0, &UpstreamError{Endpoint: "/Website/Listings", Status: resp.status, Body: string(resp.body), Err: err}
	}
	if b.Pagination != nil && b.Pagination.TotalResults > 0 {
		return b.Pagination.TotalResults, nil
	}
	return len(b.Listings), nil
}

// SubmitForm posts one form payload, wrapped in a single-element array.
func (c *Client) SubmitForm(ctx context.Context, payload any) (FormReceipt, error) {
	const path = "/Website/Forms"
	body, err := json.Marshal([]any{payload})
	if err != nil {
		return FormReceipt{}, fmt.Errorf("encode form payload: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return FormReceipt{}, err
	}
	receipt, err := decodeReceipt(resp.body)
	if err != nil {
		return FormReceipt{}, &UpstreamError{Endpoint: path, Status: resp.status, Body: string(resp.body), Err: err}
	}
	return receipt, nil
}

func decodeReceipt(raw []byte) (FormReceipt, error) {
	type ack struct {
		ID           stringNumber `json:"id"`
		SubmissionID stringNumber `json:"submissionId"`
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var acks []ack
		if err := json.Unmarshal(raw, &acks); err != nil {
			return FormReceipt{}, ErrMalformedPayload
		}
		if len(acks) == 0 {
			return FormReceipt{}, nil
		}
		return FormReceipt{ID: firstNonEmpty(string(acks[0].ID), string(acks[0].SubmissionID))}, nil
	}
	var a ack
	if err := json.Unmarshal(raw, &a); err != nil {
		return FormReceipt{}, ErrMalformedPayload
	}
	return FormReceipt{ID: firstNonEmpty(string(a.ID), string(a.SubmissionID))}, nil
}

func ioReadAllLimit(r io.Reader, limit int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, errors.New("payload too large")
	}
	return b, nil
}
