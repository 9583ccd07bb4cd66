package renet

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc, cfg Config) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg.BaseURL = srv.URL
	return NewClient(cfg)
}

func TestBearerTokenPriority(t *testing.T) {
	var got string
	h := func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}

	c := newTestClient(t, h, Config{Token: "server", PublicToken: "public"})
	_, err := c.Listings(context.Background(), ListingsQuery{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer server", got)

	_, err = c.Listings(WithToken(context.Background(), "override"), ListingsQuery{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer override", got)

	c = newTestClient(t, h, Config{PublicToken: "public"})
	_, err = c.Listings(context.Background(), ListingsQuery{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer public", got)
}

func TestListingsQueryAndHeaders(t *testing.T) {
	var q url.Values
	var hdr http.Header
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q = r.URL.Query()
		hdr = r.Header.Clone()
		assert.Equal(t, "/Website/Listings", r.URL.Path)
		_, _ = w.Write([]byte(`{"listings": [], "pagination": {"totalPages": 0}}`))
	}, Config{Token: "t"})

	_, err := c.Listings(context.Background(), ListingsQuery{
		Type:           "Residential",
		DisposalMethod: "forSale",
		Categories:     []string{"House", "Unit"},
		Page:           0,
		PageSize:       12,
		OrderBy:        "dateListed",
		OrderDirection: "desc",
		Extra:          url.Values{"suburb": {"Mackay"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "1", q.Get("page"))
	assert.Equal(t, "12", q.Get("resultsPerPage"))
	assert.Equal(t, "forSale", q.Get("disposalMethod"))
	assert.Equal(t, "Residential", q.Get("type"))
	assert.Equal(t, "House,Unit", q.Get("category"))
	assert.Equal(t, "Mackay", q.Get("suburb"))
	assert.Equal(t, "application/json", hdr.Get("Content-Type"))
	assert.Equal(t, "no-store", hdr.Get("Cache-Control"))
}

func TestUpstreamErrorCarriesStatusAndBody(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"db down"}`))
	}, Config{Token: "t"})

	_, err := c.Listings(context.Background(), ListingsQuery{})
	require.Error(t, err)
	ue, ok := AsUpstream(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, ue.Status)
	assert.Equal(t, `{"error":"db down"}`, ue.Body)
	assert.Equal(t, int32(1), calls.Load(), "single attempt, no retries")
}

func TestTimeoutIsReported(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`[]`))
	}, Config{Token: "t", Timeout: 20 * time.Millisecond})

	_, err := c.Listings(context.Background(), ListingsQuery{})
	ue, ok := AsUpstream(err)
	require.True(t, ok)
	assert.True(t, ue.Timeout())
	assert.Equal(t, 0, ue.Status)
}

func TestListingNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/Website/Listings/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}, Config{Token: "t"})

	_, err := c.Listing(context.Background(), "missing")
	ue, ok := AsUpstream(err)
	require.True(t, ok)
	assert.True(t, ue.NotFound())

	_, err = c.Listing(context.Background(), "empty")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubmitFormWrapsPayloadInArray(t *testing.T) {
	var body []map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/Website/Forms", r.URL.Path)
		b, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(b, &body))
		_, _ = w.Write([]byte(`{"submissionId": 991}`))
	}, Config{Token: "t"})

	receipt, err := c.SubmitForm(context.Background(), map[string]any{"type": "General Contact Inquiry"})
	require.NoError(t, err)
	assert.Equal(t, "991", receipt.ID)
	require.Len(t, body, 1)
	assert.Equal(t, "General Contact Inquiry", body[0]["type"])
}

func TestAgentListingCount(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("count"))
		assert.Equal(t, "42", r.URL.Query().Get("agentID"))
		_, _ = w.Write([]byte(`{"total": 17}`))
	}, Config{Token: "t"})

	n, err := c.AgentListingCount(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, 17, n)
}

func TestRateLimitWaitPastDeadlineIsTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}, Config{Token: "t", RPS: 1, Burst: 1})

	_, err := c.Listings(context.Background(), ListingsQuery{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = c.Listings(ctx, ListingsQuery{})
	ue, ok := AsUpstream(err)
	require.True(t, ok)
	assert.True(t, ue.Timeout())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
