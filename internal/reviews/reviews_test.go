package reviews

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/listings-api/internal/apierr"
)

type fakeSource struct {
	calls int
	snap  Snapshot
	err   error
}

func (f *fakeSource) Fetch(context.Context) (Snapshot, error) {
	f.calls++
	return f.snap, f.err
}

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newCache(src Source, clk *clock) *Cache {
	return &Cache{Store: NewMemoryStore(), Source: src, TTL: time.Hour, Now: clk.Now}
}

func TestCache_FreshWithinTTL(t *testing.T) {
	clk := &clock{t: t0}
	src := &fakeSource{snap: Snapshot{Reviews: []Review{{AuthorName: "A", Rating: 5}}, FetchedAt: t0}}
	c := newCache(src, clk)

	v, err := c.Get(context.Background(), false)
	require.NoError(t, err)
	assert.False(t, v.Cached)
	assert.Equal(t, 1, src.calls)

	clk.t = t0.Add(30 * time.Minute)
	v, err = c.Get(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, v.Cached)
	assert.Equal(t, 1, src.calls)

	clk.t = t0.Add(61 * time.Minute)
	src.snap.FetchedAt = clk.t
	v, err = c.Get(context.Background(), false)
	require.NoError(t, err)
	assert.False(t, v.Cached)
	assert.Equal(t, 2, src.calls)
	assert.Equal(t, clk.t, v.FetchedAt)
}

func TestCache_ForceRefetches(t *testing.T) {
	clk := &clock{t: t0}
	src := &fakeSource{snap: Snapshot{FetchedAt: t0}}
	c := newCache(src, clk)

	_, err := c.Get(context.Background(), false)
	require.NoError(t, err)
	_, err = c.Get(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestCache_StaleOnError(t *testing.T) {
	clk := &clock{t: t0}
	src := &fakeSource{snap: Snapshot{Reviews: []Review{{AuthorName: "A", Rating: 5}}, FetchedAt: t0}}
	c := newCache(src, clk)
	_, err := c.Get(context.Background(), false)
	require.NoError(t, err)

	clk.t = t0.Add(3 * time.Hour)
	src.err = errors.New("boom")
	v, err := c.Get(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, v.Cached)
	assert.Equal(t, StaleWarning, v.Warning)
	assert.Len(t, v.Reviews, 1)
}

func TestCache_ErrorsWithoutEntry(t *testing.T) {
	clk := &clock{t: t0}

	c := newCache(&fakeSource{err: &PlacesError{Status: "REQUEST_DENIED"}}, clk)
	_, err := c.Get(context.Background(), false)
	var ae *apierr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, http.StatusServiceUnavailable, ae.Status)
	assert.Contains(t, ae.Message, "REQUEST_DENIED")

	c = newCache(&fakeSource{err: errors.New("dial tcp")}, clk)
	_, err = c.Get(context.Background(), false)
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, http.StatusInternalServerError, ae.Status)
}

func TestCache_NotConfigured(t *testing.T) {
	c := &Cache{Store: NewMemoryStore(), TTL: time.Hour}
	_, err := c.Get(context.Background(), false)
	var ae *apierr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, apierr.CodeServiceUnavailable, ae.Code)
	assert.Equal(t, "Google Reviews not configured", ae.Message)
}

func TestPlacesClient_FiltersSortsAndCaps(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{"place_id": q.Get("place_id"), "fields": q.Get("fields"), "language": q.Get("language"), "key": q.Get("key")}
		reviews := `{"author_name":"low","rating":3,"text":"meh","time":999}`
		for i := 1; i <= 12; i++ {
			reviews += fmt.Sprintf(`,{"author_name":"r%d","rating":5,"text":"great","time":%d}`, i, i)
		}
		fmt.Fprintf(w, `{"status":"OK","result":{"name":"Acme Realty","rating":4.8,"user_ratings_total":120,"url":"https://maps.google.com/?cid=1","reviews":[%s]}}`, reviews)
	}))
	defer srv.Close()

	c := NewPlacesClient(PlacesConfig{BaseURL: srv.URL, APIKey: "k", PlaceID: "p1"})
	c.now = func() time.Time { return t0 }
	snap, err := c.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"place_id": "p1", "fields": "reviews,rating,user_ratings_total,name,url", "language": "en", "key": "k"}, gotQuery)
	require.Len(t, snap.Reviews, 10)
	assert.Equal(t, "r12", snap.Reviews[0].AuthorName)
	assert.Equal(t, "r3", snap.Reviews[9].AuthorName)
	assert.Equal(t, Summary{AverageRating: 4.8, TotalRatings: 120, BusinessName: "Acme Realty", GoogleMapsURL: "https://maps.google.com/?cid=1", TotalReviews: 13, FiveStarCount: 12}, snap.Summary)
	assert.Equal(t, t0, snap.FetchedAt)
}

func TestPlacesClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"INVALID_REQUEST","error_message":"bad place"}`))
	}))
	defer srv.Close()

	_, err := NewPlacesClient(PlacesConfig{BaseURL: srv.URL, APIKey: "k", PlaceID: "p"}).Fetch(context.Background())
	var pe *PlacesError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "INVALID_REQUEST", pe.Status)
}

func TestRedisEnvelope(t *testing.T) {
	s := Snapshot{Reviews: []Review{{AuthorName: "A", Rating: 5, Time: 7}}, Summary: Summary{BusinessName: "Acme"}, FetchedAt: t0}
	b, err := encodeEntry(s, DefaultRedisKeyTTL)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"ttl_seconds":86400`)
	assert.Contains(t, string(b), `"source":"google_places"`)

	got, err := decodeEntry(string(b))
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Summary.BusinessName)
	assert.True(t, t0.Equal(got.FetchedAt))

	_, err = decodeEntry("{not json")
	assert.Error(t, err)
}
