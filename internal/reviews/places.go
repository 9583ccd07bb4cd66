package reviews

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/samber/lo"

	"github.com/yourorg/listings-api/internal/logger"
)

const (
	DefaultPlacesURL = "https://maps.googleapis.com/maps/api/place/details/json"
	detailFields     = "reviews,rating,user_ratings_total,name,url"
	maxReviews       = 10
)

// Review mirrors one entry of the Places Details reviews array.
type Review struct {
	AuthorName              string `json:"author_name"`
	AuthorURL               string `json:"author_url,omitempty"`
	Language                string `json:"language,omitempty"`
	ProfilePhotoURL         string `json:"profile_photo_url,omitempty"`
	Rating                  int    `json:"rating"`
	RelativeTimeDescription string `json:"relative_time_description,omitempty"`
	Text                    string `json:"text"`
	Time                    int64  `json:"time"`
}

type Summary struct {
	AverageRating float64 `json:"averageRating"`
	TotalRatings  int     `json:"totalRatings"`
	BusinessName  string  `json:"businessName"`
	GoogleMapsURL string  `json:"googleMapsUrl"`
	TotalReviews  int     `json:"totalReviews"`
	FiveStarCount int     `json:"fiveStarCount"`
}

// Snapshot is one fetch worth of reviews. It is replaced wholesale on refresh.
type Snapshot struct {
	Reviews   []Review  `json:"reviews"`
	Summary   Summary   `json:"summary"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// PlacesError is a non-OK status in an otherwise successful Places response.
type PlacesError struct {
	Status  string
	Message string
}

func (e *PlacesError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("google places: %s: %s", e.Status, e.Message)
	}
	return "google places: " + e.Status
}

type PlacesConfig struct {
	BaseURL string
	APIKey  string
	PlaceID string
	Timeout time.Duration
}

type PlacesClient struct {
	cfg  PlacesConfig
	http *retryablehttp.Client
	now  func() time.Time
}

func NewPlacesClient(cfg PlacesConfig) *PlacesClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultPlacesURL
	}
	rc := retryablehttp.NewClient()
	rc.RetryMax = 0
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = nil
	rc.HTTPClient.Timeout = cfg.Timeout
	if rc.HTTPClient.Timeout <= 0 {
		rc.HTTPClient.Timeout = 8 * time.Second
	}
	return &PlacesClient{cfg: cfg, http: rc, now: time.Now}
}

type detailsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Result       struct {
		Reviews          []Review `json:"reviews"`
		Rating           float64  `json:"rating"`
		UserRatingsTotal int      `json:"user_ratings_total"`
		Name             string   `json:"name"`
		URL              string   `json:"url"`
	} `json:"result"`
}

// Fetch loads place details and keeps the newest five-star reviews.
func (c *PlacesClient) Fetch(ctx context.Context) (Snapshot, error) {
	q := url.Values{}
	q.Set("place_id", c.cfg.PlaceID)
	q.Set("fields", detailFields)
	q.Set("key", c.cfg.APIKey)
	q.Set("language", "en")

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Snapshot{}, err
	}
	logger.FromContext(ctx).Debug("fetching google reviews", logger.Fields{"place_id": c.cfg.PlaceID})
	resp, err := c.http.Do(req)
	if err != nil {
		// the request URL carries the API key
		return Snapshot{}, fmt.Errorf("google places request failed: %s", redact(err.Error(), c.cfg.APIKey))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Snapshot{}, fmt.Errorf("google places responded with status %d", resp.StatusCode)
	}

	var body detailsResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return Snapshot{}, fmt.Errorf("decode google places response: %w", err)
	}
	if body.Status != "OK" {
		return Snapshot{}, &PlacesError{Status: body.Status, Message: body.ErrorMessage}
	}
	return buildSnapshot(body, c.now()), nil
}

func buildSnapshot(body detailsResponse, now time.Time) Snapshot {
	five := lo.Filter(body.Result.Reviews, func(r Review, _ int) bool { return r.Rating == 5 })
	sort.SliceStable(five, func(i, j int) bool { return five[i].Time > five[j].Time })
	kept := five
	if len(kept) > maxReviews {
		kept = kept[:maxReviews]
	}
	return Snapshot{
		Reviews: append([]Review{}, kept...),
		Summary: Summary{
			AverageRating: body.Result.Rating,
			TotalRatings:  body.Result.UserRatingsTotal,
			BusinessName:  body.Result.Name,
			GoogleMapsURL: body.Result.URL,
			TotalReviews:  len(body.Result.Reviews),
			FiveStarCount: len(five),
		},
		FetchedAt: now,
	}
}

func redact(s, secret string) string {
	if secret == "" {
		return s
	}
	return strings.ReplaceAll(s, secret, "REDACTED")
}
