package httpapi

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/yourorg/listings-api/internal/apierr"
	"github.com/yourorg/listings-api/internal/canon"
	"github.com/yourorg/listings-api/internal/category"
	"github.com/yourorg/listings-api/internal/env"
	"github.com/yourorg/listings-api/internal/featured"
	"github.com/yourorg/listings-api/internal/listing"
	"github.com/yourorg/listings-api/internal/logger"
	"github.com/yourorg/listings-api/internal/paging"
)

// ListingFetcher loads one listing by id.
type ListingFetcher interface {
	Listing(ctx context.Context, id string) (listing.Listing, error)
}

type ListingsDeps struct {
	Pager    *paging.Reconciler
	Featured *featured.Engine
	Upstream ListingFetcher
	Agency   category.Agency
}

type pageResponse struct {
	Success bool `json:"success"`
	listing.Page
	Title             string   `json:"title"`
	Query             string   `json:"query,omitempty"`
	IgnoredCategories []string `json:"ignoredCategories,omitempty"`
	Timestamp         string   `json:"timestamp"`
}

var (
	reOrderBy   = regexp.MustCompile(`^[A-Za-z]{1,32}$`)
	reSuburbBad = regexp.MustCompile(`[<>"%;()&+]`)
)

// numeric filters forwarded verbatim when valid
var numericFilters = []string{"minPrice", "maxPrice", "bedrooms", "bathrooms"}

func RegisterListings(r chi.Router, d ListingsDeps) {
	r.Get("/api/listings", func(w http.ResponseWriter, req *http.Request) {
		handlePage(w, req, d, paging.ServerTrusted)
	})
	r.Get("/api/search", func(w http.ResponseWriter, req *http.Request) {
		handlePage(w, req, d, paging.FetchAll)
	})
	r.Get("/api/listings/featured", func(w http.ResponseWriter, req *http.Request) {
		picks := d.Featured.Select(req.Context())
		writeJSON(w, req, http.StatusOK, map[string]any{
			"success":   true,
			"listings":  picks,
			"count":     len(picks),
			"timestamp": timestamp(),
		})
	})
	r.Get("/api/listings/{listingID}", func(w http.ResponseWriter, req *http.Request) {
		id := strings.TrimSpace(chi.URLParam(req, "listingID"))
		if id == "" {
			writeError(w, req, apierr.Validation("Missing listing ID", "listingID"))
			return
		}
		l, err := d.Upstream.Listing(req.Context(), id)
		if err != nil {
			writeError(w, req, err)
			return
		}
		writeJSON(w, req, http.StatusOK, map[string]any{
			"success":   true,
			"listing":   l,
			"features":  listing.DisplayFeatures(l.BedBathCarLand),
			"timestamp": timestamp(),
		})
	})
}

func handlePage(w http.ResponseWriter, req *http.Request, d ListingsDeps, mode paging.Mode) {
	q := req.URL.Query()
	ctx := req.Context()

	target, ok := category.ParsePropertyType(q.Get("type"))
	if !ok {
		writeError(w, req, apierr.Validation("Unknown property type "+strconv.Quote(q.Get("type")), "type"))
		return
	}
	disposal, err := parseDisposal(q.Get("disposalMethod"))
	if err != nil {
		writeError(w, req, err)
		return
	}
	plan, err := category.Build(category.Request{
		Target:      target,
		Subcategory: q.Get("subcategory"),
		Categories:  categoriesParam(q),
		Disposal:    disposal,
		Agency:      d.Agency,
	})
	if err != nil {
		writeError(w, req, apierr.Validation(err.Error(), "type", "subcategory"))
		return
	}
	extra, err := filterParams(q)
	if err != nil {
		writeError(w, req, err)
		return
	}

	preq := paging.Request{
		Plan:           plan,
		Page:           paging.CoercePage(q.Get("page")),
		PageSize:       paging.CoercePageSize(q.Get("pageSize"), 0, 0),
		OrderBy:        orderBy(q.Get("orderBy")),
		OrderDirection: orderDirection(q.Get("orderDirection")),
		Extra:          extra,
	}
	text := strings.TrimSpace(q.Get("q"))
	if mode == paging.FetchAll {
		preq.Terms = canon.Terms(text)
	}

	page, err := d.Pager.Page(ctx, mode, preq)
	if err != nil {
		writeError(w, req, err)
		return
	}
	if len(plan.Ignored) > 0 {
		logger.FromContext(ctx).Debug("ignored categories", logger.Fields{"ignored": plan.Ignored, "type": string(plan.Target)})
	}
	writeJSON(w, req, http.StatusOK, pageResponse{
		Success:           true,
		Page:              page,
		Title:             category.TitleFor(plan.Target, q.Get("subcategory")),
		Query:             text,
		IgnoredCategories: plan.Ignored,
		Timestamp:         timestamp(),
	})
}

// categoriesParam accepts ?category=a,b and repeated ?category= values.
func categoriesParam(q url.Values) []string {
	var out []string
	for _, v := range q["category"] {
		out = append(out, env.SplitList(v)...)
	}
	return out
}

func parseDisposal(raw string) (listing.DisposalMethod, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	m := listing.ParseDisposalMethod(raw)
	if m == "" {
		return "", apierr.Validation("Unknown disposal method "+strconv.Quote(raw), "disposalMethod")
	}
	return m, nil
}

func filterParams(q url.Values) (url.Values, error) {
	extra := url.Values{}
	var bad []string
	for _, k := range numericFilters {
		v := strings.TrimSpace(q.Get(k))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			bad = append(bad, k)
			continue
		}
		extra.Set(k, strconv.Itoa(n))
	}
	if s := strings.TrimSpace(q.Get("suburb")); s != "" {
		if reSuburbBad.MatchString(s) || len(s) > 100 {
			bad = append(bad, "suburb")
		} else {
			extra.Set("suburb", s)
		}
	}
	if len(bad) > 0 {
		return nil, apierr.Validation("Invalid filter: "+strings.Join(bad, ", "), bad...)
	}
	return extra, nil
}

func orderBy(raw string) string {
	raw = strings.TrimSpace(raw)
	if !reOrderBy.MatchString(raw) {
		return ""
	}
	return raw
}

func orderDirection(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "asc":
		return "asc"
	case "desc":
		return "desc"
	default:
		return ""
	}
}
