package renet

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/yourorg/listings-api/internal/canon"
	"github.com/yourorg/listings-api/internal/listing"
)

// payloadShape is the top-level form of a listings response.
type payloadShape int

const (
	shapeUnknown payloadShape = iota
	shapeArray
	shapeEnvelope
	shapeSingle
)

var ErrMalformedPayload = errors.New("renet: malformed payload")

// Batch is a normalised listings response. Pagination is nil when upstream
// reported none. Dropped counts records that could not be normalised.
type Batch struct {
	Listings   []listing.Listing
	Pagination *Pagination
	Dropped    int
}

// detectShape decides the payload form once; records are decoded afterwards.
func detectShape(raw []byte) (payloadShape, []json.RawMessage, *rawPagination, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return shapeUnknown, nil, nil, ErrMalformedPayload
	}
	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return shapeUnknown, nil, nil, ErrMalformedPayload
		}
		return shapeArray, items, nil, nil
	case '{':
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(raw, &probe); err != nil {
			return shapeUnknown, nil, nil, ErrMalformedPayload
		}
		if list, ok := probe["listings"]; ok {
			var items []json.RawMessage
			if err := json.Unmarshal(list, &items); err != nil {
				return shapeUnknown, nil, nil, ErrMalformedPayload
			}
			var pg *rawPagination
			if p, ok := probe["pagination"]; ok && string(p) != "null" {
				pg = &rawPagination{}
				if err := json.Unmarshal(p, pg); err != nil {
					pg = nil
				}
			}
			return shapeEnvelope, items, pg, nil
		}
		return shapeSingle, []json.RawMessage{raw}, nil, nil
	default:
		return shapeUnknown, nil, nil, ErrMalformedPayload
	}
}

// DecodeListings normalises any listings payload. Individual records that fail
// to decode are dropped; only an unrecognisable top level is an error.
func DecodeListings(raw []byte, header http.Header) (Batch, error) {
	shape, items, pg, err := detectShape(raw)
	if err != nil {
		return Batch{}, err
	}

	b := Batch{Listings: make([]listing.Listing, 0, len(items))}
	for _, item := range items {
		var r rawListing
		if err := json.Unmarshal(item, &r); err != nil {
			b.Dropped++
			continue
		}
		l, ok := mapListing(r)
		if !ok {
			b.Dropped++
			continue
		}
		b.Listings = append(b.Listings, l)
	}
	b.Listings = lo.UniqBy(b.Listings, func(l listing.Listing) string { return l.ListingID })

	if shape == shapeEnvelope && pg != nil {
		b.Pagination = mapPagination(*pg)
	}
	if b.Pagination == nil {
		b.Pagination = paginationFromHeader(header)
	}
	return b, nil
}

func mapListing(r rawListing) (listing.Listing, bool) {
	id := firstNonEmpty(string(r.ListingID), string(r.ID))
	if id == "" {
		return listing.Listing{}, false
	}

	images := make([]listing.Image, 0, len(r.Images))
	for _, im := range r.Images {
		if im.URL == "" {
			continue
		}
		images = append(images, listing.Image{URL: upgradeImageURL(im.URL), Alt: im.Alt})
	}

	agents := make([]listing.Agent, 0, len(r.Agents))
	for _, a := range r.Agents {
		if ag, ok := mapAgent(a); ok {
			agents = append(agents, ag)
		}
	}

	street := joinStreet(string(r.Address.StreetNumber), r.Address.Street)
	display := r.Address.DisplayAddress
	if strings.TrimSpace(display) == "" {
		display = canon.Display(street, r.Address.Suburb, r.Address.State, string(r.Address.Postcode))
	}

	categories := []string(r.Categories)
	if categories == nil {
		categories = []string{}
	}

	return listing.Listing{
		ListingID:   id,
		ID:          id,
		Heading:     strings.TrimSpace(r.Heading),
		Description: r.Description,
		Price:       nonEmpty(r.DisplayPrice, string(r.Price)),
		Address: listing.Address{
			Street:         street,
			Suburb:         r.Address.Suburb,
			State:          r.Address.State,
			Postcode:       string(r.Address.Postcode),
			DisplayAddress: display,
		},
		Images:         images,
		Type:           listing.ParseType(r.Type),
		Categories:     categories,
		DisposalMethod: listing.ParseDisposalMethod(r.DisposalMethod),
		BedBathCarLand: mapFeatures(r),
		Agents:         agents,
		AgencyID:       string(r.AgencyID),
		DateListed:     r.DateListed,
		Status:         r.Status,
	}, true
}

// mapFeatures keeps a structured bedBathCarLand list when upstream sent one and
// otherwise builds it from the flat numeric fields.
func mapFeatures(r rawListing) []listing.Feature {
	if len(r.BedBathCarLand) > 0 {
		out := make([]listing.Feature, 0, len(r.BedBathCarLand))
		for _, f := range r.BedBathCarLand {
			if f.Key == "" {
				continue
			}
			out = append(out, listing.Feature{
				Key:   f.Key,
				Label: nonEmpty(f.Label, listing.FeatureLabel(f.Key)),
				Value: string(f.Value),
			})
		}
		if len(out) > 0 {
			return out
		}
	}
	values := map[string]stringNumber{
		listing.FeatureBedrooms:  r.Bedrooms,
		listing.FeatureBathrooms: r.Bathrooms,
		listing.FeatureCarSpaces: nonEmptyNum(r.CarSpaces, r.Garages),
		listing.FeatureLandSize:  nonEmptyNum(r.LandSize, r.Area),
	}
	out := make([]listing.Feature, 0, len(listing.FeatureOrder))
	for _, key := range listing.FeatureOrder {
		v := string(values[key])
		if v == "" {
			v = "0"
		}
		out = append(out, listing.Feature{Key: key, Label: listing.FeatureLabel(key), Value: v})
	}
	return out
}

func mapAgent(a rawAgent) (listing.Agent, bool) {
	id := firstNonEmpty(string(a.AgentID), string(a.ID))
	if id == "" && a.Name == "" {
		return listing.Agent{}, false
	}
	return listing.Agent{
		AgentID:  id,
		ID:       id,
		Name:     strings.TrimSpace(a.Name),
		Title:    a.Title,
		Email:    a.Email,
		Mobile:   string(a.Mobile),
		Phone:    string(a.Phone),
		ImageURL: upgradeImageURL(a.ImageURL),
		Bio:      nonEmpty(a.Bio, a.Profile),
	}, true
}

// DecodeAgents accepts an array, an {"agents": [...]} envelope or one object.
func DecodeAgents(raw []byte) ([]listing.Agent, error) {
	raw = bytes.TrimSpace(raw)
	var items []rawAgent
	switch {
	case len(raw) == 0:
		return nil, ErrMalformedPayload
	case raw[0] == '[':
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, ErrMalformedPayload
		}
	case raw[0] == '{':
		var env struct {
			Agents *[]rawAgent `json:"agents"`
		}
		if err := json.Unmarshal(raw, &env); err == nil && env.Agents != nil {
			items = *env.Agents
			break
		}
		var one rawAgent
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, ErrMalformedPayload
		}
		items = []rawAgent{one}
	default:
		return nil, ErrMalformedPayload
	}
	out := make([]listing.Agent, 0, len(items))
	for _, a := range items {
		if ag, ok := mapAgent(a); ok {
			out = append(out, ag)
		}
	}
	return lo.UniqBy(out, func(a listing.Agent) string { return a.AgentID + "|" + a.Name }), nil
}

// mapPagination returns nil when the block carries no totals, the same as an
// absent block.
func mapPagination(p rawPagination) *Pagination {
	if strings.TrimSpace(string(p.TotalPages)) == "" && strings.TrimSpace(string(p.TotalResults)) == "" {
		return nil
	}
	return &Pagination{
		CurrentPage:    atoi(string(p.CurrentPage)),
		TotalPages:     atoi(string(p.TotalPages)),
		TotalResults:   atoi(string(p.TotalResults)),
		ResultsPerPage: atoi(string(p.ResultsPerPage)),
		NextPage:       atoi(string(p.NextPage)),
	}
}

// paginationFromHeader reads the X-* pagination headers. Header keys are
// canonicalised by net/http, so X-totalPages arrives as X-Totalpages.
func paginationFromHeader(h http.Header) *Pagination {
	if h == nil {
		return nil
	}
	totalPages := h.Get("X-totalPages")
	totalResults := h.Get("X-totalResults")
	if totalPages == "" && totalResults == "" {
		return nil
	}
	return &Pagination{
		CurrentPage:    atoi(h.Get("X-currentPage")),
		TotalPages:     atoi(totalPages),
		TotalResults:   atoi(totalResults),
		ResultsPerPage: atoi(h.Get("X-resultsPerPage")),
		NextPage:       atoi(h.Get("X-NextPage")),
	}
}

func atoi(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if i, err := strconv.Atoi(s); err == nil {
		return max(i, 0)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return int(f)
	}
	return 0
}

func joinStreet(number, street string) string {
	street = strings.TrimSpace(street)
	number = strings.TrimSpace(number)
	if number == "" || strings.HasPrefix(street, number) {
		return street
	}
	return strings.TrimSpace(number + " " + street)
}

func nonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func nonEmptyNum(a, b stringNumber) stringNumber {
	if a != "" {
		return a
	}
	return b
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
