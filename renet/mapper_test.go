package renet

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/listings-api/internal/listing"
)

func TestDecodeListingsArrayShape(t *testing.T) {
	raw := []byte(`[
		{"id": 101, "heading": "Family home", "type": "Residential", "disposalMethod": "forSale",
		 "price": 650000, "bedrooms": 4, "bathrooms": "2", "carSpaces": null, "landSize": 0,
		 "images": [{"url": "http://cdn.renet.app/a.jpg?w=800"}, "https://cdn.renet.app/b.jpg"],
		 "categories": "House, Villa",
		 "address": {"streetNumber": "12", "street": "Shore St", "suburb": "Mackay", "state": "QLD", "postcode": 4740}},
		{"listingID": "L-2", "heading": "Unit", "address": "3/4 Wood St, Mackay QLD 4740"}
	]`)
	h := http.Header{}
	h.Set("X-totalPages", "4")
	h.Set("X-totalResults", "40")
	h.Set("X-currentPage", "1")

	b, err := DecodeListings(raw, h)
	require.NoError(t, err)
	require.Len(t, b.Listings, 2)
	require.NotNil(t, b.Pagination)
	assert.Equal(t, 4, b.Pagination.TotalPages)
	assert.Equal(t, 40, b.Pagination.TotalResults)

	first := b.Listings[0]
	assert.Equal(t, "101", first.ListingID)
	assert.Equal(t, first.ListingID, first.ID)
	assert.Equal(t, "650000", first.Price)
	assert.Equal(t, listing.TypeResidential, first.Type)
	assert.Equal(t, listing.ForSale, first.DisposalMethod)
	assert.Equal(t, []string{"House", "Villa"}, first.Categories)
	assert.Equal(t, "12 Shore St", first.Address.Street)
	assert.Equal(t, "4740", first.Address.Postcode)
	assert.Equal(t, "12 Shore St, Mackay QLD 4740", first.Address.DisplayAddress)
	assert.Equal(t, "https://cdn.renet.app/a.jpg?w=800", first.Images[0].URL)
	assert.Equal(t, "https://cdn.renet.app/b.jpg", first.Images[1].URL)
	assert.Equal(t, []listing.Feature{
		{Key: "bedrooms", Label: "Bedrooms", Value: "4"},
		{Key: "bathrooms", Label: "Bathrooms", Value: "2"},
		{Key: "carSpaces", Label: "Car Spaces", Value: "0"},
		{Key: "landSize", Label: "Land Size", Value: "0"},
	}, first.BedBathCarLand)

	second := b.Listings[1]
	assert.Equal(t, "L-2", second.ID)
	assert.Equal(t, "3/4 Wood St, Mackay QLD 4740", second.Address.DisplayAddress)
	assert.Empty(t, second.Images)
	assert.Equal(t, []string{}, second.Categories)
}

func TestDecodeListingsEnvelopeShape(t *testing.T) {
	raw := []byte(`{"listings": [{"id": "a"}, {"id": "b"}], "pagination": {"currentPage": 2, "totalPages": "3", "totalResults": 30}}`)

	b, err := DecodeListings(raw, nil)
	require.NoError(t, err)
	assert.Len(t, b.Listings, 2)
	require.NotNil(t, b.Pagination)
	assert.Equal(t, 2, b.Pagination.CurrentPage)
	assert.Equal(t, 3, b.Pagination.TotalPages)
	assert.Equal(t, 30, b.Pagination.TotalResults)
}

func TestDecodeListingsSingleObject(t *testing.T) {
	b, err := DecodeListings([]byte(`{"listingID": "77", "heading": "Acreage"}`), nil)
	require.NoError(t, err)
	require.Len(t, b.Listings, 1)
	assert.Equal(t, "77", b.Listings[0].ListingID)
	assert.Nil(t, b.Pagination)
}

func TestDecodeListingsDropsBadRecords(t *testing.T) {
	raw := []byte(`[{"id": "ok"}, {"id": {"nested": true}}, {"heading": "no id"}, "junk", {"id": "ok"}]`)

	b, err := DecodeListings(raw, nil)
	require.NoError(t, err)
	require.Len(t, b.Listings, 1)
	assert.Equal(t, "ok", b.Listings[0].ID)
	assert.Equal(t, 3, b.Dropped)
}

func TestDecodeListingsRejectsGarbage(t *testing.T) {
	_, err := DecodeListings([]byte(`<html>bad gateway</html>`), nil)
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestBedBathCarLandRoundTrip(t *testing.T) {
	raw := []byte(`[{"id": "1", "bedBathCarLand": [
		{"key": "bedrooms", "label": "Bedrooms", "value": 3},
		{"key": "bathrooms", "label": "Bathrooms", "value": "N/A"},
		{"key": "carSpaces", "label": "Car Spaces", "value": 0},
		{"key": "landSize", "label": "Land Size", "value": "612"}
	]}]`)

	b, err := DecodeListings(raw, nil)
	require.NoError(t, err)
	shown := listing.DisplayFeatures(b.Listings[0].BedBathCarLand)

	got := map[string]string{}
	for _, f := range shown {
		got[f.Key] = f.Value
	}
	assert.Equal(t, map[string]string{"bedrooms": "3", "landSize": "612"}, got)
}

func TestDecodeAgentsShapes(t *testing.T) {
	agents, err := DecodeAgents([]byte(`[{"agentID": 5, "name": "Jane Citizen", "mobile": "0400 000 000", "profile": "Sales"}]`))
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, "5", agents[0].ID)
	assert.Equal(t, "Sales", agents[0].Bio)

	agents, err = DecodeAgents([]byte(`{"agents": [{"id": "9", "name": "John Smith"}]}`))
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, "9", agents[0].AgentID)

	agents, err = DecodeAgents([]byte(`{"id": "3", "name": "Solo"}`))
	require.NoError(t, err)
	require.Len(t, agents, 1)
}

func TestUpgradeImageURL(t *testing.T) {
	assert.Equal(t, "https://x.test/p/a.jpg?v=1", upgradeImageURL("http://x.test/p/a.jpg?v=1"))
	assert.Equal(t, "https://x.test/a.jpg", upgradeImageURL("https://x.test/a.jpg"))
	assert.Equal(t, "/local/a.jpg", upgradeImageURL("/local/a.jpg"))
}

func TestDecodeListingsEnvelopeWithoutTotals(t *testing.T) {
	raw := []byte(`{"listings": [{"id": "a"}], "pagination": {"currentPage": 1}}`)
	b, err := DecodeListings(raw, nil)
	require.NoError(t, err)
	assert.Nil(t, b.Pagination)

	h := http.Header{}
	h.Set("X-totalPages", "4")
	h.Set("X-totalResults", "40")
	b, err = DecodeListings(raw, h)
	require.NoError(t, err)
	require.NotNil(t, b.Pagination)
	assert.Equal(t, 4, b.Pagination.TotalPages)
}
