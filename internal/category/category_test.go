package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/listings-api/internal/listing"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"house":                   House,
		"  SERVICED   apartment ": ServicedApartment,
		"condo":                   Apartment,
		"Flat":                    Unit,
		"acre":                    Acerage,
		"<Villa>":                 Villa,
	}
	for in, want := range cases {
		got, ok := Normalize(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := Normalize("castle")
	assert.False(t, ok)
	_, ok = Normalize("   ")
	assert.False(t, ok)
}

func TestBuildResidential(t *testing.T) {
	p, err := Build(Request{Target: Buy, Categories: []string{"house", "Industrial", "apt", "House"}})
	require.NoError(t, err)

	assert.Equal(t, listing.ForSale, p.Filter.DisposalMethod)
	assert.Equal(t, "Residential", p.Filter.Type)
	assert.Equal(t, []string{House, Apartment}, p.Categories)
	assert.Equal(t, []string{"Industrial"}, p.Ignored)
}

func TestBuildLandOmitsResidentialType(t *testing.T) {
	p, err := Build(Request{Target: Buy, Categories: []string{"Land"}})
	require.NoError(t, err)
	assert.Empty(t, p.Filter.Type)
}

func TestBuildCommercialSubcategory(t *testing.T) {
	p, err := Build(Request{Target: CommercialType, Subcategory: "office", Disposal: listing.ForRent})
	require.NoError(t, err)
	assert.Equal(t, "Commercial", p.Filter.Type)
	assert.Equal(t, "Office", p.Filter.PropertyType)
	assert.Equal(t, listing.ForRent, p.Filter.DisposalMethod)

	_, err = Build(Request{Target: CommercialType, Subcategory: "castles"})
	assert.Error(t, err)
	_, err = Build(Request{Target: "timeshare"})
	assert.Error(t, err)
}

func TestResidentialPredicateRejectsCommercial(t *testing.T) {
	p, err := Build(Request{Target: Buy})
	require.NoError(t, err)

	in := []listing.Listing{
		{ID: "1", Type: listing.TypeResidential, Heading: "Family home", DisposalMethod: listing.ForSale},
		{ID: "2", Type: listing.TypeCommercial, Heading: "Shopfront"},
		{ID: "3", Type: listing.TypeResidential, Heading: "Rare INVESTMENT OPPORTUNITY"},
		{ID: "4", Type: listing.TypeResidential, Description: "Zoned for future subdivision"},
		{ID: "5", Type: listing.TypeResidential, Categories: []string{"Warehouse"}},
		{ID: "6", Type: listing.TypeResidential, DisposalMethod: listing.ForRent},
		{ID: "7", Type: listing.TypeLand, DisposalMethod: listing.Auction},
		{ID: "8"},
	}
	kept, rej := p.Verify(in)

	ids := make([]string, 0, len(kept))
	for _, l := range kept {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []string{"1", "7", "8"}, ids)
	assert.Equal(t, Rejections{
		ReasonTypeMismatch:      1,
		ReasonCommercialKeyword: 3,
		ReasonDisposalMismatch:  1,
	}, rej)
	assert.Equal(t, 5, rej.Total())
	assert.Equal(t, "commercial_keyword=3 disposal_mismatch=1 type_mismatch=1", rej.Describe())
}

func TestCommercialPredicate(t *testing.T) {
	p, err := Build(Request{Target: CommercialType, Subcategory: "storage"})
	require.NoError(t, err)

	ok, _ := p.Check(listing.Listing{Type: listing.TypeCommercial, Heading: "Large warehouse with office"})
	assert.True(t, ok)

	ok, reason := p.Check(listing.Listing{Type: listing.TypeCommercial, Heading: "Corner cafe"})
	assert.False(t, ok)
	assert.Equal(t, ReasonCategoryMismatch, reason)

	ok, reason = p.Check(listing.Listing{Type: listing.TypeResidential, Heading: "Warehouse conversion loft"})
	assert.False(t, ok)
	assert.Equal(t, ReasonTypeMismatch, reason)
}

func TestCategoryPredicate(t *testing.T) {
	p, err := Build(Request{Target: Rent, Categories: []string{"Unit"}})
	require.NoError(t, err)

	ok, _ := p.Check(listing.Listing{Categories: []string{"Unit"}})
	assert.True(t, ok)
	ok, reason := p.Check(listing.Listing{Categories: []string{"House"}})
	assert.False(t, ok)
	assert.Equal(t, ReasonCategoryMismatch, reason)
}

func TestAgencyPredicate(t *testing.T) {
	p, err := Build(Request{Target: Buy, Agency: Agency{ID: "AG1", Agents: []string{"Jane Citizen"}}})
	require.NoError(t, err)

	ok, _ := p.Check(listing.Listing{AgencyID: "AG1"})
	assert.True(t, ok)
	ok, _ = p.Check(listing.Listing{Agents: []listing.Agent{{Name: "JANE CITIZEN"}}})
	assert.True(t, ok)
	ok, reason := p.Check(listing.Listing{AgencyID: "OTHER", Agents: []listing.Agent{{Name: "Someone Else"}}})
	assert.False(t, ok)
	assert.Equal(t, ReasonForeignAgency, reason)
}

func TestParsePropertyTypeAndTitles(t *testing.T) {
	pt, ok := ParsePropertyType("")
	assert.True(t, ok)
	assert.Equal(t, Buy, pt)
	_, ok = ParsePropertyType("lease-to-own")
	assert.False(t, ok)

	assert.Equal(t, "Office Spaces", TitleFor(CommercialType, "office"))
	assert.Equal(t, "Sold Properties", TitleFor(SoldType, ""))
	assert.Len(t, Subcategories(), 8)
}

func TestBuildRejectsUnknownSubcategory(t *testing.T) {
	_, err := Build(Request{Target: CommercialType, Subcategory: "castles"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "castles")
	assert.Contains(t, err.Error(), "office")
}
