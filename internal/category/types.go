package category

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/yourorg/listings-api/internal/listing"
)

// PropertyType is the site section a request is browsing.
type PropertyType string

const (
	Buy            PropertyType = "buy"
	Rent           PropertyType = "rent"
	CommercialType PropertyType = "commercial"
	SoldType       PropertyType = "sold"
	LeasedType     PropertyType = "leased"
)

type mapping struct {
	disposal   listing.DisposalMethod
	commercial bool
}

var mappings = map[PropertyType]mapping{
	Buy:            {disposal: listing.ForSale},
	Rent:           {disposal: listing.ForRent},
	SoldType:       {disposal: listing.Sold},
	LeasedType:     {disposal: listing.Leased},
	CommercialType: {disposal: listing.ForSale, commercial: true},
}

// ParsePropertyType accepts the section slugs and a few synonyms.
func ParsePropertyType(s string) (PropertyType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "buy", "sale", "forsale", "for-sale":
		return Buy, true
	case "rent", "forrent", "for-rent", "rental":
		return Rent, true
	case "commercial":
		return CommercialType, true
	case "sold":
		return SoldType, true
	case "leased":
		return LeasedType, true
	default:
		return "", false
	}
}

func (p PropertyType) Commercial() bool { return mappings[p].commercial }

func (p PropertyType) Disposal() listing.DisposalMethod { return mappings[p].disposal }

// AllowedCategories is the category set a section may filter by.
func (p PropertyType) AllowedCategories() []string {
	if p.Commercial() {
		return append([]string(nil), CommercialGroup.Categories...)
	}
	var out []string
	for _, g := range []Group{ResidentialHouses, ResidentialUnits, ResidentialSpecialty, LandRural} {
		out = append(out, g.Categories...)
	}
	return out
}

// Subcategory is one of the commercial browse pages.
type Subcategory struct {
	Slug         string `json:"slug"`
	Title        string `json:"title"`
	PropertyType string `json:"propertyType,omitempty"`
	UpstreamType string `json:"type"`
	// Keywords must appear in a listing's text for it to belong here.
	Keywords []string `json:"-"`
}

var subcategories = map[string]Subcategory{
	"office":     {Slug: "office", Title: "Office Spaces", PropertyType: "Office", UpstreamType: "Commercial", Keywords: []string{"office"}},
	"retail":     {Slug: "retail", Title: "Retail Properties", PropertyType: "Retail", UpstreamType: "Commercial", Keywords: []string{"retail", "shop"}},
	"storage":    {Slug: "storage", Title: "Storage & Warehouses", PropertyType: "Storage", UpstreamType: "Commercial", Keywords: []string{"storage", "warehouse"}},
	"land":       {Slug: "land", Title: "Commercial Land", PropertyType: "Land", UpstreamType: "Commercial", Keywords: []string{"land", "development"}},
	"investment": {Slug: "investment", Title: "Investment Properties", PropertyType: "Investment", UpstreamType: "Commercial", Keywords: []string{"investment"}},
	"business":   {Slug: "business", Title: "Business for Sale", UpstreamType: "Business", Keywords: []string{"business"}},
	"industrial": {Slug: "industrial", Title: "Industrial", PropertyType: "Industrial", UpstreamType: "Commercial", Keywords: []string{"industrial", "warehouse", "factory"}},
	"all":        {Slug: "all", Title: "All Commercial Properties", UpstreamType: "Commercial"},
}

var titler = cases.Title(language.English)

// LookupSubcategory finds a commercial sub-category by slug.
func LookupSubcategory(slug string) (Subcategory, bool) {
	s, ok := subcategories[strings.ToLower(strings.TrimSpace(slug))]
	return s, ok
}

// Subcategories returns every commercial sub-category ordered by slug.
func Subcategories() []Subcategory {
	order := []string{"all", "business", "industrial", "investment", "land", "office", "retail", "storage"}
	out := make([]Subcategory, 0, len(order))
	for _, k := range order {
		out = append(out, subcategories[k])
	}
	return out
}

// TitleFor is the page heading for a section and optional sub-category.
func TitleFor(p PropertyType, sub string) string {
	if s, ok := LookupSubcategory(sub); ok && p.Commercial() {
		return s.Title
	}
	switch p {
	case Buy:
		return "Properties For Sale"
	case Rent:
		return "Properties For Rent"
	default:
		return titler.String(string(p)) + " Properties"
	}
}
