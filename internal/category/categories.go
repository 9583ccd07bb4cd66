package category

import (
	"strings"

	"golang.org/x/text/cases"
)

// Approved category labels as upstream spells them.
const (
	Land              = "Land"
	House             = "House"
	Townhouse         = "Townhouse"
	Unit              = "Unit"
	Villa             = "Villa"
	Apartment         = "Apartment"
	Penthouse         = "Penthouse"
	Acerage           = "Acerage"
	Studio            = "Studio"
	HouseAndLand      = "House and Land"
	Duplex            = "Duplex"
	Terrace           = "Terrace"
	ServicedApartment = "Serviced Apartment"
	MobileHome        = "Mobile Home"
	Commercial        = "Commercial"
	Business          = "Business"
	Industrial        = "Industrial"
	Rural             = "Rural"
	SemiRural         = "Semi Rural"
	AcerageSemiRural  = "Acerage Semi Rural"
)

type Group struct {
	Key        string   `json:"key"`
	Label      string   `json:"label"`
	Categories []string `json:"categories"`
}

var (
	ResidentialHouses    = Group{Key: "RESIDENTIAL_HOUSES", Label: "Residential Houses", Categories: []string{House, Townhouse, Villa, Duplex, Terrace}}
	ResidentialUnits     = Group{Key: "RESIDENTIAL_UNITS", Label: "Residential Units", Categories: []string{Unit, Apartment, Penthouse, Studio, ServicedApartment}}
	ResidentialSpecialty = Group{Key: "RESIDENTIAL_SPECIALTY", Label: "Residential Specialty", Categories: []string{HouseAndLand, MobileHome}}
	CommercialGroup      = Group{Key: "COMMERCIAL", Label: "Commercial", Categories: []string{Commercial, Business, Industrial}}
	LandRural            = Group{Key: "LAND_RURAL", Label: "Land & Rural", Categories: []string{Land, Acerage, Rural, SemiRural, AcerageSemiRural}}
)

// Groups lists every category group in display order.
func Groups() []Group {
	return []Group{ResidentialHouses, ResidentialUnits, ResidentialSpecialty, CommercialGroup, LandRural}
}

// fallbacks maps common variants and typos onto approved labels.
var fallbacks = map[string]string{
	"pent house":          Penthouse,
	"apt":                 Apartment,
	"apartments":          Apartment,
	"units":               Unit,
	"houses":              House,
	"townhouses":          Townhouse,
	"villas":              Villa,
	"studio apartment":    Studio,
	"acrage":              Acerage,
	"acre":                Acerage,
	"acreage":             Acerage,
	"commercial property": Commercial,
	"commercial building": Commercial,
	"residential":         House,
	"property":            House,
	"home":                House,
	"residential house":   House,
	"flat":                Unit,
	"condo":               Apartment,
	"condominium":         Apartment,
}

var fold = cases.Fold()

func foldKey(s string) string {
	return fold.String(strings.Join(strings.Fields(s), " "))
}

var approved = func() map[string]string {
	m := map[string]string{}
	for _, g := range Groups() {
		for _, c := range g.Categories {
			m[foldKey(c)] = c
		}
	}
	return m
}()

// Normalize returns the approved spelling of a category, applying the
// fallback table. ok is false for unsupported input.
func Normalize(s string) (string, bool) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '"', '\'', ';', '&', '|', '`':
			return -1
		}
		return r
	}, s)
	if len(s) > 100 {
		s = s[:100]
	}
	key := foldKey(s)
	if key == "" {
		return "", false
	}
	if c, ok := approved[key]; ok {
		return c, true
	}
	if c, ok := fallbacks[key]; ok {
		return c, true
	}
	return "", false
}

// GroupOf returns the group an approved category belongs to.
func GroupOf(c string) (Group, bool) {
	n, ok := Normalize(c)
	if !ok {
		return Group{}, false
	}
	for _, g := range Groups() {
		for _, gc := range g.Categories {
			if gc == n {
				return g, true
			}
		}
	}
	return Group{}, false
}
