package renet

import (
	"bytes"
	"encoding/json"
	"strings"
)

// stringNumber accepts string or number JSON and stores as string
type stringNumber string

func (s *stringNumber) UnmarshalJSON(b []byte) error {
	// empty/null -> empty string
	if string(b) == "null" {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = stringNumber(strings.TrimSpace(str))
		return nil
	}
	if string(b) == "true" || string(b) == "false" {
		*s = stringNumber(b)
		return nil
	}
	// Try as number, keep textual form
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*s = stringNumber(num.String())
	return nil
}

// stringList accepts a single string, an array of strings, or null.
type stringList []string

func (l *stringList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case string(b) == "null":
		*l = nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*l = splitCategoryString(s)
	default:
		var items []stringNumber
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		out := make([]string, 0, len(items))
		for _, it := range items {
			if it != "" {
				out = append(out, string(it))
			}
		}
		*l = out
	}
	return nil
}

func splitCategoryString(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// rawAddress is an object on most endpoints and a bare display string on some.
type rawAddress struct {
	Street         string       `json:"street"`
	StreetNumber   stringNumber `json:"streetNumber"`
	Suburb         string       `json:"suburb"`
	State          string       `json:"state"`
	Postcode       stringNumber `json:"postcode"`
	DisplayAddress string       `json:"displayAddress"`
}

func (a *rawAddress) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &a.DisplayAddress)
	}
	type plain rawAddress
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*a = rawAddress(p)
	return nil
}

// rawImage is either {"url": ...} or a bare URL string.
type rawImage struct {
	URL string
	Alt string
}

func (im *rawImage) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &im.URL)
	}
	var obj struct {
		URL  string `json:"url"`
		Href string `json:"href"`
		Alt  string `json:"alt"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	im.URL = firstNonEmpty(obj.URL, obj.Href)
	im.Alt = obj.Alt
	return nil
}

type rawFeature struct {
	Key   string       `json:"key"`
	Label string       `json:"label"`
	Value stringNumber `json:"value"`
}

type rawAgent struct {
	AgentID  stringNumber `json:"agentID"`
	ID       stringNumber `json:"id"`
	Name     string       `json:"name"`
	Title    string       `json:"title"`
	Email    string       `json:"email"`
	Mobile   stringNumber `json:"mobile"`
	Phone    stringNumber `json:"phone"`
	ImageURL string       `json:"imageURL"`
	Profile  string       `json:"profile"`
	Bio      string       `json:"bio"`
}

type rawListing struct {
	ID             stringNumber `json:"id"`
	ListingID      stringNumber `json:"listingID"`
	Heading        string       `json:"heading"`
	Description    string       `json:"description"`
	Price          stringNumber `json:"price"`
	DisplayPrice   string       `json:"displayPrice"`
	Address        rawAddress   `json:"address"`
	Images         []rawImage   `json:"images"`
	Type           string       `json:"type"`
	Categories     stringList   `json:"categories"`
	DisposalMethod string       `json:"disposalMethod"`
	Bedrooms       stringNumber `json:"bedrooms"`
	Bathrooms      stringNumber `json:"bathrooms"`
	CarSpaces      stringNumber `json:"carSpaces"`
	Garages        stringNumber `json:"garages"`
	LandSize       stringNumber `json:"landSize"`
	Area           stringNumber `json:"area"`
	BedBathCarLand []rawFeature `json:"bedBathCarLand"`
	Agents         []rawAgent   `json:"agents"`
	AgencyID       stringNumber `json:"agencyID"`
	DateListed     string       `json:"dateListed"`
	Status         string       `json:"status"`
}

type rawPagination struct {
	CurrentPage    stringNumber `json:"currentPage"`
	TotalPages     stringNumber `json:"totalPages"`
	TotalResults   stringNumber `json:"totalResults"`
	ResultsPerPage stringNumber `json:"resultsPerPage"`
	NextPage       stringNumber `json:"nextPage"`
}

// Pagination is what upstream reported about the page it returned.
type Pagination struct {
	CurrentPage    int
	TotalPages     int
	TotalResults   int
	ResultsPerPage int
	NextPage       int
}

// FormReceipt is the upstream acknowledgement of a form submission.
type FormReceipt struct {
	ID string
}
