// Package listing holds the canonical listing and agent records that every
// upstream payload is normalised into.
package listing

import "strings"

type Type string

const (
	TypeUnknown     Type = ""
	TypeResidential Type = "Residential"
	TypeCommercial  Type = "Commercial"
	TypeLand        Type = "Land"
)

// ParseType maps upstream type labels onto the three known types.
func ParseType(s string) Type {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "residential":
		return TypeResidential
	case "commercial", "business":
		return TypeCommercial
	case "land":
		return TypeLand
	default:
		return TypeUnknown
	}
}

type DisposalMethod string

const (
	ForSale DisposalMethod = "forSale"
	ForRent DisposalMethod = "forRent"
	Sold    DisposalMethod = "sold"
	Leased  DisposalMethod = "leased"
	Auction DisposalMethod = "auction"
)

func ParseDisposalMethod(s string) DisposalMethod {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forsale", "for sale", "sale":
		return ForSale
	case "forrent", "for rent", "rent", "lease":
		return ForRent
	case "sold":
		return Sold
	case "leased":
		return Leased
	case "auction":
		return Auction
	default:
		return ""
	}
}

type Address struct {
	Street         string `json:"street,omitempty"`
	Suburb         string `json:"suburb,omitempty"`
	State          string `json:"state,omitempty"`
	Postcode       string `json:"postcode,omitempty"`
	DisplayAddress string `json:"displayAddress,omitempty"`
}

type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

type Agent struct {
	AgentID  string `json:"agentID"`
	ID       string `json:"id"`
	Name     string `json:"name"`
	Title    string `json:"title,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Mobile   string `json:"mobile,omitempty"`
	ImageURL string `json:"imageURL,omitempty"`
	Bio      string `json:"bio,omitempty"`
}

// ContactNumber prefers the mobile number.
func (a Agent) ContactNumber() string {
	if a.Mobile != "" {
		return a.Mobile
	}
	return a.Phone
}

type Listing struct {
	ListingID      string         `json:"listingID"`
	ID             string         `json:"id"`
	Heading        string         `json:"heading"`
	Description    string         `json:"description,omitempty"`
	Price          string         `json:"price"`
	Address        Address        `json:"address"`
	Images         []Image        `json:"images"`
	Type           Type           `json:"type,omitempty"`
	Categories     []string       `json:"categories"`
	DisposalMethod DisposalMethod `json:"disposalMethod,omitempty"`
	BedBathCarLand []Feature      `json:"bedBathCarLand"`
	Agents         []Agent        `json:"agents"`
	AgencyID       string         `json:"agencyID,omitempty"`
	DateListed     string         `json:"dateListed,omitempty"`
	Status         string         `json:"status,omitempty"`
}

// SearchText is the lower-cased text keyword checks run against.
func (l Listing) SearchText() string {
	parts := make([]string, 0, 2+len(l.Categories))
	parts = append(parts, l.Heading, l.Description)
	parts = append(parts, l.Categories...)
	return strings.ToLower(strings.Join(parts, " "))
}

// Page is one page of a listing result set.
type Page struct {
	Listings     []Listing `json:"listings"`
	CurrentPage  int       `json:"currentPage"`
	TotalPages   int       `json:"totalPages"`
	TotalResults int       `json:"totalResults"`
	PageSize     int       `json:"pageSize"`
	NextPage     int       `json:"nextPage,omitempty"`
}
