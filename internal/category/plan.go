// Package category turns a browse request into an upstream filter plus a
// predicate that re-checks every returned listing. The second stage exists
// because upstream filtering drifts; rejections are counted so drift shows up
// in logs instead of being silently corrected.
package category

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/yourorg/listings-api/internal/listing"
)

// CommercialKeywords mark a listing as commercial when found in its text.
var CommercialKeywords = []string{
	"commercial",
	"office",
	"retail",
	"industrial",
	"warehouse",
	"development",
	"subdivision",
	"business",
	"investment opportunity",
}

type Reason string

const (
	ReasonTypeMismatch      Reason = "type_mismatch"
	ReasonCommercialKeyword Reason = "commercial_keyword"
	ReasonDisposalMismatch  Reason = "disposal_mismatch"
	ReasonCategoryMismatch  Reason = "category_mismatch"
	ReasonForeignAgency     Reason = "foreign_agency"
)

// Rejections counts verification failures per reason.
type Rejections map[Reason]int

func (r Rejections) Total() int {
	n := 0
	for _, c := range r {
		n += c
	}
	return n
}

func (r Rejections) Add(other Rejections) {
	for k, v := range other {
		r[k] += v
	}
}

// Fields flattens the counts for structured logging.
func (r Rejections) Fields() map[string]interface{} {
	out := make(map[string]interface{}, len(r))
	for k, v := range r {
		out["rejected_"+string(k)] = v
	}
	return out
}

// Agency restricts results to one agency's stock.
type Agency struct {
	ID     string
	Agents []string
}

func (a Agency) enabled() bool { return a.ID != "" || len(a.Agents) > 0 }

type Request struct {
	Target PropertyType
	// Subcategory is a commercial browse page slug such as "office".
	Subcategory string
	Categories  []string
	// Disposal overrides the section default, e.g. commercial for lease.
	Disposal listing.DisposalMethod
	Agency   Agency
}

// Filter is the server-side half of a plan, expressed as upstream parameters.
type Filter struct {
	Type           string
	DisposalMethod listing.DisposalMethod
	PropertyType   string
	Categories     []string
}

type Plan struct {
	Target      PropertyType
	Filter      Filter
	Subcategory *Subcategory
	// Categories are the normalised labels requested; Ignored were dropped.
	Categories []string
	Ignored    []string
	agency     Agency
}

// Build validates a request and produces its plan.
func Build(req Request) (Plan, error) {
	target := req.Target
	if target == "" {
		target = Buy
	}
	m, ok := mappings[target]
	if !ok {
		return Plan{}, fmt.Errorf("unknown property type %q", req.Target)
	}
	p := Plan{Target: target, agency: req.Agency}

	disposal := m.disposal
	if req.Disposal != "" {
		disposal = req.Disposal
	}
	p.Filter.DisposalMethod = disposal

	allowed := lo.SliceToMap(target.AllowedCategories(), func(c string) (string, bool) { return c, true })
	for _, raw := range req.Categories {
		c, ok := Normalize(raw)
		if !ok || !allowed[c] {
			p.Ignored = append(p.Ignored, raw)
			continue
		}
		p.Categories = append(p.Categories, c)
	}
	p.Categories = lo.Uniq(p.Categories)
	p.Filter.Categories = p.Categories

	if m.commercial {
		p.Filter.Type = string(listing.TypeCommercial)
		if req.Subcategory != "" {
			sub, ok := LookupSubcategory(req.Subcategory)
			if !ok {
				slugs := lo.Map(Subcategories(), func(s Subcategory, _ int) string { return s.Slug })
				return Plan{}, fmt.Errorf("unknown commercial category %q (expected one of %s)", req.Subcategory, strings.Join(slugs, ", "))
			}
			p.Subcategory = &sub
			p.Filter.Type = sub.UpstreamType
			p.Filter.PropertyType = sub.PropertyType
		}
		return p, nil
	}

	// Land listings carry their own type, so a land-only request must not
	// ask upstream for Residential.
	if !lo.SomeBy(p.Categories, func(c string) bool { g, _ := GroupOf(c); return g.Key == LandRural.Key }) {
		p.Filter.Type = string(listing.TypeResidential)
	}
	return p, nil
}

// Check runs the client-side predicate against one listing.
func (p Plan) Check(l listing.Listing) (bool, Reason) {
	if p.agency.enabled() && !p.belongsToAgency(l) {
		return false, ReasonForeignAgency
	}
	if p.Target.Commercial() {
		if l.Type != listing.TypeCommercial {
			return false, ReasonTypeMismatch
		}
	} else {
		if l.Type == listing.TypeCommercial {
			return false, ReasonTypeMismatch
		}
		if HasCommercialKeyword(l) {
			return false, ReasonCommercialKeyword
		}
	}
	if !disposalCompatible(l.DisposalMethod, p.Filter.DisposalMethod) {
		return false, ReasonDisposalMismatch
	}
	if len(p.Categories) > 0 && !matchesCategories(l, p.Categories) {
		return false, ReasonCategoryMismatch
	}
	if p.Subcategory != nil && len(p.Subcategory.Keywords) > 0 {
		text := l.SearchText()
		if !lo.SomeBy(p.Subcategory.Keywords, func(k string) bool { return strings.Contains(text, k) }) {
			return false, ReasonCategoryMismatch
		}
	}
	return true, ""
}

// Verify keeps the listings that pass Check and counts the rest by reason.
func (p Plan) Verify(ls []listing.Listing) ([]listing.Listing, Rejections) {
	rej := Rejections{}
	kept := make([]listing.Listing, 0, len(ls))
	for _, l := range ls {
		if ok, reason := p.Check(l); !ok {
			rej[reason]++
			continue
		}
		kept = append(kept, l)
	}
	return kept, rej
}

// HasCommercialKeyword reports whether heading, description or categories
// mention any commercial indicator.
func HasCommercialKeyword(l listing.Listing) bool {
	text := l.SearchText()
	for _, k := range CommercialKeywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// disposalCompatible treats an unknown disposal as a match and auctions as sales.
func disposalCompatible(have, want listing.DisposalMethod) bool {
	if have == "" || want == "" || have == want {
		return true
	}
	return want == listing.ForSale && have == listing.Auction
}

func matchesCategories(l listing.Listing, wanted []string) bool {
	for _, have := range l.Categories {
		h := strings.ToLower(have)
		for _, w := range wanted {
			if strings.Contains(h, strings.ToLower(w)) {
				return true
			}
		}
	}
	return false
}

func (p Plan) belongsToAgency(l listing.Listing) bool {
	if p.agency.ID != "" && l.AgencyID == p.agency.ID {
		return true
	}
	for _, a := range l.Agents {
		name := strings.ToLower(a.Name)
		for _, want := range p.agency.Agents {
			if want != "" && strings.Contains(name, strings.ToLower(want)) {
				return true
			}
		}
	}
	return false
}

// Describe renders rejection counts in a stable order for log lines.
func (r Rejections) Describe() string {
	keys := make([]Reason, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, r[k]))
	}
	return strings.Join(parts, " ")
}
