// Package featured curates the home page's featured listings from several
// concurrent upstream queries, deduplicated in a fixed priority order.
package featured

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/yourorg/listings-api/internal/category"
	"github.com/yourorg/listings-api/internal/listing"
	"github.com/yourorg/listings-api/internal/logger"
	"github.com/yourorg/listings-api/renet"
)

type Source interface {
	Listings(ctx context.Context, q renet.ListingsQuery) (renet.Batch, error)
}

// Featured is a listing tagged with why it was picked.
type Featured struct {
	listing.Listing
	FeaturedType string `json:"featuredType"`
}

// Slot is one curated sub-query. Take is how many listings it may
// contribute; zero means whatever is left of the target.
type Slot struct {
	Label   string
	Target  category.PropertyType
	OrderBy string
	Size    int
	Take    int
	Accept  func(listing.Listing) bool
}

var (
	minSpaciousLand    = decimal.NewFromInt(500)
	locationKeywords   = []string{"water", "view", "ocean", "river", "beach"}
	defaultCallTimeout = 5 * time.Second
)

// Spacious accepts listings with more than 500m² of land.
func Spacious(l listing.Listing) bool {
	d, ok := l.LandSize()
	return ok && d.GreaterThan(minSpaciousLand)
}

// PremiumLocation accepts listings whose text mentions water or views.
func PremiumLocation(l listing.Listing) bool {
	text := strings.ToLower(l.Heading + " " + l.Description)
	for _, k := range locationKeywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// DefaultSlots is the home page selection in priority order.
func DefaultSlots() []Slot {
	return []Slot{
		{Label: "Highest Price For Sale", Target: category.Buy, OrderBy: "price", Size: 1, Take: 1},
		{Label: "Premium Rental", Target: category.Rent, OrderBy: "price", Size: 1, Take: 1},
		{Label: "Newest Listing", Target: category.Buy, OrderBy: "dateListed", Size: 1, Take: 1},
		{Label: "Spacious Property", Target: category.Buy, OrderBy: "dateListed", Size: 10, Take: 1, Accept: Spacious},
		{Label: "Premium Location", Target: category.Buy, OrderBy: "price", Size: 10, Take: 1, Accept: PremiumLocation},
		{Label: "Premium Home", Target: category.Buy, OrderBy: "price", Size: 2},
	}
}

type Options struct {
	Target      int
	CallTimeout time.Duration
	Agency      category.Agency
	Slots       []Slot
	// Backfill tops the set up when the slots leave it short.
	Backfill *Slot
}

type Engine struct {
	source   Source
	target   int
	timeout  time.Duration
	agency   category.Agency
	slots    []Slot
	backfill Slot
}

func New(source Source, opts Options) *Engine {
	e := &Engine{
		source:  source,
		target:  opts.Target,
		timeout: opts.CallTimeout,
		agency:  opts.Agency,
		slots:   opts.Slots,
	}
	if e.target <= 0 {
		e.target = 6
	}
	if e.timeout <= 0 {
		e.timeout = defaultCallTimeout
	}
	if len(e.slots) == 0 {
		e.slots = DefaultSlots()
	}
	if opts.Backfill != nil {
		e.backfill = *opts.Backfill
	} else {
		e.backfill = Slot{Label: "Recent Listing", Target: category.Buy, OrderBy: "dateListed", Size: e.target * 2}
	}
	return e
}

// Select runs every slot query at once. A failed query leaves its slot empty;
// the rest of the set is still returned.
func (e *Engine) Select(ctx context.Context) []Featured {
	all := append(append([]Slot(nil), e.slots...), e.backfill)
	results := make([][]listing.Listing, len(all))

	var g errgroup.Group
	for i, s := range all {
		i, s := i, s
		g.Go(func() error {
			results[i] = e.fetch(ctx, s)
			return nil
		})
	}
	_ = g.Wait()

	seen := map[string]bool{}
	out := make([]Featured, 0, e.target)
	for i, s := range all {
		if len(out) >= e.target {
			break
		}
		take := s.Take
		if take <= 0 || i == len(all)-1 {
			take = e.target - len(out)
		}
		for _, l := range results[i] {
			if take == 0 {
				break
			}
			if seen[l.ListingID] || (s.Accept != nil && !s.Accept(l)) {
				continue
			}
			seen[l.ListingID] = true
			out = append(out, Featured{Listing: l, FeaturedType: s.Label})
			take--
		}
	}
	return out
}

func (e *Engine) fetch(ctx context.Context, s Slot) []listing.Listing {
	log := logger.FromContext(ctx).WithFields(logger.Fields{"slot": s.Label})
	plan, err := category.Build(category.Request{Target: s.Target, Agency: e.agency})
	if err != nil {
		log.Error("featured slot misconfigured", err, nil)
		return nil
	}
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	batch, err := e.source.Listings(callCtx, renet.ListingsQuery{
		Type:           plan.Filter.Type,
		DisposalMethod: string(plan.Filter.DisposalMethod),
		Page:           1,
		PageSize:       s.Size,
		OrderBy:        s.OrderBy,
		OrderDirection: "desc",
	})
	if err != nil {
		log.Warn("featured slot fetch failed", logger.Fields{"error": err.Error()})
		return nil
	}
	kept, rej := plan.Verify(batch.Listings)
	if rej.Total() > 0 {
		log.Debug("featured slot rejected listings", logger.Fields(rej.Fields()))
	}
	return kept
}
