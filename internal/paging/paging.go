// Package paging reconciles upstream pagination with client-side
// verification. Two modes exist: server-trusted, which passes upstream page
// counts through, and fetch-all, which walks every page and counts locally.
package paging

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yourorg/listings-api/internal/canon"
	"github.com/yourorg/listings-api/internal/category"
	"github.com/yourorg/listings-api/internal/listing"
	"github.com/yourorg/listings-api/internal/logger"
	"github.com/yourorg/listings-api/renet"
)

// Source is the upstream listings call.
type Source interface {
	Listings(ctx context.Context, q renet.ListingsQuery) (renet.Batch, error)
}

type Mode int

const (
	ServerTrusted Mode = iota
	FetchAll
)

func (m Mode) String() string {
	if m == FetchAll {
		return "fetch_all"
	}
	return "server_trusted"
}

type Options struct {
	DefaultPageSize  int
	MaxPageSize      int
	FetchAllPageSize int
	MaxPages         int
	// Budget bounds the total time of one fetch-all walk.
	Budget time.Duration
}

func (o Options) withDefaults() Options {
	if o.DefaultPageSize <= 0 {
		o.DefaultPageSize = 12
	}
	if o.MaxPageSize <= 0 {
		o.MaxPageSize = 100
	}
	if o.FetchAllPageSize <= 0 {
		o.FetchAllPageSize = 100
	}
	if o.MaxPages <= 0 {
		o.MaxPages = 20
	}
	if o.Budget <= 0 {
		o.Budget = 20 * time.Second
	}
	return o
}

type Reconciler struct {
	source Source
	opts   Options
}

func New(source Source, opts Options) *Reconciler {
	return &Reconciler{source: source, opts: opts.withDefaults()}
}

type Request struct {
	Plan           category.Plan
	Page           int
	PageSize       int
	OrderBy        string
	OrderDirection string
	Extra          url.Values
	// Terms restricts fetch-all results to listings matching every term.
	Terms []string
}

// CoercePage turns a raw page parameter into a page number >= 1.
func CoercePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// CoercePageSize parses a page size, falling back to def and capping at limit.
func CoercePageSize(raw string, def, limit int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		n = def
	}
	if limit > 0 && n > limit {
		n = limit
	}
	return n
}

func (r *Reconciler) Page(ctx context.Context, mode Mode, req Request) (listing.Page, error) {
	if mode == FetchAll {
		return r.FetchAll(ctx, req)
	}
	return r.ServerTrusted(ctx, req)
}

func (r *Reconciler) pageSize(n int) int {
	if n < 1 {
		n = r.opts.DefaultPageSize
	}
	return min(n, r.opts.MaxPageSize)
}

func (r *Reconciler) query(req Request, page, size int) renet.ListingsQuery {
	f := req.Plan.Filter
	return renet.ListingsQuery{
		Type:           f.Type,
		DisposalMethod: string(f.DisposalMethod),
		Categories:     f.Categories,
		PropertyType:   f.PropertyType,
		Page:           page,
		PageSize:       size,
		OrderBy:        req.OrderBy,
		OrderDirection: req.OrderDirection,
		Extra:          req.Extra,
	}
}

// ServerTrusted makes one upstream call and reports upstream's page counts
// verbatim. Listings still pass category verification.
func (r *Reconciler) ServerTrusted(ctx context.Context, req Request) (listing.Page, error) {
	page := max(req.Page, 1)
	size := r.pageSize(req.PageSize)

	batch, err := r.source.Listings(ctx, r.query(req, page, size))
	if err != nil {
		return listing.Page{}, err
	}
	kept, rej := req.Plan.Verify(batch.Listings)
	logRejections(ctx, req.Plan, ServerTrusted, rej, batch.Dropped)

	out := listing.Page{Listings: kept, CurrentPage: page, PageSize: size}
	if pg := batch.Pagination; pg != nil {
		out.TotalPages = pg.TotalPages
		out.TotalResults = pg.TotalResults
		if out.TotalPages == 0 && out.TotalResults > 0 {
			out.TotalPages = ceilDiv(out.TotalResults, size)
		}
	} else {
		n := len(batch.Listings)
		switch {
		case n == 0:
			out.TotalPages = page - 1
			out.TotalResults = (page - 1) * size
		case n < size:
			out.TotalPages = page
			out.TotalResults = (page-1)*size + n
		default:
			// A full page without counts: at least one more page may exist.
			out.TotalPages = page + 1
			out.TotalResults = page * size
		}
	}
	finalize(&out)
	return out, nil
}

// FetchAll walks upstream pages until an empty page, the reported last page,
// the page cap or the time budget, then verifies, filters and slices locally.
func (r *Reconciler) FetchAll(ctx context.Context, req Request) (listing.Page, error) {
	log := logger.FromContext(ctx)
	page := max(req.Page, 1)
	size := r.pageSize(req.PageSize)

	walkCtx, cancel := context.WithTimeout(ctx, r.opts.Budget)
	defer cancel()

	var (
		all      []listing.Listing
		seen     = map[string]bool{}
		dropped  int
		complete bool
	)
	for p := 1; p <= r.opts.MaxPages; p++ {
		batch, err := r.source.Listings(walkCtx, r.query(req, p, r.opts.FetchAllPageSize))
		if err != nil {
			if p == 1 {
				return listing.Page{}, err
			}
			if ctx.Err() != nil {
				return listing.Page{}, ctx.Err()
			}
			log.Warn("fetch-all stopped early, using partial results", logger.Fields{
				"pages_fetched": p - 1,
				"listings":      len(all),
				"budget_hit":    errors.Is(walkCtx.Err(), context.DeadlineExceeded),
				"error":         err.Error(),
			})
			break
		}
		dropped += batch.Dropped
		if len(batch.Listings) == 0 {
			complete = true
			break
		}
		added := 0
		for _, l := range batch.Listings {
			if seen[l.ListingID] {
				continue
			}
			seen[l.ListingID] = true
			all = append(all, l)
			added++
		}
		if added == 0 {
			// upstream ignored the page parameter and repeated itself
			log.Warn("fetch-all page repeated, stopping", logger.Fields{"page": p, "listings": len(all)})
			complete = true
			break
		}
		if pg := batch.Pagination; pg != nil && pg.TotalPages > 0 {
			current := pg.CurrentPage
			if current < 1 {
				current = p
			}
			if current >= pg.TotalPages {
				complete = true
				break
			}
		}
	}
	if !complete {
		log.Warn("fetch-all reached page cap", logger.Fields{"max_pages": r.opts.MaxPages, "listings": len(all)})
	}

	kept, rej := req.Plan.Verify(all)
	logRejections(ctx, req.Plan, FetchAll, rej, dropped)
	kept = filterTerms(kept, req.Terms)

	n := len(kept)
	out := listing.Page{
		CurrentPage:  page,
		PageSize:     size,
		TotalResults: n,
		TotalPages:   ceilDiv(n, size),
	}
	start := (page - 1) * size
	if start < n {
		out.Listings = kept[start:min(start+size, n)]
	}
	finalize(&out)
	return out, nil
}

// finalize enforces the page invariants: no listings without pages, and
// currentPage never beyond max(totalPages, 1).
func finalize(p *listing.Page) {
	if p.TotalPages < 0 {
		p.TotalPages = 0
	}
	if p.TotalResults < 0 {
		p.TotalResults = 0
	}
	if p.TotalPages == 0 {
		p.Listings = nil
	}
	if last := max(p.TotalPages, 1); p.CurrentPage > last {
		p.CurrentPage = last
		p.Listings = nil
	}
	if p.CurrentPage < 1 {
		p.CurrentPage = 1
	}
	p.NextPage = 0
	if p.CurrentPage < p.TotalPages {
		p.NextPage = p.CurrentPage + 1
	}
	if p.Listings == nil {
		p.Listings = []listing.Listing{}
	}
}

func filterTerms(ls []listing.Listing, terms []string) []listing.Listing {
	if len(terms) == 0 {
		return ls
	}
	out := make([]listing.Listing, 0, len(ls))
	for _, l := range ls {
		a := l.Address
		text := canon.Normalize(strings.Join([]string{
			a.DisplayAddress, a.Street, a.Suburb, a.State, a.Postcode,
			l.Heading, l.Description, strings.Join(l.Categories, " "),
		}, " "))
		if canon.MatchesAll(text, terms) {
			out = append(out, l)
		}
	}
	return out
}

func logRejections(ctx context.Context, plan category.Plan, mode Mode, rej category.Rejections, dropped int) {
	if rej.Total() == 0 && dropped == 0 {
		return
	}
	fields := logger.Fields(rej.Fields())
	fields["mode"] = mode.String()
	fields["target"] = string(plan.Target)
	fields["dropped_malformed"] = dropped
	logger.FromContext(ctx).Warn("listings rejected by verification", fields)
}

func ceilDiv(n, d int) int {
	if n <= 0 || d <= 0 {
		return 0
	}
	return (n + d - 1) / d
}
