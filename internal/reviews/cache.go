// Package reviews serves Google Places five-star reviews through a TTL cache.
// The cache is a value injected into the handler; its backing Store may be
// process memory or Redis.
package reviews

import (
	"context"
	"errors"
	"time"

	"github.com/yourorg/listings-api/internal/apierr"
	"github.com/yourorg/listings-api/internal/logger"
)

const StaleWarning = "Using cached data due to API error"

// Source produces a fresh snapshot.
type Source interface {
	Fetch(ctx context.Context) (Snapshot, error)
}

// Store holds at most one snapshot. Load returns nil when empty.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, s Snapshot) error
}

// View is what a caller gets back from the cache.
type View struct {
	Snapshot
	Cached  bool
	Warning string
}

type Cache struct {
	Store  Store
	Source Source
	TTL    time.Duration
	Now    func() time.Time
}

func (c *Cache) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Get serves the stored snapshot while it is younger than TTL, otherwise it
// refetches. force skips the freshness check. A failed refetch falls back to
// whatever is stored, however old. Concurrent refreshes may both fetch; the
// later save wins.
func (c *Cache) Get(ctx context.Context, force bool) (View, error) {
	log := logger.FromContext(ctx)

	entry, err := c.Store.Load(ctx)
	if err != nil {
		log.Warn("review cache load failed", logger.Fields{"error": err.Error()})
		entry = nil
	}
	if !force && entry != nil && c.now().Sub(entry.FetchedAt) < c.TTL {
		return View{Snapshot: *entry, Cached: true}, nil
	}

	if c.Source == nil {
		if entry != nil {
			return View{Snapshot: *entry, Cached: true, Warning: StaleWarning}, nil
		}
		return View{}, apierr.Unavailable("Google Reviews not configured", nil)
	}

	fresh, err := c.Source.Fetch(ctx)
	if err != nil {
		if entry != nil {
			log.Warn("serving stale reviews", logger.Fields{"error": err.Error(), "age_s": int(c.now().Sub(entry.FetchedAt).Seconds())})
			return View{Snapshot: *entry, Cached: true, Warning: StaleWarning}, nil
		}
		var pe *PlacesError
		if errors.As(err, &pe) {
			return View{}, apierr.Unavailable("Google API error: "+pe.Status, err)
		}
		return View{}, apierr.Internal("Failed to fetch reviews", err)
	}

	if err := c.Store.Save(ctx, fresh); err != nil {
		log.Warn("review cache save failed", logger.Fields{"error": err.Error()})
	}
	log.Info("fetched google reviews", logger.Fields{"count": len(fresh.Reviews), "five_star": fresh.Summary.FiveStarCount})
	return View{Snapshot: fresh}, nil
}
