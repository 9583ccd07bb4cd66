// Package drift walks upstream listing pages outside request traffic and
// reports how many listings the category verifier rejects per target. A rising
// count means the upstream server-side filter has drifted.
package drift

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yourorg/listings-api/internal/category"
	"github.com/yourorg/listings-api/internal/logger"
	"github.com/yourorg/listings-api/internal/paging"
	"github.com/yourorg/listings-api/renet"
)

type Config struct {
	// Targets are property types, optionally with a commercial sub-category
	// as "commercial:office".
	Targets              []string
	PageSize             int
	MaxPages             int
	Interval             time.Duration
	PauseBetweenRequests time.Duration
	RequestTimeout       time.Duration
	Agency               category.Agency
}

type Job struct {
	Source paging.Source
	Logger logger.Logger
	Config Config
}

// Result is the outcome of checking one target.
type Result struct {
	Target     string
	Pages      int
	Seen       int
	Kept       int
	Dropped    int
	Rejections category.Rejections
}

// RejectedShare is the fraction of seen listings the verifier removed.
func (r Result) RejectedShare() float64 {
	if r.Seen == 0 {
		return 0
	}
	return float64(r.Rejections.Total()) / float64(r.Seen)
}

func (j *Job) log() logger.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return logger.Nop()
}

func (j *Job) validate() error {
	if j == nil {
		return errors.New("nil drift job")
	}
	if j.Source == nil {
		return errors.New("drift job missing listing source")
	}
	if len(j.Config.Targets) == 0 {
		j.Config.Targets = []string{string(category.Buy), string(category.Rent), string(category.CommercialType)}
	}
	return nil
}

func (j *Job) Run(ctx context.Context) error {
	if err := j.validate(); err != nil {
		return err
	}
	interval := j.Config.Interval
	if interval <= 0 {
		_, err := j.RunOnce(ctx)
		return err
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	j.log().Info("drift check starting", logger.Fields{"interval": interval.String(), "targets": j.Config.Targets})
	if _, err := j.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		j.log().Error("drift check initial run failed", err, nil)
	}
	for {
		select {
		case <-ctx.Done():
			j.log().Info("drift check stopping", logger.Fields{"reason": ctx.Err().Error()})
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if _, err := j.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				j.log().Error("drift check iteration failed", err, nil)
			}
		}
	}
}

// RunOnce checks every target once. A failing target does not stop the others.
func (j *Job) RunOnce(ctx context.Context) ([]Result, error) {
	if err := j.validate(); err != nil {
		return nil, err
	}
	var (
		out    []Result
		joined error
	)
	for _, raw := range j.Config.Targets {
		target := strings.TrimSpace(raw)
		if target == "" {
			continue
		}
		res, err := j.check(ctx, target)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			joined = errors.Join(joined, err)
			continue
		}
		out = append(out, res)
		fields := logger.Fields(res.Rejections.Fields())
		fields["target"] = res.Target
		fields["pages"] = res.Pages
		fields["seen"] = res.Seen
		fields["kept"] = res.Kept
		fields["dropped_malformed"] = res.Dropped
		fields["rejected_share"] = res.RejectedShare()
		fields["summary"] = res.Rejections.Describe()
		if res.Rejections.Total() > 0 {
			j.log().Warn("category drift detected", fields)
		} else {
			j.log().Info("category filter clean", fields)
		}
	}
	return out, joined
}

func parseTarget(target string) (category.Request, error) {
	typ, sub, _ := strings.Cut(target, ":")
	pt, ok := category.ParsePropertyType(typ)
	if !ok {
		return category.Request{}, fmt.Errorf("unknown property type %q", typ)
	}
	return category.Request{Target: pt, Subcategory: sub}, nil
}

func (j *Job) check(ctx context.Context, target string) (Result, error) {
	req, err := parseTarget(target)
	if err != nil {
		return Result{}, err
	}
	req.Agency = j.Config.Agency
	plan, err := category.Build(req)
	if err != nil {
		return Result{}, fmt.Errorf("target %s: %w", target, err)
	}

	pageSize := j.Config.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	maxPages := j.Config.MaxPages
	if maxPages <= 0 {
		maxPages = 5
	}
	timeout := j.Config.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	pause := j.Config.PauseBetweenRequests

	res := Result{Target: target, Rejections: category.Rejections{}}
	for page := 1; page <= maxPages; page++ {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		batch, err := j.Source.Listings(reqCtx, renet.ListingsQuery{
			Type:           plan.Filter.Type,
			DisposalMethod: string(plan.Filter.DisposalMethod),
			Categories:     plan.Filter.Categories,
			PropertyType:   plan.Filter.PropertyType,
			Page:           page,
			PageSize:       pageSize,
		})
		cancel()
		if err != nil {
			return res, fmt.Errorf("target %s page %d fetch: %w", target, page, err)
		}
		res.Pages++
		if len(batch.Listings) == 0 {
			break
		}
		kept, rej := plan.Verify(batch.Listings)
		res.Seen += len(batch.Listings)
		res.Kept += len(kept)
		res.Dropped += batch.Dropped
		res.Rejections.Add(rej)

		if pg := batch.Pagination; pg != nil && pg.TotalPages > 0 && page >= pg.TotalPages {
			break
		}
		if len(batch.Listings) < pageSize {
			break
		}
		if pause > 0 {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(pause):
			}
		}
	}
	return res, nil
}
