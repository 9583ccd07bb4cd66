package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/yourorg/listings-api/internal/apierr"
	"github.com/yourorg/listings-api/internal/listing"
	"github.com/yourorg/listings-api/internal/logger"
	"github.com/yourorg/listings-api/internal/paging"
	"github.com/yourorg/listings-api/renet"
)

const defaultAgentPageSize = 9

type AgentSource interface {
	Agents(ctx context.Context) ([]listing.Agent, error)
	Agent(ctx context.Context, id string) (listing.Agent, error)
	AgentListings(ctx context.Context, agentID string, offset, limit int) (renet.Batch, error)
	AgentListingCount(ctx context.Context, agentID string) (int, error)
}

type AgentsDeps struct {
	Upstream AgentSource
}

var specialties = []string{
	"Residential Sales",
	"Property Management",
	"Commercial Properties",
	"Investment Properties",
}

type agentDetail struct {
	listing.Agent
	Listings      []listing.Listing `json:"listings"`
	TotalListings int               `json:"totalListings"`
	CurrentPage   int               `json:"currentPage"`
	TotalPages    int               `json:"totalPages"`
	Limit         int               `json:"limit"`
	Specialties   []string          `json:"specialties"`
	ContactNumber string            `json:"contactNumber,omitempty"`
}

func RegisterAgents(r chi.Router, d AgentsDeps) {
	r.Get("/api/agents", func(w http.ResponseWriter, req *http.Request) {
		agents, err := d.Upstream.Agents(req.Context())
		if err != nil {
			writeError(w, req, err)
			return
		}
		if agents == nil {
			agents = []listing.Agent{}
		}
		writeJSON(w, req, http.StatusOK, map[string]any{
			"success":   true,
			"agents":    agents,
			"count":     len(agents),
			"timestamp": timestamp(),
		})
	})

	r.Get("/api/agents/{agentID}", func(w http.ResponseWriter, req *http.Request) {
		id := strings.TrimSpace(chi.URLParam(req, "agentID"))
		if id == "" {
			writeError(w, req, apierr.Validation("Missing agent ID", "agentID"))
			return
		}
		q := req.URL.Query()
		page := paging.CoercePage(q.Get("page"))
		limit := paging.CoercePageSize(q.Get("limit"), defaultAgentPageSize, 100)

		agent, err := d.Upstream.Agent(req.Context(), id)
		if err != nil {
			writeError(w, req, err)
			return
		}
		if agent.AgentID == "" {
			agent.AgentID, agent.ID = id, id
		}
		writeJSON(w, req, http.StatusOK, agentWithListings(req.Context(), d.Upstream, agent, page, limit))
	})
}

// agentWithListings attaches one page of the agent's stock. Listing failures
// leave the page empty rather than failing the profile.
func agentWithListings(ctx context.Context, up AgentSource, a listing.Agent, page, limit int) agentDetail {
	log := logger.FromContext(ctx).WithFields(logger.Fields{"agent_id": a.AgentID})
	out := agentDetail{Agent: a, Listings: []listing.Listing{}, CurrentPage: page, Limit: limit, Specialties: specialties, ContactNumber: a.ContactNumber()}
	if out.Bio == "" {
		out.Bio = fmt.Sprintf("%s is a dedicated real estate professional with extensive local experience. Specializing in residential and commercial properties, %s is committed to providing exceptional service to all clients.", a.Name, a.Name)
	}

	var (
		batch    renet.Batch
		count    int
		countErr error
	)
	var g errgroup.Group
	g.Go(func() error {
		var err error
		batch, err = up.AgentListings(ctx, a.AgentID, (page-1)*limit, limit)
		if err != nil {
			log.Warn("agent listings unavailable", logger.Fields{"error": err.Error()})
		}
		return nil
	})
	g.Go(func() error {
		count, countErr = up.AgentListingCount(ctx, a.AgentID)
		if countErr != nil {
			log.Warn("agent listing count unavailable", logger.Fields{"error": countErr.Error()})
		}
		return nil
	})
	_ = g.Wait()

	if batch.Listings != nil {
		out.Listings = batch.Listings
	}
	out.TotalListings = count
	if countErr != nil || count == 0 {
		out.TotalListings = max(count, len(out.Listings))
	}
	if out.TotalListings > 0 {
		out.TotalPages = (out.TotalListings + limit - 1) / limit
	}
	return out
}
