package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/yourorg/listings-api/http"
	"github.com/yourorg/listings-api/internal/category"
	"github.com/yourorg/listings-api/internal/config"
	"github.com/yourorg/listings-api/internal/featured"
	"github.com/yourorg/listings-api/internal/forms"
	"github.com/yourorg/listings-api/internal/logger"
	"github.com/yourorg/listings-api/internal/paging"
	"github.com/yourorg/listings-api/internal/redisx"
	"github.com/yourorg/listings-api/internal/reviews"
	"github.com/yourorg/listings-api/renet"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "listings-api:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, closeLog, err := logger.Setup(logger.Options{
		AppName: cfg.AppName,
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Fluent: logger.FluentOptions{
			Enabled: cfg.FluentBit.Enabled,
			Host:    cfg.FluentBit.Host,
			Port:    cfg.FluentBit.Port,
			Level:   cfg.FluentBit.Level,
		},
	})
	if err != nil {
		log.Warn("continuing with stdout logging only", logger.Fields{"error": err.Error()})
	}
	defer func() { _ = closeLog() }()

	client := renet.NewClient(renet.Config{
		BaseURL:     cfg.Upstream.BaseURL,
		Token:       cfg.Upstream.Token,
		PublicToken: cfg.Upstream.PublicToken,
		Timeout:     cfg.Upstream.Timeout,
		RPS:         cfg.Upstream.RPS,
		Burst:       cfg.Upstream.Burst,
	})
	agency := category.Agency{ID: cfg.Agency.ID, Agents: cfg.Agency.Agents}

	pager := paging.New(client, paging.Options{
		DefaultPageSize:  cfg.Paging.DefaultPageSize,
		FetchAllPageSize: cfg.Paging.FetchAllPageSize,
		MaxPages:         cfg.Paging.FetchAllMaxPages,
		Budget:           cfg.Paging.FetchAllBudget,
	})
	picker := featured.New(client, featured.Options{
		Target:      cfg.FeaturedCount,
		CallTimeout: cfg.Upstream.Timeout,
		Agency:      agency,
	})
	proxy, err := forms.New(client)
	if err != nil {
		return err
	}

	reviewCache := &reviews.Cache{TTL: cfg.Reviews.TTL, Store: reviews.NewMemoryStore()}
	if cfg.ReviewsEnabled() {
		reviewCache.Source = reviews.NewPlacesClient(reviews.PlacesConfig{
			APIKey:  cfg.Reviews.PlacesAPIKey,
			PlaceID: cfg.Reviews.PlaceID,
			Timeout: cfg.Upstream.Timeout,
		})
	} else {
		log.Warn("google reviews disabled", logger.Fields{"reason": "GOOGLE_PLACES_API_KEY not set"})
	}
	if cfg.Redis.Addr != "" {
		rdb := redisx.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := rdb.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Warn("redis unreachable, review cache stays in memory", logger.Fields{"addr": cfg.Redis.Addr, "error": err.Error()})
		} else {
			reviewCache.Store = &reviews.RedisStore{Client: rdb}
		}
	}

	router := BuildRouter(RouterDeps{
		Log:                log,
		AllowedOrigins:     cfg.HTTP.AllowedOrigins,
		RateLimitPerMinute: cfg.HTTP.RateLimitPerMinute,
		Listings:           httpapi.ListingsDeps{Pager: pager, Featured: picker, Upstream: client, Agency: agency},
		Agents:             httpapi.AgentsDeps{Upstream: client},
		Reviews:            httpapi.ReviewsDeps{Cache: reviewCache},
		Contact:            httpapi.ContactDeps{Forms: proxy},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           router,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       2 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listings-api listening", logger.Fields{"port": cfg.HTTP.Port, "upstream": cfg.Upstream.BaseURL})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
