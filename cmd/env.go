package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/trailpost/trailpost/internal/cluster"
	"github.com/trailpost/trailpost/internal/kb"
	"github.com/trailpost/trailpost/internal/resolve"
	"github.com/trailpost/trailpost/internal/store"
	"github.com/trailpost/trailpost/pkg/places"
)

// env wires the store, knowledge base and resolver from configuration.
type env struct {
	Store    store.Store
	KB       *kb.Service
	Resolver *resolve.Resolver
}

func initEnv(ctx context.Context) (*env, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite", "":
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}

	engine := cluster.NewEngine(cfg.Cluster.MaxDistanceMeters, cfg.Cluster.MinSamples)
	service := kb.NewService(st, engine, cfg.Cluster.MaxHistory)

	// Google is consulted before Foursquare when both are enabled.
	var providers []places.Provider
	if cfg.Google.Enabled {
		providers = append(providers, places.NewGoogle(cfg.Google.Key,
			places.WithRateLimit(cfg.Resolve.ProviderRPS)))
	}
	if cfg.Foursquare.Enabled {
		providers = append(providers, places.NewFoursquare(cfg.Foursquare.Key,
			places.WithRateLimit(cfg.Resolve.ProviderRPS)))
	}

	resolver := resolve.NewResolver(cfg.Resolve.MaxDistanceMeters, cfg.Resolve.Limit,
		resolve.WithKB(service.Query),
		resolve.WithProviders(providers...),
	)

	return &env{Store: st, KB: service, Resolver: resolver}, nil
}

func (e *env) Close() {
	_ = e.Store.Close()
}
