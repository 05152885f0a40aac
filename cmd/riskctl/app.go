package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/riskforge/lossengine/internal/cache"
	"github.com/riskforge/lossengine/internal/config"
	"github.com/riskforge/lossengine/internal/repository"
	"github.com/riskforge/lossengine/internal/resolver"
	"github.com/riskforge/lossengine/internal/service"
)

// app bundles the constructed TreeService with the logger-carrying
// context every command call threads through it.
type app struct {
	svc *service.TreeService
	ctx context.Context
}

// newApp wires a TreeService from the persistent --data-dir/--config
// flags: an FS repository wrapped with retry-on-BACKEND_UNAVAILABLE, a
// Resolver seeded from config, a fresh Cache, and no event bus — a
// single CLI invocation never lives long enough to have a subscriber.
func newApp() (*app, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	fs, err := repository.NewFS(dataDir)
	if err != nil {
		return nil, err
	}
	repo := repository.NewRetrying(fs, resolverRetryBudget)

	sharedCache := cache.New()
	res := resolver.New(resolver.Config{
		NTrials:                  cfg.DefaultNTrials,
		TrialParallelism:         cfg.DefaultTrialParallelism,
		MaxConcurrentSimulations: cfg.MaxConcurrentSimulations,
		Seed3:                    cfg.DefaultSeed3,
		Seed4:                    cfg.DefaultSeed4,
	}, sharedCache)

	svc := service.New(repo, res, sharedCache, nil, nil)

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	return &app{svc: svc, ctx: ctx}, nil
}

const resolverRetryBudget = 30 * time.Second
