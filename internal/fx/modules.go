package fx

import (
	"go.uber.org/fx"

	"decktracker/internal/api"
	"decktracker/internal/cache"
	"decktracker/internal/config"
	"decktracker/internal/database"
	"decktracker/internal/logger"
	"decktracker/internal/ratelimit"
	"decktracker/internal/repository"
	"decktracker/internal/server"
	"decktracker/internal/service"
)

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	fx.Provide(cache.NewClient),
	fx.Provide(cache.NewStore),
	fx.Provide(ratelimit.NewUpstream),
	fx.Provide(ratelimit.NewCallerBudget),
	// upstream client
	fx.Provide(api.NewSupercellClient),
	// repos
	fx.Provide(repository.NewSnapshotRepository),
	fx.Provide(repository.NewTrackedClanRepository),
	// svc
	fx.Provide(service.NewNameResolver),
	fx.Provide(service.NewDeckPredictor),
	fx.Provide(service.NewPlayerStatsService),
	fx.Provide(service.NewClanSnapshotService),
	fx.Provide(service.NewOrchestrator),
	// server
	fx.Provide(server.New),
)
