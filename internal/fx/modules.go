package fx

import (
	"brawl-tracker/internal/api"
	"brawl-tracker/internal/config"
	"brawl-tracker/internal/logger"
	"brawl-tracker/internal/metrics"
	"brawl-tracker/internal/server"
	"brawl-tracker/internal/store"
	syncpkg "brawl-tracker/internal/sync"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	metrics.Module,
	// store
	fx.Provide(store.NewSheetStore),
	fx.Provide(func(s *store.SheetStore) store.Store { return s }),
	fx.Provide(func(s *store.SheetStore) store.Roster { return s }),
	// api client
	fx.Provide(api.NewClient),
	fx.Provide(func(c *api.Client) syncpkg.BattleLogClient { return c }),
	// sync pipeline
	fx.Provide(syncpkg.NewReconciler),
	fx.Provide(syncpkg.NewSweeper),
	fx.Provide(syncpkg.NewCoordinator),
	// server
	fx.Provide(server.New),
)
