package cmd

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/axellelanca/redirector/internal/cache"
	"github.com/axellelanca/redirector/internal/config"
	"github.com/axellelanca/redirector/internal/database"
	"github.com/axellelanca/redirector/internal/logger"
	"github.com/axellelanca/redirector/internal/repository"
)

// App bundles the collaborators every command needs: logger, database
// handle, repositories and the lazy schema guard.
type App struct {
	Cfg    *config.Config
	Log    logger.Logger
	DB     *gorm.DB
	Links  *repository.GormLinkRepository
	Clicks *repository.GormClickRepository
	Schema *database.SchemaGuard

	redis     *redis.Client
	destCache *cache.DestinationCache
}

// NewApp loads the configuration, builds the logger and opens the database.
func NewApp() (*App, error) {
	cfg, err := LoadedConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, err
	}

	db, err := database.Open(DatabaseConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	return &App{
		Cfg:    cfg,
		Log:    log,
		DB:     db,
		Links:  repository.NewLinkRepository(db),
		Clicks: repository.NewClickRepository(db),
		Schema: database.NewSchemaGuard(db, log),
	}, nil
}

// DatabaseConfig maps the config section onto database.Config.
func DatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		Driver:     cfg.Database.Driver,
		Name:       cfg.Database.Name,
		DSN:        cfg.Database.DSN,
		LogQueries: cfg.Database.LogQueries,
	}
}

// DestinationCache connects to redis on first use when the cache is enabled.
// It returns nil when the cache is disabled or unreachable.
func (a *App) DestinationCache() *cache.DestinationCache {
	if a.destCache != nil || !a.Cfg.Cache.Enabled {
		return a.destCache
	}
	client, err := cache.NewClient(cache.Config{
		Address:  a.Cfg.Cache.Address,
		Password: a.Cfg.Cache.Password,
		DB:       a.Cfg.Cache.DB,
	})
	if err != nil {
		a.Log.Warn("destination cache disabled", logger.Error(err))
		return nil
	}
	a.redis = client
	a.destCache = cache.NewDestinationCache(client, a.Cfg.CacheTTL(), a.Log)
	a.Log.Info("destination cache enabled", logger.String("address", a.Cfg.Cache.Address))
	return a.destCache
}

// Close releases the redis client and the database handle and flushes the logger.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Log.Warn("closing redis client", logger.Error(err))
		}
	}
	if err := database.Close(a.DB); err != nil {
		a.Log.Warn("closing database", logger.Error(err))
	}
	_ = a.Log.Sync()
}
