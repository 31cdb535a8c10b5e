package app

import (
	"github.com/go-redis/redis"
	"gorm.io/gorm"

	"github.com/recall-labs/immersive/internal/config"
	"github.com/recall-labs/immersive/internal/domains/knowledge"
	mediarepo "github.com/recall-labs/immersive/internal/repository/media"
	"github.com/recall-labs/immersive/internal/server"
	"github.com/recall-labs/immersive/pkg/Logger"
	"github.com/recall-labs/immersive/pkg/playback"
)

// App represents the application with all its dependencies
type App struct {
	Config *config.Settings
	Logger *Logger.Logger
	DB     *gorm.DB
	RC     *redis.Client

	Playback  *playback.Channel
	MediaRepo knowledge.MediaRepository
	Knowledge knowledge.Service

	ServerDeps server.Dependencies
}

// NewApp creates a new application instance with all dependencies properly wired
func NewApp(cfg *config.Settings, logger *Logger.Logger, db *gorm.DB, rc *redis.Client) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
		DB:     db,
		RC:     rc,
	}

	if err := app.setupDependencies(); err != nil {
		return nil, err
	}

	return app, nil
}

// setupDependencies initializes all application dependencies
func (a *App) setupDependencies() error {
	// Shared playback channel: voice sessions write, display sockets read.
	a.Playback = playback.NewChannel(a.Logger.Named("playback"))

	// Media catalogue and transcript knowledge base.
	a.MediaRepo = mediarepo.NewGormMediaRepo(a.DB)
	a.Knowledge = knowledge.New(a.MediaRepo, a.RC, a.Logger.Named("knowledge"))

	a.ServerDeps = server.NewServerDependencies(
		a.Playback,
		a.Knowledge,
		a.Logger,
		a.Config,
	)

	return nil
}

// GetServerDependencies returns the server dependencies
func (a *App) GetServerDependencies() server.Dependencies {
	return a.ServerDeps
}
