package server

import (
	"github.com/gin-gonic/gin"

	"github.com/recall-labs/immersive/internal/config"
	"github.com/recall-labs/immersive/internal/domains/knowledge"
	displayhandler "github.com/recall-labs/immersive/internal/handlers/display"
	mediahandler "github.com/recall-labs/immersive/internal/handlers/media"
	videohandler "github.com/recall-labs/immersive/internal/handlers/video"
	voicehandler "github.com/recall-labs/immersive/internal/handlers/voice"
	"github.com/recall-labs/immersive/pkg/Logger"
	"github.com/recall-labs/immersive/pkg/playback"
)

type Dependencies struct {
	Playback  *playback.Channel
	Knowledge knowledge.Service
	Logger    *Logger.Logger
	Configs   *config.Settings
}

func NewServerDependencies(
	channel *playback.Channel,
	kb knowledge.Service,
	logger *Logger.Logger,
	cfg *config.Settings,
) Dependencies {
	return Dependencies{
		Playback:  channel,
		Knowledge: kb,
		Logger:    logger,
		Configs:   cfg,
	}
}

func InitializeRoutes(cfg *config.Settings, r *gin.Engine, dep Dependencies) {
	r.GET("/", func(ctx *gin.Context) { ctx.JSON(200, gin.H{"message": "Server healthy"}) })
	r.GET("/health", func(ctx *gin.Context) { ctx.JSON(200, gin.H{"status": "ok"}) })

	// Display surface: playback commands out, echo/broadcast chatter in.
	displayhandler.NewHandler(dep.Logger.Named("display"), dep.Playback).RegisterRoutes(r)

	// Voice session endpoint, one orchestrator per connection.
	voicehandler.NewHandler(dep.Logger.Named("voice"), cfg, dep.Playback, dep.Knowledge).RegisterRoutes(r)

	// Ranged video streaming for the display's <video> element.
	videohandler.NewHandler(cfg.Video.AssetPath, dep.Logger.Named("video")).RegisterRoutes(r)

	// Media catalogue REST endpoints.
	mediahandler.NewHandler(dep.Knowledge, dep.Logger.Named("media")).RegisterRoutes(r)
}
