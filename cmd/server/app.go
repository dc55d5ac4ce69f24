package main

import (
	"fmt"

	"github.com/yukikurage/watchtower-api/internal/clock"
	"github.com/yukikurage/watchtower-api/internal/database"
	"github.com/yukikurage/watchtower-api/internal/events"
	"github.com/yukikurage/watchtower-api/internal/repository"
	"github.com/yukikurage/watchtower-api/internal/services"
	"gorm.io/gorm"
)

// app holds the wired services shared by every command
type app struct {
	db    *gorm.DB
	clock clock.Clock

	auth        *services.AuthService
	tokens      *services.TokenService
	shifts      *services.ShiftService
	controllers *services.ControllerService
	engine      *services.StatusEngine
}

func newApp() (*app, error) {
	db, err := database.Connect(cfg, log)
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(db, log); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		publisher = events.NewAMQPPublisher(cfg.AMQPURL, log)
		log.Info("Publishing status changes to the message broker")
	}

	clk := clock.Real{}
	controllerRepo := repository.NewControllerRepository(db)

	return &app{
		db:          db,
		clock:       clk,
		auth:        services.NewAuthService(repository.NewUserRepository(db)),
		tokens:      services.NewTokenService(repository.NewTokenRepository(db), clk, log),
		shifts:      services.NewShiftService(repository.NewShiftRepository(db), controllerRepo, clk, log),
		controllers: services.NewControllerService(controllerRepo, cfg.Mode(), log),
		engine: services.NewStatusEngine(repository.NewStatusRepository(db), clk, services.StatusEngineOptions{
			Mode:       cfg.Mode(),
			UndoWindow: cfg.UndoWindow(),
			Publisher:  publisher,
			Logger:     log,
		}),
	}, nil
}

func (a *app) Close() {
	if err := database.Close(a.db); err != nil {
		log.WithError(err).Warn("Failed to close database")
	}
}
