package main

import (
	"quickorder/internal/config"
	"quickorder/internal/database"
	"quickorder/internal/logging"
	"quickorder/internal/server"
)

func main() {
	cfg := config.Load()

	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	logging.SetStandard(log)
	cfg.WarnUnsafeDefaults(log)

	database.Init(cfg)

	app := server.New(cfg, logging.Component(log, "server"))

	log.WithField("port", cfg.HTTPPort).Info("server listening")
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
