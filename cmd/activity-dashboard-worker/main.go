//go:build js && wasm

package main

import (
	"github.com/syumai/workers"

	"github.com/dvcrn/activity-dashboard/internal/app"
	"github.com/dvcrn/activity-dashboard/internal/config"
	"github.com/dvcrn/activity-dashboard/internal/credentials"
	"github.com/dvcrn/activity-dashboard/internal/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg.Env, cfg.LogLevel)

	log.Info().Msg("Using Cloudflare KV credentials store")
	store, err := credentials.NewCloudflareKVStore()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Cloudflare KV store")
	}

	srv, err := app.NewServer(cfg, store, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	// workers handles the HTTP server setup
	workers.Serve(srv)
}
