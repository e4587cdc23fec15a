package main

import (
	"errors"
	"net/http"
	"os"

	"github.com/dvcrn/activity-dashboard/internal/app"
	"github.com/dvcrn/activity-dashboard/internal/config"
	"github.com/dvcrn/activity-dashboard/internal/logger"
)

func main() {
	cfg := config.MustLoad("")
	log := logger.New(cfg.Env, cfg.LogLevel)

	store, err := app.NewStore(cfg.Credentials, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open credentials store")
	}

	cli := &commandLine{
		cfg:    cfg,
		store:  store,
		logger: log,
		in:     os.Stdin,
		out:    os.Stdout,
		listen: http.ListenAndServe,
	}
	if err := cli.run(os.Args); err != nil {
		if errors.Is(err, errHelp) {
			os.Exit(2)
		}
		log.Fatal().Err(err).Msg("Command failed")
	}
}
