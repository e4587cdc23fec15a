// Package app wires configuration, credential storage, the backend client
// and the dashboard service together for the CLI, the server and the
// worker.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvcrn/activity-dashboard/internal/apiclient"
	"github.com/dvcrn/activity-dashboard/internal/config"
	"github.com/dvcrn/activity-dashboard/internal/credentials"
	"github.com/dvcrn/activity-dashboard/internal/dashboard"
	"github.com/dvcrn/activity-dashboard/internal/server"
)

type App struct {
	Config  *config.Config
	Store   credentials.Store
	Client  *apiclient.Client
	Service *dashboard.Service
	Logger  zerolog.Logger
}

// NewStore opens the credential backend selected in cfg.
func NewStore(cfg config.CredentialsConfig, logger zerolog.Logger) (credentials.Store, error) {
	switch cfg.Backend {
	case "", "file":
		path := cfg.Path
		if path == "" {
			path = credentials.DefaultCredsPath()
		}
		logger.Debug().Str("path", path).Msg("Using filesystem credentials store")
		return credentials.NewFSStore(path), nil
	case "keychain":
		logger.Debug().Msg("Using keychain credentials store")
		return credentials.NewKeychainStore(), nil
	case "env":
		logger.Debug().Msg("Using environment credentials store")
		return credentials.NewEnvStore(), nil
	case "memory":
		return credentials.NewMemoryStore(credentials.Credentials{}), nil
	default:
		return nil, fmt.Errorf("unknown credentials backend %q", cfg.Backend)
	}
}

// New builds the client and service on top of store. nav receives the
// login redirect when a session on a privileged route cannot be renewed.
func New(cfg *config.Config, store credentials.Store, nav apiclient.Navigator, logger zerolog.Logger) (*App, error) {
	client, err := apiclient.New(apiclient.Options{
		BaseURL:         cfg.API.BaseURL,
		HTTPClient:      apiclient.NewHTTPClient(cfg.API.Timeout),
		Store:           store,
		Navigator:       nav,
		Routes:          apiclient.PrivilegedRoutes(cfg.Auth.PrivilegedRoutes),
		LoginPath:       cfg.Auth.LoginPath,
		CoalesceRefresh: cfg.Auth.CoalesceRefresh(),
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}

	return &App{
		Config:  cfg,
		Store:   store,
		Client:  client,
		Service: dashboard.NewService(client, logger),
		Logger:  logger,
	}, nil
}

// NewServer creates the HTTP server. Expired sessions on privileged pages
// answer with a redirect to the login path.
func NewServer(cfg *config.Config, store credentials.Store, logger zerolog.Logger) (*server.Server, error) {
	fallback := apiclient.NavigatorFunc(func(_ context.Context, location string) {
		logger.Warn().Str("location", location).Msg("Session expired outside a request")
	})

	a, err := New(cfg, store, server.Navigator(fallback), logger)
	if err != nil {
		return nil, err
	}

	return server.New(server.Options{
		Session:   a.Client,
		Service:   a.Service,
		Store:     store,
		AdminKey:  cfg.Admin.APIKey,
		LoginPath: cfg.Auth.LoginPath,
		Logger:    logger,
	}), nil
}
