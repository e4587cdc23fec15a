// Package apiclient is the authenticated client for the activity backend:
// it resolves entity names to URLs, attaches the bearer token and, on 401,
// refreshes the token and replays the request exactly once.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dvcrn/activity-dashboard/internal/auth"
	"github.com/dvcrn/activity-dashboard/internal/credentials"
	"github.com/dvcrn/activity-dashboard/internal/endpoints"
	"github.com/rs/zerolog"
)

// Options configures a Client.
type Options struct {
	BaseURL    string
	Registry   endpoints.Registry
	HTTPClient HTTPClient
	// RefreshHTTPClient defaults to HTTPClient. It is used bare, outside
	// the interceptor.
	RefreshHTTPClient HTTPClient
	Store             credentials.Store
	Navigator         Navigator
	Routes            PrivilegedRoutes
	LoginPath         string
	CoalesceRefresh   bool
	Logger            zerolog.Logger
}

// Client is the entry point used by the dashboard and the CLI.
type Client struct {
	baseURL     string
	registry    endpoints.Registry
	store       credentials.Store
	executor    *Executor
	interceptor *RefreshInterceptor
	do          Doer
	logger      zerolog.Logger
}

// New composes resolver, executor and refresh interceptor.
func New(opts Options) (*Client, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("apiclient: credentials store is required")
	}
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("apiclient: base URL is required")
	}

	registry := opts.Registry
	if len(registry.Names()) == 0 {
		registry = endpoints.Default()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = NewHTTPClient(0)
	}
	if opts.RefreshHTTPClient == nil {
		opts.RefreshHTTPClient = opts.HTTPClient
	}
	if opts.Routes == nil {
		opts.Routes = DefaultPrivilegedRoutes
	}

	refreshPath, err := registry.Resolve("refresh", nil)
	if err != nil {
		return nil, fmt.Errorf("apiclient: %w", err)
	}

	executor := NewExecutor(opts.HTTPClient, opts.Store, opts.Logger)
	interceptor := NewRefreshInterceptor(RefreshOptions{
		Store:     opts.Store,
		Refresher: auth.NewRefresher(opts.RefreshHTTPClient, endpoints.Join(opts.BaseURL, refreshPath)),
		Navigator: opts.Navigator,
		Routes:    opts.Routes,
		LoginPath: opts.LoginPath,
		Coalesce:  opts.CoalesceRefresh,
		OnToken:   executor.SetDefaultToken,
		OnExpire:  func() { executor.SetDefaultToken("") },
		Logger:    opts.Logger,
	})

	return &Client{
		baseURL:     opts.BaseURL,
		registry:    registry,
		store:       opts.Store,
		executor:    executor,
		interceptor: interceptor,
		do:          interceptor.Wrap(executor.Do),
		logger:      opts.Logger,
	}, nil
}

// Request calls the endpoint registered for entity and returns the raw
// response payload, or nil for an empty body.
//
// body is sent as JSON unless it is nil; []byte and json.RawMessage are sent
// verbatim. queryOrID follows endpoints.Registry.Resolve.
func (c *Client) Request(ctx context.Context, entity, method string, body any, queryOrID any) (json.RawMessage, error) {
	rel, err := c.registry.Resolve(entity, queryOrID)
	if err != nil {
		c.logger.Error().Err(err).Str("entity", entity).Msg("Endpoint not defined")
		return nil, err
	}

	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, PendingRequest{
		Method:  method,
		URL:     endpoints.Join(c.baseURL, rel),
		Body:    payload,
		Attempt: Normal,
	})
	if err != nil {
		c.logger.Error().Err(err).Str("entity", entity).Str("method", method).Msg("Backend request failed")
		return nil, err
	}

	if len(resp.Body) == 0 {
		return nil, nil
	}
	return json.RawMessage(resp.Body), nil
}

// Fetch is Request followed by decoding the payload into out.
func (c *Client) Fetch(ctx context.Context, entity, method string, body any, queryOrID any, out any) error {
	raw, err := c.Request(ctx, entity, method, body, queryOrID)
	if err != nil {
		return err
	}
	if out == nil || raw == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", entity, err)
	}
	return nil
}

// Login exchanges username and password for a token pair and stores both.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var pair auth.TokenPair
	err := c.Fetch(ctx, "login", "POST", auth.LoginRequest{Username: username, Password: password}, nil, &pair)
	if err != nil {
		return err
	}
	if pair.Access == "" {
		return fmt.Errorf("login response has no access token")
	}

	if err := c.store.Set(credentials.Credentials{AccessToken: pair.Access, RefreshToken: pair.Refresh}); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	c.logger.Info().Str("username", username).Msg("Logged in")
	return nil
}

// Logout removes every stored credential.
func (c *Client) Logout() error {
	c.executor.SetDefaultToken("")
	if err := c.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}

// Credentials returns what the store currently holds.
func (c *Client) Credentials() (credentials.Credentials, error) {
	return c.store.Get()
}

// Refreshes returns how many refresh calls this client issued.
func (c *Client) Refreshes() int {
	return c.interceptor.Refreshes()
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return data, nil
}
