package apiclient

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dvcrn/activity-dashboard/internal/auth"
	"github.com/dvcrn/activity-dashboard/internal/credentials"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// TokenRefresher exchanges a refresh token for a new pair. Implementations
// must not route through the RefreshInterceptor.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
}

// RefreshOptions configures a RefreshInterceptor.
type RefreshOptions struct {
	Store     credentials.Store
	Refresher TokenRefresher
	Navigator Navigator
	Routes    PrivilegedRoutes
	LoginPath string
	// Coalesce lets concurrent 401s share one refresh call.
	Coalesce bool
	// OnToken is called with every new access token, e.g. to update the
	// executor's default token. OnExpire is called after credentials are
	// cleared.
	OnToken  func(token string)
	OnExpire func()
	Logger   zerolog.Logger
}

// RefreshInterceptor retries a request once after refreshing the access
// token when the backend answers 401.
type RefreshInterceptor struct {
	opts  RefreshOptions
	group *singleflight.Group

	mu        sync.Mutex
	refreshes int
}

func NewRefreshInterceptor(opts RefreshOptions) *RefreshInterceptor {
	if opts.LoginPath == "" {
		opts.LoginPath = "/login"
	}
	i := &RefreshInterceptor{opts: opts}
	if opts.Coalesce {
		i.group = &singleflight.Group{}
	}
	return i
}

// Refreshes returns how many refresh calls were issued.
func (i *RefreshInterceptor) Refreshes() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.refreshes
}

// Wrap implements Middleware. The replay goes back through the wrapped
// Doer; its RetryAttempted state is what ends the cycle.
func (i *RefreshInterceptor) Wrap(next Doer) Doer {
	var wrapped Doer
	wrapped = func(ctx context.Context, req PendingRequest) (*Response, error) {
		resp, err := next(ctx, req)
		if err == nil || !IsUnauthorized(err) {
			return resp, err
		}

		if req.Attempt == RetryAttempted {
			i.opts.Logger.Error().
				Str("method", req.Method).
				Str("url", req.URL).
				Msg("Still received 401 after token refresh, giving up")
			return nil, err
		}

		i.opts.Logger.Warn().
			Str("method", req.Method).
			Str("url", req.URL).
			Msg("Received 401 Unauthorized, attempting token refresh...")

		token, refreshErr := i.refresh(ctx)
		if refreshErr != nil {
			// the caller stopped waiting; the refresh itself may still
			// succeed, so the session is left as it is
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(refreshErr, ctxErr) {
				i.opts.Logger.Debug().Err(ctxErr).Str("url", req.URL).Msg("Caller left during token refresh")
				return nil, &NetworkError{Method: req.Method, URL: req.URL, Err: ctxErr}
			}
			i.expire(ctx)
			if errors.Is(refreshErr, ErrNoRefreshToken) {
				return nil, err
			}
			return nil, &RefreshError{Err: refreshErr}
		}

		i.opts.Logger.Info().Msg("Successfully refreshed credentials, retrying request...")
		return wrapped(ctx, req.Retry(token))
	}
	return wrapped
}

// refresh obtains a new access token. The refresh call is detached from
// ctx so that one caller going away cannot fail it for everyone; ctx only
// bounds how long this caller waits for the result.
func (i *RefreshInterceptor) refresh(ctx context.Context) (string, error) {
	detached := context.WithoutCancel(ctx)
	if i.group == nil {
		return i.refreshOnce(detached)
	}

	ch := i.group.DoChan("refresh", func() (interface{}, error) {
		return i.refreshOnce(detached)
	})

	select {
	case res := <-ch:
		if res.Shared {
			i.opts.Logger.Debug().Msg("Joined in-flight token refresh")
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (i *RefreshInterceptor) refreshOnce(ctx context.Context) (string, error) {
	creds, err := i.opts.Store.Get()
	if err != nil {
		return "", fmt.Errorf("failed to read credentials: %w", err)
	}
	if creds.RefreshToken == "" {
		return "", ErrNoRefreshToken
	}

	i.mu.Lock()
	i.refreshes++
	i.mu.Unlock()

	pair, err := i.opts.Refresher.Refresh(ctx, creds.RefreshToken)
	if err != nil {
		return "", err
	}

	err = i.opts.Store.Update(func(c *credentials.Credentials) {
		c.AccessToken = pair.Access
		if pair.Refresh != "" {
			c.RefreshToken = pair.Refresh
		}
	})
	if err != nil {
		// The replay still carries the new token explicitly.
		i.opts.Logger.Error().Err(err).Msg("Failed to store refreshed tokens")
	}

	if i.opts.OnToken != nil {
		i.opts.OnToken(pair.Access)
	}
	return pair.Access, nil
}

// expire clears every credential slot and navigates to the login location
// when the caller is on a privileged route.
func (i *RefreshInterceptor) expire(ctx context.Context) {
	i.opts.Logger.Warn().Msg("Session expired irrecoverably, clearing credentials")

	if err := i.opts.Store.Clear(); err != nil {
		i.opts.Logger.Error().Err(err).Msg("Failed to clear credentials")
	}
	if i.opts.OnExpire != nil {
		i.opts.OnExpire()
	}

	location := LocationFromContext(ctx)
	if i.opts.Navigator != nil && i.opts.Routes.Match(location) {
		i.opts.Logger.Info().
			Str("from", location).
			Str("to", i.opts.LoginPath).
			Msg("Redirecting to login")
		i.opts.Navigator.Navigate(ctx, i.opts.LoginPath)
	}
}
