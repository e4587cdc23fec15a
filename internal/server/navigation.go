package server

import (
	"context"
	"sync"

	"github.com/dvcrn/activity-dashboard/internal/apiclient"
)

type redirectKey struct{}

// redirect holds the navigation requested while serving one request.
type redirect struct {
	mu       sync.Mutex
	location string
}

func (r *redirect) set(location string) {
	r.mu.Lock()
	r.location = location
	r.mu.Unlock()
}

func (r *redirect) get() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.location
}

func withLocation(ctx context.Context, location string) context.Context {
	return apiclient.WithLocation(ctx, location)
}

func withRedirect(ctx context.Context) context.Context {
	return context.WithValue(ctx, redirectKey{}, &redirect{})
}

// redirectTo returns the location requested for the current request, if any.
func redirectTo(ctx context.Context) string {
	if r, ok := ctx.Value(redirectKey{}).(*redirect); ok {
		return r.get()
	}
	return ""
}

// Navigator turns interceptor navigations into a redirect of the request
// being served. Calls outside a request are logged and dropped.
func Navigator(fallback apiclient.Navigator) apiclient.Navigator {
	return apiclient.NavigatorFunc(func(ctx context.Context, location string) {
		if r, ok := ctx.Value(redirectKey{}).(*redirect); ok {
			r.set(location)
			return
		}
		if fallback != nil {
			fallback.Navigate(ctx, location)
		}
	})
}
