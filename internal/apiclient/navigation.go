package apiclient

import (
	"context"
	"strings"
)

// Navigator performs the forced navigation to the login location.
type Navigator interface {
	Navigate(ctx context.Context, location string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, location string)

func (f NavigatorFunc) Navigate(ctx context.Context, location string) { f(ctx, location) }

// PrivilegedRoutes is a set of location prefixes that require a session.
type PrivilegedRoutes []string

// DefaultPrivilegedRoutes are the dashboard and entity-management areas.
var DefaultPrivilegedRoutes = PrivilegedRoutes{"/dashboard", "/creacion-entidades"}

// Match reports whether location falls under one of the prefixes.
func (p PrivilegedRoutes) Match(location string) bool {
	if location == "" {
		return false
	}
	for _, prefix := range p {
		if prefix != "" && strings.HasPrefix(location, prefix) {
			return true
		}
	}
	return false
}

type locationKey struct{}

// WithLocation records the location the caller is currently on.
func WithLocation(ctx context.Context, location string) context.Context {
	return context.WithValue(ctx, locationKey{}, location)
}

// LocationFromContext returns the location recorded by WithLocation.
func LocationFromContext(ctx context.Context) string {
	location, _ := ctx.Value(locationKey{}).(string)
	return location
}
