package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// HTTPClient is an interface for making HTTP requests
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError is a non-2xx answer from a token endpoint.
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("token endpoint returned status %d: %s", e.Status, string(e.Body))
}

// ErrEmptyAccessToken is returned when the refresh answer carries no token.
var ErrEmptyAccessToken = errors.New("refresh response has no access token")

// Refresher exchanges refresh tokens at the token endpoint. It posts
// directly on its own HTTP client so a failing refresh never re-enters the
// refresh interceptor.
type Refresher struct {
	httpClient HTTPClient
	url        string
}

func NewRefresher(httpClient HTTPClient, refreshURL string) *Refresher {
	return &Refresher{httpClient: httpClient, url: refreshURL}
}

// URL returns the absolute refresh endpoint.
func (r *Refresher) URL() string {
	return r.url
}

// Refresh performs a token refresh and returns the new pair.
func (r *Refresher) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	jsonData, err := json.Marshal(RefreshRequest{Refresh: refreshToken})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make refresh request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read refresh response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Status: resp.StatusCode, Body: body}
	}

	var pair TokenPair
	if err := json.Unmarshal(body, &pair); err != nil {
		return nil, fmt.Errorf("failed to decode refresh response: %w", err)
	}
	if pair.Access == "" {
		return nil, ErrEmptyAccessToken
	}

	return &pair, nil
}
