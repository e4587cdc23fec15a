package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/dvcrn/activity-dashboard/internal/auth"
	"github.com/dvcrn/activity-dashboard/internal/credentials"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HTTPClient is an interface for making HTTP requests
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewHTTPClient creates the HTTP client used for backend calls.
func NewHTTPClient(timeout time.Duration) HTTPClient {
	return &http.Client{
		Timeout: timeout,
	}
}

// Executor performs a single authenticated call. The access token is read
// from the store on every call.
type Executor struct {
	httpClient HTTPClient
	store      credentials.Store
	logger     zerolog.Logger

	// defaultToken is sent when the store holds no token, like a default
	// Authorization header set after a refresh.
	defaultToken atomic.Value
}

func NewExecutor(httpClient HTTPClient, store credentials.Store, logger zerolog.Logger) *Executor {
	e := &Executor{
		httpClient: httpClient,
		store:      store,
		logger:     logger,
	}
	e.defaultToken.Store("")
	return e
}

// SetDefaultToken replaces the token used when the store is empty.
func (e *Executor) SetDefaultToken(token string) {
	e.defaultToken.Store(token)
}

// DefaultToken returns the token used when the store is empty.
func (e *Executor) DefaultToken() string {
	return e.defaultToken.Load().(string)
}

// Do implements Doer.
func (e *Executor) Do(ctx context.Context, req PendingRequest) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-Id", uuid.NewString())

	if httpReq.Header.Get("Authorization") == "" {
		if token := e.currentToken(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	e.logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL).
		Str("attempt", req.Attempt.String()).
		Str("request_id", httpReq.Header.Get("X-Request-Id")).
		Str("authorization_preview", auth.Preview(httpReq.Header.Get("Authorization"))).
		Msg("Backend request")

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Method: req.Method, URL: req.URL, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Method: req.Method, URL: req.URL, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{Method: req.Method, URL: req.URL, Status: resp.StatusCode, Body: data}
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// currentToken prefers the stored access token, then the legacy slot, then
// the default token.
func (e *Executor) currentToken() string {
	creds, err := e.store.Get()
	if err != nil {
		e.logger.Warn().Err(err).Msg("Failed to read credentials, sending default token")
	} else if token := creds.Bearer(); token != "" {
		return token
	}
	return e.DefaultToken()
}
