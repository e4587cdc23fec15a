package apiclient

import (
	"context"
	"net/http"
)

// Attempt tracks where a request is in the refresh cycle.
type Attempt int

const (
	// Normal is a first attempt; a 401 may trigger a refresh.
	Normal Attempt = iota
	// RetryAttempted is a replay after a refresh; a 401 is final.
	RetryAttempted
)

func (a Attempt) String() string {
	switch a {
	case Normal:
		return "normal"
	case RetryAttempted:
		return "retry"
	default:
		return "unknown"
	}
}

// PendingRequest describes one outbound call. It is passed by value and
// never mutated once handed to a Doer; a replay is a modified copy.
type PendingRequest struct {
	Method  string
	URL     string
	Body    []byte
	Header  http.Header
	Attempt Attempt
}

// Retry returns a copy marked RetryAttempted that carries token.
func (p PendingRequest) Retry(token string) PendingRequest {
	next := p
	next.Header = p.Header.Clone()
	if next.Header == nil {
		next.Header = http.Header{}
	}
	next.Header.Set("Authorization", "Bearer "+token)
	next.Attempt = RetryAttempted
	return next
}

// Response is a successful backend answer.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Doer performs a PendingRequest.
type Doer func(ctx context.Context, req PendingRequest) (*Response, error)

// Middleware decorates a Doer.
type Middleware func(next Doer) Doer
