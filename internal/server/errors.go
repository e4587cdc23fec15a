package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dvcrn/activity-dashboard/internal/apiclient"
	"github.com/dvcrn/activity-dashboard/internal/dashboard"
)

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, status int, raw json.RawMessage) {
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

// statusFor maps a client or domain error onto the response status.
func statusFor(err error) int {
	var (
		verr    *dashboard.ValidationError
		httpErr *apiclient.HTTPError
		netErr  *apiclient.NetworkError
		refErr  *apiclient.RefreshError
	)

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, dashboard.ErrUnknownKind), errors.Is(err, apiclient.ErrUnknownEndpoint):
		return http.StatusNotFound
	case errors.As(err, &refErr), errors.As(err, &netErr):
		return http.StatusBadGateway
	case errors.As(err, &httpErr):
		return httpErr.Status
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with a redirect when the interceptor navigated during
// the request, otherwise with a JSON error.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if location := redirectTo(r.Context()); location != "" {
		s.logger.Info().Str("uri", r.RequestURI).Str("location", location).Msg("Session expired, redirecting")
		http.Redirect(w, r, location, http.StatusSeeOther)
		return
	}

	status := statusFor(err)
	body := errorBody{Error: err.Error()}

	var verr *dashboard.ValidationError
	if errors.As(err, &verr) {
		body.Fields = verr.Fields
	}

	evt := s.logger.Warn()
	if status >= http.StatusInternalServerError {
		evt = s.logger.Error()
	}
	evt.Err(err).Str("uri", r.RequestURI).Int("status", status).Msg("Request failed")

	writeJSON(w, status, body)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.logger.Error().Err(err).Msg("Failed to parse request body")
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return false
	}
	return true
}
