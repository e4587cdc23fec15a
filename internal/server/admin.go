package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/dvcrn/activity-dashboard/internal/auth"
	"github.com/dvcrn/activity-dashboard/internal/credentials"
)

// adminMiddleware checks for valid admin API key from either
// 'Authorization: Bearer <key>' or 'X-API-Key: <key>' headers.
func (s *Server) adminMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.adminKey == "" {
			s.logger.Error().Msg("ADMIN_API_KEY not configured")
			http.Error(w, "Admin API not configured", http.StatusInternalServerError)
			return
		}

		var providedToken string
		authHeader := r.Header.Get("Authorization")
		xAPIKeyHeader := r.Header.Get("X-API-Key")

		if authHeader != "" {
			// Expect "Bearer <token>" format, case-insensitive
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				s.logger.Warn().
					Str("method", r.Method).
					Str("uri", r.RequestURI).
					Str("remote_addr", r.RemoteAddr).
					Msg("Invalid Authorization header format for admin endpoint")
				http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
				return
			}
			providedToken = parts[1]
		} else if xAPIKeyHeader != "" {
			providedToken = xAPIKeyHeader
		} else {
			s.logger.Warn().
				Str("method", r.Method).
				Str("uri", r.RequestURI).
				Str("remote_addr", r.RemoteAddr).
				Msg("Missing required Authorization or X-API-Key header for admin endpoint")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		if subtle.ConstantTimeCompare([]byte(providedToken), []byte(s.adminKey)) != 1 {
			s.logger.Warn().
				Str("method", r.Method).
				Str("uri", r.RequestURI).
				Str("remote_addr", r.RemoteAddr).
				Msg("Invalid admin API key provided")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next(w, r)
	}
}

type credentialsRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// credentialsHandler handles POST /admin/credentials, seeding the token
// pair the backend client uses.
func (s *Server) credentialsHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.AccessToken == "" || req.RefreshToken == "" {
		http.Error(w, "Missing required fields: access_token, refresh_token", http.StatusBadRequest)
		return
	}

	err := s.store.Set(credentials.Credentials{AccessToken: req.AccessToken, RefreshToken: req.RefreshToken})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to update credentials")
		http.Error(w, "Failed to update credentials", http.StatusInternalServerError)
		return
	}

	s.logger.Info().Str("access_token", auth.Preview(req.AccessToken)).Msg("Credentials updated successfully")
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Credentials updated successfully",
	})
}

type tokenStatus struct {
	Present   bool       `json:"present"`
	Preview   string     `json:"preview,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	IsExpired bool       `json:"isExpired"`
}

func statusOf(token string, now time.Time) tokenStatus {
	if token == "" {
		return tokenStatus{}
	}
	st := tokenStatus{Present: true, Preview: auth.Preview(token)}
	if exp, ok := auth.Expiry(token); ok {
		st.ExpiresAt = &exp
		st.IsExpired = auth.Expired(token, now)
	}
	return st
}

// credentialsStatusHandler handles GET /admin/credentials/status
func (s *Server) credentialsStatusHandler(w http.ResponseWriter, r *http.Request) {
	creds, err := s.session.Credentials()
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"hasCredentials": false,
			"error":          err.Error(),
		})
		return
	}

	now := time.Now()
	writeJSON(w, http.StatusOK, map[string]any{
		"hasCredentials": !creds.Empty(),
		"access":         statusOf(creds.Bearer(), now),
		"refresh":        statusOf(creds.RefreshToken, now),
		"refreshes":      s.session.Refreshes(),
	})
}
