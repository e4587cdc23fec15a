package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/dvcrn/activity-dashboard/internal/auth"
)

// fakeBackend imitates the token and collection endpoints of the activity
// API.
type fakeBackend struct {
	mu            sync.Mutex
	validAccess   string
	validRefresh  string
	rotate        bool
	rejectRefresh bool

	// alwaysUnauthorized makes every data call answer 401.
	alwaysUnauthorized bool

	issued        int
	refreshCalls  int
	dataCalls     int
	authHeaders   []string
	unauthorized  int
	lastRequestID string
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	fb := &fakeBackend{validAccess: "access-0", validRefresh: "refresh-0"}
	srv := httptest.NewServer(fb)
	t.Cleanup(srv.Close)
	return fb, srv
}

func (fb *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/api/token/":
		var req auth.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Username != "admin" || req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"No active account found with the given credentials"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(auth.TokenPair{Access: fb.validAccess, Refresh: fb.validRefresh})
		return

	case "/api/token/refresh/":
		fb.refreshCalls++
		var req auth.RefreshRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if fb.rejectRefresh || req.Refresh != fb.validRefresh {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Token is invalid or expired","code":"token_not_valid"}`))
			return
		}
		fb.issued++
		fb.validAccess = fmt.Sprintf("access-%d", fb.issued)
		pair := auth.TokenPair{Access: fb.validAccess}
		if fb.rotate {
			fb.validRefresh = fmt.Sprintf("refresh-%d", fb.issued)
			pair.Refresh = fb.validRefresh
		}
		_ = json.NewEncoder(w).Encode(pair)
		return
	}

	fb.dataCalls++
	fb.lastRequestID = r.Header.Get("X-Request-Id")
	authz := r.Header.Get("Authorization")
	fb.authHeaders = append(fb.authHeaders, authz)
	if fb.alwaysUnauthorized || authz != "Bearer "+fb.validAccess {
		fb.unauthorized++
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Given token not valid for any token type"}`))
		return
	}

	switch {
	case r.URL.Path == "/api/actividades/" && r.Method == http.MethodGet:
		if q := r.URL.Query().Get("search"); q != "" {
			_, _ = w.Write([]byte(`[{"id_actividad":7,"nombre":"taller ` + q + `"}]`))
			return
		}
		_, _ = w.Write([]byte(`[{"id_actividad":1,"nombre":"feria"},{"id_actividad":2,"nombre":"taller"}]`))
	case r.URL.Path == "/api/actividades" && r.Method == http.MethodGet:
		_, _ = w.Write([]byte(`{"results":[{"id_actividad":9,"nombre":"query"}]}`))
	case strings.HasPrefix(r.URL.Path, "/api/actividades/") && r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	case r.URL.Path == "/api/actividades/" && r.Method == http.MethodPost:
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id_actividad":3,"nombre":"nueva"}`))
	case r.URL.Path == "/api/sedes/":
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"boom"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Not found."}`))
	}
}

type backendStats struct {
	validAccess   string
	validRefresh  string
	refreshCalls  int
	dataCalls     int
	authHeaders   []string
	unauthorized  int
	lastRequestID string
}

func (fb *fakeBackend) snapshot() backendStats {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return backendStats{
		validAccess:   fb.validAccess,
		validRefresh:  fb.validRefresh,
		refreshCalls:  fb.refreshCalls,
		dataCalls:     fb.dataCalls,
		authHeaders:   append([]string(nil), fb.authHeaders...),
		unauthorized:  fb.unauthorized,
		lastRequestID: fb.lastRequestID,
	}
}

func (fb *fakeBackend) set(fn func(fb *fakeBackend)) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fn(fb)
}
