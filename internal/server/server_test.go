package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvcrn/activity-dashboard/internal/apiclient"
	"github.com/dvcrn/activity-dashboard/internal/auth"
	"github.com/dvcrn/activity-dashboard/internal/credentials"
	"github.com/dvcrn/activity-dashboard/internal/dashboard"
)

// upstream imitates the activity API behind the dashboard server.
type upstream struct {
	mu            sync.Mutex
	access        string
	refresh       string
	rejectRefresh bool
	paths         []string
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.paths = append(u.paths, r.Method+" "+r.URL.RequestURI())
	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/api/token/":
		var req auth.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"No active account found with the given credentials"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(auth.TokenPair{Access: u.access, Refresh: u.refresh})
		return
	case "/api/token/refresh/":
		var req auth.RefreshRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if u.rejectRefresh || req.Refresh != u.refresh {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Token is invalid or expired"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(auth.TokenPair{Access: u.access})
		return
	}

	if r.Header.Get("Authorization") != "Bearer "+u.access {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Given token not valid for any token type"}`))
		return
	}

	switch {
	case r.URL.Path == "/api/sedes/" && r.Method == http.MethodGet:
		_, _ = w.Write([]byte(`[{"id_sede":1,"nombre":"norte","nombre_original":"Norte"}]`))
	case r.URL.Path == "/api/sedes/" && r.Method == http.MethodPost:
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id_sede":2,"nombre":"sur","nombre_original":"Sur"}`))
	case r.URL.Path == "/api/sedes/2/" && r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	case r.URL.Path == "/api/personas":
		_, _ = w.Write([]byte(`{"results":[{"id_persona":4,"nombre":"ana"}]}`))
	case r.URL.Path == "/api/participaciones/":
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id_participacion":8}`))
	case r.URL.Path == "/api/dashboard-stats/por_sede":
		_, _ = w.Write([]byte(`{"anio":"` + r.URL.Query().Get("anio") + `"}`))
	case r.URL.Path == "/api/dashboard-stats/detalle_actividad/42/":
		_, _ = w.Write([]byte(`{"id":42}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Not found."}`))
	}
}

func (u *upstream) requests() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.paths...)
}

type fixture struct {
	upstream *upstream
	store    *credentials.MemoryStore
	handler  http.Handler
}

func newFixture(t *testing.T, creds credentials.Credentials) *fixture {
	t.Helper()
	up := &upstream{access: "good", refresh: "r-ok"}
	backend := httptest.NewServer(up)
	t.Cleanup(backend.Close)

	store := credentials.NewMemoryStore(creds)
	client, err := apiclient.New(apiclient.Options{
		BaseURL:         backend.URL + "/api/",
		Store:           store,
		Navigator:       Navigator(nil),
		CoalesceRefresh: true,
		Logger:          zerolog.Nop(),
	})
	require.NoError(t, err)

	srv := New(Options{
		Session:  client,
		Service:  dashboard.NewService(client, zerolog.Nop()),
		Store:    store,
		AdminKey: "admin-key",
		Logger:   zerolog.Nop(),
	})
	return &fixture{upstream: up, store: store, handler: srv}
}

func (f *fixture) do(method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	f := newFixture(t, credentials.Credentials{})
	rec := f.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture(t, credentials.Credentials{})
	rec := f.do(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListEntities(t *testing.T) {
	f := newFixture(t, credentials.Credentials{AccessToken: "good", RefreshToken: "r-ok"})
	rec := f.do(http.MethodGet, "/creacion-entidades/sede", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var recs []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "Norte", recs[0]["nombre_original"])
}

func TestExpiredAccessIsRefreshedTransparently(t *testing.T) {
	f := newFixture(t, credentials.Credentials{AccessToken: "stale", RefreshToken: "r-ok"})
	rec := f.do(http.MethodGet, "/creacion-entidades/sede", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	creds, err := f.store.Get()
	require.NoError(t, err)
	assert.Equal(t, "good", creds.AccessToken)
	assert.Equal(t, "r-ok", creds.RefreshToken)
}

func TestFailedRefreshOnPrivilegedPageRedirects(t *testing.T) {
	f := newFixture(t, credentials.Credentials{AccessToken: "stale", RefreshToken: "r-old"})
	rec := f.do(http.MethodGet, "/creacion-entidades/sede", "", nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	creds, err := f.store.Get()
	require.NoError(t, err)
	assert.True(t, creds.Empty())
}

func TestExpiredSessionOnPublicPageReturnsError(t *testing.T) {
	f := newFixture(t, credentials.Credentials{AccessToken: "stale"})
	rec := f.do(http.MethodGet, "/registro-personas/personas?search=ana", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))
}

func TestClientLocationHeaderDecidesRedirect(t *testing.T) {
	f := newFixture(t, credentials.Credentials{AccessToken: "stale"})
	rec := f.do(http.MethodGet, "/registro-personas/personas?search=ana", "", map[string]string{
		"X-Client-Location": "/dashboard/resumen",
	})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestCreateEntity(t *testing.T) {
	f := newFixture(t, credentials.Credentials{AccessToken: "good"})

	rec := f.do(http.MethodPost, "/creacion-entidades/sede", `{"nombre":"Sur"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id_sede":2`)

	rec = f.do(http.MethodPost, "/creacion-entidades/sede", `{"nombre":"NORTE"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodPost, "/creacion-entidades/escuela", `{"nombre":"Sistemas"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Fields, "facultad")

	rec = f.do(http.MethodPost, "/creacion-entidades/planeta", `{"nombre":"x"}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodPost, "/creacion-entidades/sede", `{`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteEntity(t *testing.T) {
	f := newFixture(t, credentials.Credentials{AccessToken: "good"})
	rec := f.do(http.MethodDelete, "/creacion-entidades/sede/2", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, f.upstream.requests(), "DELETE /api/sedes/2/")
}

func TestSearchPeople(t *testing.T) {
	f := newFixture(t, credentials.Credentials{AccessToken: "good"})

	rec := f.do(http.MethodGet, "/registro-personas/personas?search=an", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = f.do(http.MethodGet, "/registro-personas/personas?search=ana%2F", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id_persona":4,"nombre":"ana"}]`, rec.Body.String())
	assert.Contains(t, f.upstream.requests(), "GET /api/personas?search=ana")
}

func TestRegisterParticipation(t *testing.T) {
	f := newFixture(t, credentials.Credentials{AccessToken: "good"})

	rec := f.do(http.MethodPost, "/registro-personas/participaciones",
		`{"persona":1,"actividad":2,"sede":3,"fecha":"2024-05-01"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(http.MethodPost, "/registro-personas/participaciones",
		`{"persona":1,"actividad":2,"sede":3,"fecha":"01/05/2024"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/registro-personas/participaciones", `{"persona":1}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsAndDetail(t *testing.T) {
	f := newFixture(t, credentials.Credentials{AccessToken: "good"})

	rec := f.do(http.MethodGet, "/dashboard/stats/sede?anio=2024", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"anio":"2024"}`, rec.Body.String())

	rec = f.do(http.MethodGet, "/dashboard/actividades/42", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":42}`, rec.Body.String())

	rec = f.do(http.MethodGet, "/dashboard/stats/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLoginAndLogout(t *testing.T) {
	f := newFixture(t, credentials.Credentials{})

	rec := f.do(http.MethodPost, "/login", `{"username":"admin","password":"wrong"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodPost, "/login", `{"username":"admin"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/login", `{"username":"admin","password":"secret"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	creds, err := f.store.Get()
	require.NoError(t, err)
	assert.Equal(t, "good", creds.AccessToken)
	assert.Equal(t, "r-ok", creds.RefreshToken)

	rec = f.do(http.MethodPost, "/logout", "", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	creds, err = f.store.Get()
	require.NoError(t, err)
	assert.True(t, creds.Empty())
}

func TestAdminCredentials(t *testing.T) {
	f := newFixture(t, credentials.Credentials{})

	rec := f.do(http.MethodPost, "/admin/credentials", `{"access_token":"a","refresh_token":"r"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodPost, "/admin/credentials", `{"access_token":"a","refresh_token":"r"}`,
		map[string]string{"Authorization": "Token admin-key"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodPost, "/admin/credentials", `{"access_token":"a"}`,
		map[string]string{"X-API-Key": "admin-key"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/admin/credentials", `{"access_token":"a","refresh_token":"r"}`,
		map[string]string{"Authorization": "Bearer admin-key"})
	require.Equal(t, http.StatusOK, rec.Code)

	creds, err := f.store.Get()
	require.NoError(t, err)
	assert.Equal(t, "a", creds.AccessToken)
	assert.Equal(t, "r", creds.RefreshToken)

	rec = f.do(http.MethodGet, "/admin/credentials/status", "", map[string]string{"X-API-Key": "admin-key"})
	require.Equal(t, http.StatusOK, rec.Code)

	var status struct {
		HasCredentials bool        `json:"hasCredentials"`
		Access         tokenStatus `json:"access"`
		Refresh        tokenStatus `json:"refresh"`
		Refreshes      int         `json:"refreshes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.HasCredentials)
	assert.True(t, status.Access.Present)
	assert.True(t, status.Refresh.Present)
	assert.Nil(t, status.Access.ExpiresAt)
	assert.Zero(t, status.Refreshes)
}

func TestAdminRejectsWrongKeyOfSameLength(t *testing.T) {
	f := newFixture(t, credentials.Credentials{})

	for _, key := range []string{"admin-kex", "Admin-key", "admin-ke"} {
		rec := f.do(http.MethodGet, "/admin/credentials/status", "", map[string]string{"X-API-Key": key})
		assert.Equal(t, http.StatusUnauthorized, rec.Code, key)
	}

	rec := f.do(http.MethodGet, "/admin/credentials/status", "", map[string]string{"X-API-Key": "admin-key"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminNotConfigured(t *testing.T) {
	f := newFixture(t, credentials.Credentials{})
	f.handler = New(Options{Logger: zerolog.Nop()})

	rec := f.do(http.MethodGet, "/admin/credentials/status", "", map[string]string{"X-API-Key": "x"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
