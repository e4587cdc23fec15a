package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dvcrn/activity-dashboard/internal/dashboard"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type entityRequest struct {
	Name    string `json:"nombre"`
	Faculty int    `json:"facultad"`
}

type activityRequest struct {
	Name      string `json:"nombre"`
	Indicator int    `json:"indicador"`
}

type participationRequest struct {
	Person   int    `json:"persona"`
	Activity int    `json:"actividad"`
	Campus   int    `json:"sede"`
	Date     string `json:"fecha"`
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Missing required fields: username, password"})
		return
	}

	if err := s.session.Login(r.Context(), req.Username, req.Password); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info().Str("username", req.Username).Msg("Logged in")
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Logout(); err != nil {
		s.writeError(w, r, err)
		return
	}
	http.Redirect(w, r, s.loginPath, http.StatusSeeOther)
}

func (s *Server) listEntitiesHandler(w http.ResponseWriter, r *http.Request) {
	recs, err := s.service.ListEntities(r.Context(), chi.URLParam(r, "kind"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []dashboard.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) createEntityHandler(w http.ResponseWriter, r *http.Request) {
	var req entityRequest
	if !s.decode(w, r, &req) {
		return
	}

	rec, err := s.service.CreateEntity(r.Context(), chi.URLParam(r, "kind"), req.Name, req.Faculty)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) deleteEntityHandler(w http.ResponseWriter, r *http.Request) {
	err := s.service.DeleteEntity(r.Context(), chi.URLParam(r, "kind"), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) searchPeopleHandler(w http.ResponseWriter, r *http.Request) {
	recs, err := s.service.SearchPeople(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []dashboard.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) createPersonHandler(w http.ResponseWriter, r *http.Request) {
	var p dashboard.NewPerson
	if !s.decode(w, r, &p) {
		return
	}

	rec, err := s.service.CreatePerson(r.Context(), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) createActivityHandler(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if !s.decode(w, r, &req) {
		return
	}

	rec, err := s.service.CreateActivity(r.Context(), req.Name, req.Indicator)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) registerParticipationHandler(w http.ResponseWriter, r *http.Request) {
	var req participationRequest
	if !s.decode(w, r, &req) {
		return
	}

	p := dashboard.Participation{PersonID: req.Person, ActivityID: req.Activity, CampusID: req.Campus}
	if req.Date != "" {
		date, err := time.Parse(time.DateOnly, req.Date)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{
				Error:  "invalid date",
				Fields: map[string]string{"fecha": "must be a date in YYYY-MM-DD format"},
			})
			return
		}
		p.Date = date
	}

	rec, err := s.service.RegisterParticipation(r.Context(), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	view := dashboard.View(chi.URLParam(r, "view"))
	raw, err := s.service.Stats(r.Context(), view, r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeRaw(w, http.StatusOK, raw)
}

func (s *Server) activityDetailHandler(w http.ResponseWriter, r *http.Request) {
	raw, err := s.service.ActivityDetail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeRaw(w, http.StatusOK, raw)
}
