package dashboard

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dvcrn/activity-dashboard/internal/search"
)

// PersonSearchMinLength is the shortest cleaned term the person search sends.
const PersonSearchMinLength = 3

// NewPerson is the registration form of a participant.
type NewPerson struct {
	Name           string `json:"nombre" validate:"notblank"`
	DocumentType   string `json:"tipo_documento" validate:"required"`
	DocumentNumber string `json:"numero_documento" validate:"notblank"`
	Email          string `json:"correo" validate:"required,email"`
	Estate         string `json:"estamento" validate:"required"`
	SchoolID       int    `json:"escuela" validate:"required,gt=0"`
	Age            int    `json:"edad" validate:"omitempty,gte=0,lte=130"`
	Sex            string `json:"sexo"`
	Phone          string `json:"telefono"`
}

type personBody struct {
	Name                 string `json:"nombre"`
	OriginalName         string `json:"nombre_original"`
	DocumentType         string `json:"tipo_documento"`
	OriginalDocumentType string `json:"tipo_documento_original"`
	DocumentNumber       string `json:"numero_documento"`
	Email                string `json:"correo"`
	Estate               string `json:"estamento"`
	Age                  int    `json:"edad,omitempty"`
	Sex                  string `json:"sexo,omitempty"`
	Phone                string `json:"telefono,omitempty"`
	School               int    `json:"escuela"`
}

// Participation links a person to an activity at a campus on a date.
type Participation struct {
	PersonID   int       `json:"persona" validate:"required,gt=0"`
	ActivityID int       `json:"actividad" validate:"required,gt=0"`
	CampusID   int       `json:"sede" validate:"required,gt=0"`
	Date       time.Time `json:"fecha" validate:"required"`
}

type participationBody struct {
	Person   int    `json:"persona"`
	Activity int    `json:"actividad"`
	Campus   int    `json:"sede"`
	Date     string `json:"fecha"`
	Year     int    `json:"anio"`
}

type activityBody struct {
	Name         string `json:"nombre"`
	OriginalName string `json:"nombre_original"`
	Indicator    int    `json:"indicador"`
}

// SearchPeople returns the people matching term. Terms shorter than
// PersonSearchMinLength after cleaning return no results without a call.
func (s *Service) SearchPeople(ctx context.Context, term string) ([]Record, error) {
	term = search.CleanPersonTerm(term)
	if utf8.RuneCountInString(term) < PersonSearchMinLength {
		return nil, nil
	}
	raw, err := s.api.Request(ctx, "persona", http.MethodGet, nil, "?search="+url.QueryEscape(term))
	if err != nil {
		return nil, err
	}
	return decodeRecords(raw)
}

func (s *Service) CreatePerson(ctx context.Context, p NewPerson) (Record, error) {
	if err := check(p); err != nil {
		return Record{}, err
	}

	name := strings.TrimSpace(p.Name)
	body := personBody{
		Name:                 NormalizeName(name),
		OriginalName:         name,
		DocumentType:         NormalizeName(p.DocumentType),
		OriginalDocumentType: p.DocumentType,
		DocumentNumber:       strings.TrimSpace(p.DocumentNumber),
		Email:                strings.ToLower(strings.TrimSpace(p.Email)),
		Estate:               p.Estate,
		Age:                  p.Age,
		Sex:                  p.Sex,
		Phone:                strings.TrimSpace(p.Phone),
		School:               p.SchoolID,
	}

	raw, err := s.api.Request(ctx, "persona", http.MethodPost, body, nil)
	if err != nil {
		return Record{}, err
	}
	s.logger.Info().Str("entity", "persona").Str("name", body.Name).Msg("person registered")
	return decodeRecord(raw)
}

func (s *Service) CreateActivity(ctx context.Context, name string, indicatorID int) (Record, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Record{}, fieldError("nombre", "this field cannot be blank")
	}
	if indicatorID <= 0 {
		return Record{}, fieldError("indicador", "this field is required")
	}

	body := activityBody{Name: NormalizeName(name), OriginalName: name, Indicator: indicatorID}
	raw, err := s.api.Request(ctx, "actividad", http.MethodPost, body, nil)
	if err != nil {
		return Record{}, err
	}
	return decodeRecord(raw)
}

// RegisterParticipation records p. The year sent as "anio" is taken from
// the participation date.
func (s *Service) RegisterParticipation(ctx context.Context, p Participation) (Record, error) {
	if err := check(p); err != nil {
		return Record{}, err
	}

	body := participationBody{
		Person:   p.PersonID,
		Activity: p.ActivityID,
		Campus:   p.CampusID,
		Date:     p.Date.Format(time.DateOnly),
		Year:     p.Date.Year(),
	}
	raw, err := s.api.Request(ctx, "participacion", http.MethodPost, body, nil)
	if err != nil {
		return Record{}, err
	}
	return decodeRecord(raw)
}
