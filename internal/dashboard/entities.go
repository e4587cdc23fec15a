package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrDuplicate is returned when an entity with the same normalized name
// already exists.
var ErrDuplicate = errors.New("duplicate entity")

// kinds maps every reference entity with a creation form to its label.
var kinds = map[string]string{
	"sede":                 "Sede",
	"lineaProyecto":        "Línea de proyecto",
	"facultad":             "Facultad",
	"escuela":              "Escuela",
	"indicador":            "Indicador",
	"actividadConsolidada": "Actividad consolidada",
	"tema":                 "Tema",
	"prioridad":            "Prioridad",
	"lineaEstrategia":      "Línea de estrategia",
}

// Kinds lists the reference entity kinds in a stable order.
func Kinds() []string {
	out := make([]string, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Label returns the human label of kind.
func Label(kind string) (string, bool) {
	l, ok := kinds[kind]
	return l, ok
}

func checkKind(kind string) error {
	if _, ok := kinds[kind]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return nil
}

type entityBody struct {
	Name         string `json:"nombre"`
	OriginalName string `json:"nombre_original"`
	Faculty      int    `json:"facultad,omitempty"`
}

func (s *Service) ListEntities(ctx context.Context, kind string) ([]Record, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	raw, err := s.api.Request(ctx, kind, http.MethodGet, nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeRecords(raw)
}

// LoadAll fetches every reference list. A failing kind is logged and left
// out of the result so the remaining lists still load.
func (s *Service) LoadAll(ctx context.Context) map[string][]Record {
	out := make(map[string][]Record, len(kinds))
	for _, kind := range Kinds() {
		recs, err := s.ListEntities(ctx, kind)
		if err != nil {
			s.logger.Error().Err(err).Str("entity", kind).Msg("failed to load entity list")
			continue
		}
		out[kind] = recs
	}
	return out
}

// CreateEntity creates a reference entity named name. facultyID is required
// for "escuela" and ignored otherwise.
func (s *Service) CreateEntity(ctx context.Context, kind, name string, facultyID int) (Record, error) {
	if err := checkKind(kind); err != nil {
		return Record{}, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return Record{}, fieldError("nombre", "this field cannot be blank")
	}

	body := entityBody{Name: NormalizeName(name), OriginalName: name}
	if kind == "escuela" {
		if facultyID <= 0 {
			return Record{}, fieldError("facultad", "this field is required")
		}
		body.Faculty = facultyID
	}

	existing, err := s.ListEntities(ctx, kind)
	if err != nil {
		return Record{}, fmt.Errorf("failed to load existing %s: %w", kind, err)
	}
	for _, rec := range existing {
		if NormalizeName(rec.Name()) == body.Name {
			return Record{}, fmt.Errorf("%w: %s %q", ErrDuplicate, kinds[kind], name)
		}
	}

	raw, err := s.api.Request(ctx, kind, http.MethodPost, body, nil)
	if err != nil {
		return Record{}, err
	}

	s.logger.Info().Str("entity", kind).Str("name", body.Name).Msg("entity created")
	return decodeRecord(raw)
}

func (s *Service) DeleteEntity(ctx context.Context, kind, id string) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return fieldError("id", "this field is required")
	}
	_, err := s.api.Request(ctx, kind, http.MethodDelete, nil, id)
	return err
}
