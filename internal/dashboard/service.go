// Package dashboard holds the activity-tracking operations the forms and the
// statistics views perform against the backend: reference entities, people,
// activities, participations and aggregated stats.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dvcrn/activity-dashboard/internal/search"
)

// API is the request surface of the authenticated client.
type API interface {
	Request(ctx context.Context, entity, method string, body any, queryOrID any) (json.RawMessage, error)
}

// ErrUnknownKind is returned for an entity kind that has no form.
var ErrUnknownKind = errors.New("unknown entity kind")

// Record is one backend row as decoded JSON. It encodes back to the same
// plain object.
type Record struct {
	Fields map[string]any
	id     string
}

// ID returns the row identifier (first id_* key in the row, else id).
func (r Record) ID() string { return r.id }

// Name returns the display name (nombre_original, else nombre).
func (r Record) Name() string { return search.RecordName(r.Fields) }

func (r Record) MarshalJSON() ([]byte, error) { return json.Marshal(r.Fields) }

func (r *Record) UnmarshalJSON(data []byte) error {
	c, err := search.DecodeCandidate(data)
	if err != nil {
		return err
	}
	*r = recordFrom(c)
	return nil
}

func recordFrom(c search.Candidate) Record {
	return Record{Fields: c.Raw, id: c.ID}
}

type Service struct {
	api    API
	logger zerolog.Logger
}

func NewService(api API, logger zerolog.Logger) *Service {
	return &Service{api: api, logger: logger}
}

func decodeRecords(raw json.RawMessage) ([]Record, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	cands, err := search.ParseCandidates(raw)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(cands))
	for _, c := range cands {
		out = append(out, recordFrom(c))
	}
	return out, nil
}

func decodeRecord(raw json.RawMessage) (Record, error) {
	if len(raw) == 0 {
		return Record{}, nil
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, fmt.Errorf("failed to decode record: %w", err)
	}
	return rec, nil
}
