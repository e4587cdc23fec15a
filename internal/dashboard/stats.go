package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
)

// View names one aggregated statistics view.
type View string

var views = map[View]string{
	"general":        "dashboard",
	"resumen":        "dashboardResumen",
	"indicador":      "dashboardIndicador",
	"prioridad":      "dashboardPrioridad",
	"estrategia":     "dashboardEstrategia",
	"sede":           "dashboardSede",
	"escuela":        "dashboardEscuela",
	"facultad":       "dashboardFacultad",
	"tiempo":         "dashboardTiempoStats",
	"tiempo-detalle": "dashboardTiempoDetalle",
}

// Views lists the supported statistics views.
func Views() []View {
	out := make([]View, 0, len(views))
	for v := range views {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Stats fetches view with the given filters. The payload is returned as-is.
func (s *Service) Stats(ctx context.Context, view View, query url.Values) (json.RawMessage, error) {
	entity, ok := views[view]
	if !ok {
		return nil, fmt.Errorf("%w: stats view %q", ErrUnknownKind, view)
	}

	var q any
	if len(query) > 0 {
		q = "?" + query.Encode()
	}
	return s.api.Request(ctx, entity, http.MethodGet, nil, q)
}

func (s *Service) ActivityDetail(ctx context.Context, id string) (json.RawMessage, error) {
	if id == "" {
		return nil, fieldError("id", "this field is required")
	}
	return s.api.Request(ctx, "dashboardDetalleActividad", http.MethodGet, nil, id)
}
