// Package endpoints maps logical entity names to backend paths and builds
// the relative URL for a single call.
package endpoints

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrUnknownEndpoint is returned when an entity name is not registered.
var ErrUnknownEndpoint = errors.New("unknown endpoint")

// Registry maps a logical entity name to a relative path segment.
// It is never mutated after construction.
type Registry struct {
	paths map[string]string
}

// NewRegistry copies paths into an immutable registry.
func NewRegistry(paths map[string]string) Registry {
	cp := make(map[string]string, len(paths))
	for k, v := range paths {
		cp[k] = v
	}
	return Registry{paths: cp}
}

var defaultRegistry = NewRegistry(map[string]string{
	"sede":                 "sedes",
	"lineaProyecto":        "lineas-proyecto",
	"facultad":             "facultades",
	"escuela":              "escuelas",
	"persona":              "personas",
	"indicador":            "indicadores",
	"actividadConsolidada": "actividades-consolidadas",
	"tema":                 "temas",
	"prioridad":            "prioridades",
	"lineaEstrategia":      "lineas-estrategia",
	"actividad":            "actividades",
	"participacion":        "participaciones",

	"login":   "token/",
	"refresh": "token/refresh",

	"dashboard":                 "dashboard-stats",
	"dashboardResumen":          "dashboard-stats/resumen",
	"dashboardIndicador":        "dashboard-stats/por_indicador",
	"dashboardPrioridad":        "dashboard-stats/por_prioridad",
	"dashboardEstrategia":       "dashboard-stats/por_estrategia",
	"dashboardSede":             "dashboard-stats/por_sede",
	"dashboardEscuela":          "dashboard-stats/por_escuela",
	"dashboardFacultad":         "dashboard-stats/por_facultad",
	"dashboardDetalleActividad": "dashboard-stats/detalle_actividad",
	"dashboardTiempoStats":      "dashboard-stats/por_tiempo_stats",
	"dashboardTiempoDetalle":    "dashboard-stats/detalle_rango_tiempo",
})

// Default returns the process-wide registry of the activity backend.
func Default() Registry {
	return defaultRegistry
}

// Path returns the base path registered for name.
func (r Registry) Path(name string) (string, bool) {
	p, ok := r.paths[name]
	return p, ok
}

// Names lists every registered entity name.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r.paths))
	for k := range r.paths {
		names = append(names, k)
	}
	return names
}

// Resolve builds the relative URL for name.
//
// queryOrID may be nil, a string or a number. A string starting with "?"
// is appended verbatim as a query. Any other non-empty, non-zero value is
// appended as a path segment followed by a slash. An absent value yields
// the collection path with exactly one trailing slash.
func (r Registry) Resolve(name string, queryOrID any) (string, error) {
	base, ok := r.paths[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEndpoint, name)
	}

	if s, ok := queryOrID.(string); ok && strings.HasPrefix(s, "?") {
		return base + s, nil
	}

	if seg, present := segment(queryOrID); present {
		return base + "/" + seg + "/", nil
	}

	return strings.TrimRight(base, "/") + "/", nil
}

// segment renders an identifier and reports whether it counts as present.
func segment(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, t != ""
	case bool:
		return fmt.Sprint(t), t
	case int:
		return fmt.Sprint(t), t != 0
	case int8:
		return fmt.Sprint(t), t != 0
	case int16:
		return fmt.Sprint(t), t != 0
	case int32:
		return fmt.Sprint(t), t != 0
	case int64:
		return fmt.Sprint(t), t != 0
	case uint:
		return fmt.Sprint(t), t != 0
	case uint8:
		return fmt.Sprint(t), t != 0
	case uint16:
		return fmt.Sprint(t), t != 0
	case uint32:
		return fmt.Sprint(t), t != 0
	case uint64:
		return fmt.Sprint(t), t != 0
	case float32:
		f := float64(t)
		return strconv.FormatFloat(f, 'f', -1, 32), f != 0 && !math.IsNaN(f)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), t != 0 && !math.IsNaN(t)
	case fmt.Stringer:
		s := t.String()
		return s, s != ""
	default:
		s := fmt.Sprint(t)
		return s, s != ""
	}
}

// Join concatenates a base URL and a relative URL with exactly one slash.
func Join(baseURL, rel string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(rel, "/")
}
