package endpoints

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	reg := Default()

	tests := []struct {
		name      string
		entity    string
		queryOrID any
		want      string
	}{
		{name: "collection gets one trailing slash", entity: "actividad", want: "actividades/"},
		{name: "already slashed collection", entity: "login", want: "token/"},
		{name: "query is appended verbatim", entity: "actividad", queryOrID: "?search=x", want: "actividades?search=x"},
		{name: "int id", entity: "actividad", queryOrID: 42, want: "actividades/42/"},
		{name: "string id", entity: "persona", queryOrID: "17", want: "personas/17/"},
		{name: "int64 id", entity: "sede", queryOrID: int64(3), want: "sedes/3/"},
		{name: "zero id counts as absent", entity: "sede", queryOrID: 0, want: "sedes/"},
		{name: "empty string counts as absent", entity: "sede", queryOrID: "", want: "sedes/"},
		{name: "zero float counts as absent", entity: "sede", queryOrID: 0.0, want: "sedes/"},
		{name: "NaN counts as absent", entity: "sede", queryOrID: math.NaN(), want: "sedes/"},
		{name: "zero float32 counts as absent", entity: "sede", queryOrID: float32(0), want: "sedes/"},
		{name: "whole float id", entity: "sede", queryOrID: float64(7), want: "sedes/7/"},
		{name: "fractional float id", entity: "sede", queryOrID: 2.5, want: "sedes/2.5/"},
		{name: "nested path", entity: "dashboardDetalleActividad", queryOrID: 9, want: "dashboard-stats/detalle_actividad/9/"},
		{name: "refresh path", entity: "refresh", want: "token/refresh/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reg.Resolve(tt.entity, tt.queryOrID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveUnknownEndpoint(t *testing.T) {
	_, err := Default().Resolve("noExiste", nil)
	require.ErrorIs(t, err, ErrUnknownEndpoint)
}

func TestResolveIsPure(t *testing.T) {
	reg := Default()
	for _, name := range reg.Names() {
		for _, arg := range []any{nil, 42, "?search=abc"} {
			first, err := reg.Resolve(name, arg)
			require.NoError(t, err)
			second, err := reg.Resolve(name, arg)
			require.NoError(t, err)
			assert.Equal(t, first, second, "entity %s arg %v", name, arg)
		}
	}
}

func TestNewRegistryCopiesInput(t *testing.T) {
	paths := map[string]string{"tema": "temas"}
	reg := NewRegistry(paths)
	paths["tema"] = "otra"

	got, ok := reg.Path("tema")
	require.True(t, ok)
	assert.Equal(t, "temas", got)
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "http://127.0.0.1:8000/api/sedes/", Join("http://127.0.0.1:8000/api/", "sedes/"))
	assert.Equal(t, "http://h/api/sedes/", Join("http://h/api", "/sedes/"))
}
