package sbdb

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitwatch/neo-data-service/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestFetchAsteroids(t *testing.T) {
	objects := map[string]string{
		// Measured diameter, named object; values arrive as suffixed strings.
		"99942": `{
			"object": {"fullname": "99942 Apophis (2004 MN4)", "orbit_class": {"name": "Aten"}},
			"orbit": {
				"elements": [
					{"name": "q", "value": "0.746"},
					{"name": "ad", "value": "1.0985"}
				],
				"moid": "0.000407"
			},
			"phys_par": [
				{"name": "H", "value": 19.7},
				{"name": "albedo", "value": "0.285"},
				{"name": "diameter", "value": "0.340±0.046 km"}
			]
		}`,
		// Albedo but no diameter: derived, source computed.
		"2023 DW": `{
			"object": {"fullname": "(2023 DW)", "orbit_class": {"name": "Apollo"}},
			"orbit": {"elements": [], "moid_earth": 0.0024},
			"phys_par": [
				{"name": "H", "value": "20.0"},
				{"name": "albedo", "value": "0.15"}
			]
		}`,
		// Nothing measured: assumed albedo, source calculated.
		"2010 XB": `{
			"object": {"fullname": "(2010 XB)", "orbit_class": {"name": "Apollo"}},
			"orbit": {"elements": []},
			"phys_par": []
		}`,
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sbdb_query.api":
			assert.Equal(t, "pha", r.URL.Query().Get("sb-group"))
			assert.Equal(t, "3", r.URL.Query().Get("limit"))
			w.Write([]byte(`{"data": [["99942"], ["2023 DW"], ["2010 XB"]]}`))
		case "/sbdb.api":
			body, ok := objects[r.URL.Query().Get("sstr")]
			require.True(t, ok, "unexpected object %q", r.URL.Query().Get("sstr"))
			w.Write([]byte(body))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, discardLogger())
	asteroids, err := client.FetchAsteroids(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, asteroids, 3)

	apophis := asteroids[0]
	assert.Equal(t, "99942", apophis.Designation)
	assert.Equal(t, "99942 Apophis", apophis.Name)
	assert.Equal(t, "Aten", apophis.OrbitClass)
	assert.Equal(t, 0.746, apophis.PerihelionAU)
	assert.Equal(t, 1.0985, apophis.AphelionAU)
	assert.Equal(t, 0.000407, apophis.EarthMOIDAU)
	assert.Equal(t, 0.34, apophis.EstimatedDiameterKm)
	assert.True(t, apophis.AccurateDiameter)
	assert.Equal(t, domain.DiameterMeasured, apophis.DiameterSource)

	dw := asteroids[1]
	assert.Equal(t, "2023 DW", dw.Designation)
	assert.Empty(t, dw.Name, "parenthesized-only fullnames have no proper name")
	assert.InDelta(t, 0.1329, dw.EstimatedDiameterKm, 0.001)
	assert.False(t, dw.AccurateDiameter)
	assert.Equal(t, domain.DiameterComputed, dw.DiameterSource)

	xb := asteroids[2]
	assert.Equal(t, domain.DefaultAbsoluteMagnitude, xb.AbsoluteMagnitude)
	assert.Equal(t, domain.AssumedAlbedo, xb.Albedo)
	assert.Equal(t, domain.DiameterCalculated, xb.DiameterSource)
	assert.Greater(t, xb.EstimatedDiameterKm, 0.0)
}

func TestFetchAsteroids_SkipsFailedDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sbdb_query.api":
			w.Write([]byte(`{"data": [["broken"], ["2010 XB"]]}`))
		case "/sbdb.api":
			if r.URL.Query().Get("sstr") == "broken" {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			w.Write([]byte(`{"object": {"fullname": "(2010 XB)"}, "orbit": {}, "phys_par": []}`))
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, discardLogger())
	asteroids, err := client.FetchAsteroids(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, asteroids, 1)
	assert.Equal(t, "2010 XB", asteroids[0].Designation)
}

func TestFetchAsteroids_ListFailureIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, discardLogger())
	_, err := client.FetchAsteroids(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestParseLooseFloat(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"0.433", 0.433, true},
		{"0.340±0.046", 0.34, true},
		{"19.7 mag", 19.7, true},
		{"1.25 (approx)", 1.25, true},
		{"2.2e-3", 0.0022, true},
		{"", 0, false},
		{"n/a", 0, false},
	}
	for _, tc := range cases {
		got, ok := parseLooseFloat(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, "input %q", tc.in)
		}
	}
}
