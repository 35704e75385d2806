package cad

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchApproaches(t *testing.T) {
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2026-01-10", q.Get("date-min"))
		assert.Equal(t, "2026-02-09", q.Get("date-max"))
		assert.Equal(t, "0.05", q.Get("dist-max"))
		assert.Equal(t, "Earth", q.Get("body"))

		w.Write([]byte(`{
			"fields": ["des", "orbit_id", "cd", "dist", "v_rel", "fullname"],
			"data": [
				["99942", "218", "2029-Apr-13 21:46", "0.000254", "7.42", "99942 Apophis (2004 MN4)"],
				["2023 DW", "12", "2046-Feb-14 08:30", "0.012", "24.6", "(2023 DW)"],
				["bad", "1", "not-a-date", "0.01", "10.0", "broken"]
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, slog.New(slog.DiscardHandler))
	approaches, err := client.FetchApproaches(context.Background(), now, 30, 0.05)
	require.NoError(t, err)
	require.Len(t, approaches, 2, "malformed rows are skipped, not fatal")

	first := approaches[0]
	assert.Equal(t, "99942", first.Designation)
	assert.Equal(t, time.Date(2029, 4, 13, 21, 46, 0, 0, time.UTC), first.ApproachTime)
	assert.Equal(t, 0.000254, first.DistanceAU)
	assert.InDelta(t, 0.000254*149597870.7, first.DistanceKm, 1e-6)
	assert.Equal(t, 7.42, first.VelocityKmS)
	assert.Zero(t, first.AsteroidID, "resolution happens at reconciliation time")
}

func TestFetchApproaches_EmptyPeriod(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"count": "0"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, slog.New(slog.DiscardHandler))
	approaches, err := client.FetchApproaches(context.Background(), time.Now(), 7, 0.05)
	require.NoError(t, err)
	assert.Empty(t, approaches)
}

func TestFetchApproaches_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, slog.New(slog.DiscardHandler))
	_, err := client.FetchApproaches(context.Background(), time.Now(), 7, 0.05)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestFieldIndices_MissingRequiredField(t *testing.T) {
	assert.Nil(t, fieldIndices([]string{"des", "cd", "dist"}))
	assert.NotNil(t, fieldIndices([]string{"des", "cd", "dist", "v_rel"}))
}
