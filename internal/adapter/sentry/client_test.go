package sentry

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

func newTestClient(url string) *Client {
	return NewClient(url, 5*time.Second, slog.New(slog.DiscardHandler))
}

func TestFetchRisks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1e-10", r.URL.Query().Get("ip-min"))
		w.Write([]byte(`{
			"signature": {"source": "NASA/JPL Sentry Data API", "version": "2.0"},
			"count": "3",
			"data": [
				{"des": "2023 DW", "fullname": "(2023 DW)", "ip": "5.4e-04", "ts_max": "1",
				 "ps_max": "-2.2", "diameter": "0.048", "v_inf": "25.4", "h": "26.0",
				 "n_imp": 10, "last_obs": "2023-03-20"},
				{"des": "101955", "fullname": "(101955) Bennu", "ip": "5.7e-04", "ts_max": "0",
				 "ps_max": "-1.4", "diameter": "0.49", "v_inf": "5.99", "h": "20.19",
				 "n_imp": 157, "last_obs": "2023-05-02"},
				{"des": "2008 JL3", "fullname": "(2008 JL3)", "ip": "1.6e-04", "ts_max": "1",
				 "ps_max": "-3.6", "last_obs": "2008-05-12"}
			]
		}`))
	}))
	defer srv.Close()

	risks, err := newTestClient(srv.URL).FetchRisks(context.Background())
	require.NoError(t, err)
	require.Len(t, risks, 2, "ts_max = 0 objects are filtered out")

	dw := risks[0]
	assert.Equal(t, "2023 DW", dw.Designation)
	assert.Equal(t, 5.4e-4, dw.IP)
	assert.Equal(t, 1, dw.TSMax)
	assert.Equal(t, -2.2, dw.PSMax)
	assert.Equal(t, 0.048, dw.DiameterKm)
	assert.Equal(t, 10, dw.NImp)

	// Missing physical parameters fall back to documented defaults.
	jl3 := risks[1]
	assert.Equal(t, domain.SentryDefaultDiameterKm, jl3.DiameterKm)
	assert.Equal(t, domain.SentryDefaultVInfKmS, jl3.VInfKmS)
	assert.Equal(t, domain.SentryDefaultMagnitude, jl3.AbsoluteMagnitude)
}

func TestFetchObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2023 DW", r.URL.Query().Get("des"))
		w.Write([]byte(`{
			"signature": {"version": "2.0"},
			"summary": {"des": "2023 DW", "fullname": "(2023 DW)", "ip": "5.4e-04",
			            "ts_max": "1", "ps_max": "-2.2", "diameter": "0.048",
			            "v_inf": "25.4", "h": "26.0", "last_obs": "2023-03-20"},
			"data": [
				{"date": "2046-02-14.42", "ip": "4.8e-04"},
				{"date": "2047-02-14.88", "ip": "3.1e-05"},
				{"date": "2046-08-01.10", "ip": "2.5e-05"}
			]
		}`))
	}))
	defer srv.Close()

	risk, err := newTestClient(srv.URL).FetchObject(context.Background(), "2023 DW")
	require.NoError(t, err)
	require.NotNil(t, risk)
	assert.Equal(t, domain.ImpactYears{2046, 2047}, risk.ImpactYears)
	assert.Equal(t, 3, risk.NImp)
}

func TestFetchObject_InBandErrors(t *testing.T) {
	for _, msg := range []string{"specified object not found", "specified object removed"} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error": "` + msg + `"}`))
		}))

		risk, err := newTestClient(srv.URL).FetchObject(context.Background(), "1979 XB")
		require.NoError(t, err, "in-band %q is absence, not failure", msg)
		assert.Nil(t, risk)
		srv.Close()
	}
}

func TestFetchRisks_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchRisks(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestCachedClient(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		des := r.URL.Query().Get("des")
		if des == "gone" {
			w.Write([]byte(`{"error": "specified object removed"}`))
			return
		}
		w.Write([]byte(`{"summary": {"des": "` + des + `", "ts_max": 1}, "data": []}`))
	}))
	defer srv.Close()

	cached := NewCachedClient(newTestClient(srv.URL), 2)
	hits, misses := 0, 0
	cached.OnLookup(func(hit bool) {
		if hit {
			hits++
		} else {
			misses++
		}
	})

	first, err := cached.FetchObject(context.Background(), "99942")
	require.NoError(t, err)
	second, err := cached.FetchObject(context.Background(), "99942")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls, "repeat lookups are served from cache")

	// Absent objects are cached too.
	gone, err := cached.FetchObject(context.Background(), "gone")
	require.NoError(t, err)
	assert.Nil(t, gone)
	_, err = cached.FetchObject(context.Background(), "gone")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	// A third designation evicts the least recently used entry.
	_, err = cached.FetchObject(context.Background(), "101955")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	_, err = cached.FetchObject(context.Background(), "99942")
	require.NoError(t, err)
	assert.Equal(t, 4, calls, "99942 was evicted and refetched")

	assert.Equal(t, 2, hits)
	assert.Equal(t, 4, misses)
}
