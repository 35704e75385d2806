//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/orbitwatch/neo-data-service/internal/adapter/cad"
	"github.com/orbitwatch/neo-data-service/internal/adapter/sbdb"
	"github.com/orbitwatch/neo-data-service/internal/adapter/sentry"
	"github.com/orbitwatch/neo-data-service/internal/domain"
	"github.com/orbitwatch/neo-data-service/internal/observability"
	"github.com/orbitwatch/neo-data-service/internal/store"
	"github.com/orbitwatch/neo-data-service/internal/sync"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// startPostgres runs a disposable Postgres container and returns its DSN.
func startPostgres(ctx context.Context, t *testing.T) string {
	t.Helper()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("neo"),
		tcpostgres.WithUsername("neo"),
		tcpostgres.WithPassword("neo"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start postgres container")

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

// feedServer serves JPL-shaped payloads for all three APIs from one base URL.
func feedServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/sbdb_query.api", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"fields": ["pdes"], "count": 2, "data": [["99942"], ["2023 DW"]]}`)
	})
	mux.HandleFunc("/sbdb.api", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("sstr") {
		case "99942":
			fmt.Fprint(w, `{
				"object": {"fullname": "99942 Apophis (2004 MN4)", "orbit_class": {"name": "ATE"}},
				"orbit": {"moid_earth": "0.000270", "elements": [
					{"name": "q", "value": "0.746"}, {"name": "ad", "value": "1.099"}]},
				"phys_par": [
					{"name": "H", "value": "19.7"},
					{"name": "diameter", "value": "0.340"},
					{"name": "albedo", "value": "0.35"}]
			}`)
		default:
			fmt.Fprint(w, `{
				"object": {"fullname": "(2023 DW)", "orbit_class": {"name": "APO"}},
				"orbit": {"moid_earth": "0.001950", "elements": [
					{"name": "q", "value": "0.491"}, {"name": "ad", "value": "1.836"}]},
				"phys_par": [{"name": "H", "value": "26.0"}]
			}`)
		}
	})
	mux.HandleFunc("/cad.api", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"count": "2",
			"fields": ["des", "cd", "dist", "v_rel", "fullname"],
			"data": [
				["99942", "2029-Apr-13 21:46", "0.00025", "7.42", "99942 Apophis (2004 MN4)"],
				["2023 DW", "2026-Feb-27 18:00", "0.031", "24.63", "(2023 DW)"]
			]
		}`)
	})
	mux.HandleFunc("/sentry.api", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("des") == "" {
			fmt.Fprint(w, `{
				"signature": {"version": "2.0"},
				"count": "1",
				"data": [
					{"des": "2023 DW", "fullname": "(2023 DW)", "ip": "5.4e-04", "ts_max": "1",
					 "ps_max": "-2.2", "v_inf": "24.63", "h": "26.0", "last_obs": "2023-03-20"}
				]
			}`)
			return
		}
		fmt.Fprint(w, `{
			"summary": {"des": "2023 DW", "fullname": "(2023 DW)", "ip": "5.4e-04",
			            "ts_max": "1", "ps_max": "-2.2", "v_inf": "24.63", "h": "26.0",
			            "n_imp": 2, "last_obs": "2023-03-20"},
			"data": [{"date": "2046-02-27.30"}, {"date": "2047-02-27.78"}]
		}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newSyncService(t *testing.T, st *store.Store, baseURL string) *sync.Service {
	t.Helper()

	logger := discardLogger()
	client := sentry.NewClient(baseURL, 5*time.Second, logger)
	return sync.New(
		sbdb.NewClient(baseURL, 5*time.Second, logger),
		cad.NewClient(baseURL, 5*time.Second, logger),
		sentry.NewFeed(client, sentry.NewCachedClient(client, 10), logger),
		sync.NewStorage(st),
		nil,
		sync.Options{AsteroidLimit: 100, ApproachDays: 3650, MaxDistanceAU: 0.05},
		logger,
		observability.NewMetricsForTesting(),
	)
}

// TestReconciliationAgainstPostgres runs a full sync into a real database
// twice and checks persisted rows, read queries, and idempotency.
func TestReconciliationAgainstPostgres(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	dsn := startPostgres(ctx, t)
	db, err := store.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(db) })

	feeds := feedServer(t)
	st := store.New(db)
	service := newSyncService(t, st, feeds.URL)

	summary, err := service.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Asteroids)
	assert.Equal(t, 2, summary.Approaches)
	assert.Equal(t, 1, summary.Threats)
	assert.Equal(t, 0, summary.Skipped)

	// Measured diameter survives, H-only objects get the estimate.
	apophis, err := st.Asteroids().GetByDesignation("99942")
	require.NoError(t, err)
	assert.Equal(t, "Apophis", apophis.Name)
	assert.True(t, apophis.AccurateDiameter)
	assert.Equal(t, domain.DiameterMeasured, apophis.DiameterSource)

	dw, err := st.Asteroids().GetByDesignation("2023 DW")
	require.NoError(t, err)
	assert.Equal(t, domain.DiameterCalculated, dw.DiameterSource)
	assert.InDelta(t, 0.02165, dw.EstimatedDiameterKm, 0.0005)

	// Approaches resolve to internal asteroid ids.
	approaches, err := st.Approaches().ByAsteroid(apophis.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, approaches, 1)
	assert.InDelta(t, 7.42, approaches[0].VelocityKmS, 1e-9)
	assert.InDelta(t, approaches[0].DistanceAU*domain.KmPerAU, approaches[0].DistanceKm, 1)

	// Threat carries the derived fields and object-detail enrichment.
	threat, err := st.Threats().GetByDesignation("2023 DW")
	require.NoError(t, err)
	assert.Equal(t, dw.ID, threat.AsteroidID)
	assert.Equal(t, domain.ImpactYears{2046, 2047}, threat.ImpactYears)
	assert.NotEmpty(t, threat.ThreatLevel)
	assert.NotEmpty(t, threat.TorinoText)
	assert.Greater(t, threat.EnergyMegatons, 0.0)
	assert.False(t, threat.Stale)

	// Second run updates in place.
	summary, err = service.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Asteroids)

	n, err := st.Asteroids().Count()
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	stats, err := st.Asteroids().Statistics()
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Total)
	assert.EqualValues(t, 1, stats.AccurateDiameterCount)
}

// TestUnitOfWorkRollbackAgainstPostgres verifies that a failed unit leaves
// no partial rows behind.
func TestUnitOfWorkRollbackAgainstPostgres(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	dsn := startPostgres(ctx, t)
	db, err := store.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(db) })

	st := store.New(db)

	err = st.WithUnit(ctx, func(u *store.UnitOfWork) error {
		repo, err := u.Asteroids()
		if err != nil {
			return err
		}
		if err := repo.Create(&domain.Asteroid{Designation: "1866"}); err != nil {
			return err
		}
		return fmt.Errorf("boom")
	})
	require.Error(t, err)

	_, err = st.Asteroids().GetByDesignation("1866")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// The designation unique index rejects duplicates inside a unit.
	err = st.WithUnit(ctx, func(u *store.UnitOfWork) error {
		repo, err := u.Asteroids()
		if err != nil {
			return err
		}
		return repo.Create(&domain.Asteroid{Designation: "433"})
	})
	require.NoError(t, err)

	err = st.WithUnit(ctx, func(u *store.UnitOfWork) error {
		repo, err := u.Asteroids()
		if err != nil {
			return err
		}
		return repo.Create(&domain.Asteroid{Designation: "433"})
	})
	require.Error(t, err)
}

// TestMarkStaleAgainstPostgres verifies vanished threats are flagged, not
// deleted.
func TestMarkStaleAgainstPostgres(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	dsn := startPostgres(ctx, t)
	db, err := store.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(db) })

	st := store.New(db)

	err = st.WithUnit(ctx, func(u *store.UnitOfWork) error {
		asteroids, err := u.Asteroids()
		if err != nil {
			return err
		}
		threats, err := u.Threats()
		if err != nil {
			return err
		}
		for i, des := range []string{"2023 DW", "2008 JL3"} {
			a := domain.Asteroid{Designation: des}
			if err := asteroids.Create(&a); err != nil {
				return err
			}
			if err := threats.Create(&domain.ThreatAssessment{
				AsteroidID:  a.ID,
				Designation: des,
				TSMax:       1,
				PSMax:       float64(-2 - i),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	var flagged int64
	err = st.WithUnit(ctx, func(u *store.UnitOfWork) error {
		threats, err := u.Threats()
		if err != nil {
			return err
		}
		flagged, err = threats.MarkStaleExcept([]string{"2023 DW"})
		return err
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, flagged)

	current, err := st.Threats().Current(1, 0, 0)
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, "2023 DW", current[0].Designation)

	// The stale row is still readable by designation.
	jl3, err := st.Threats().GetByDesignation("2008 JL3")
	require.NoError(t, err)
	assert.True(t, jl3.Stale)
}
