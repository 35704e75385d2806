// Package sync implements the fetch-resolve-upsert reconciliation of feed
// data into the database.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/orbitwatch/neo-data-service/internal/domain"
	"github.com/orbitwatch/neo-data-service/internal/observability"
)

// Feed interfaces, satisfied by the adapter clients.

type AsteroidFeed interface {
	FetchAsteroids(ctx context.Context, limit int) ([]domain.Asteroid, error)
}

type ApproachFeed interface {
	FetchApproaches(ctx context.Context, now time.Time, days int, maxDistanceAU float64) ([]domain.CloseApproach, error)
}

type ThreatFeed interface {
	FetchRisks(ctx context.Context) ([]domain.ThreatAssessment, error)
}

// EventPublisher receives a summary event after each completed stage.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.SyncEvent) error
}

// Options bound the reconciliation run.
type Options struct {
	AsteroidLimit int
	ApproachDays  int
	MaxDistanceAU float64
}

// Summary reports per-entity counts for one reconciliation run.
type Summary struct {
	Asteroids  int
	Approaches int
	Threats    int
	Skipped    int
	Stale      int64
}

// Service runs the three reconciliation stages in dependency order:
// asteroids, then close approaches, then threats. Each record commits in
// its own unit of work; a persistence failure aborts that entity's stage
// and reports zero processed without disturbing earlier stages.
type Service struct {
	asteroidFeed AsteroidFeed
	approachFeed ApproachFeed
	threatFeed   ThreatFeed
	storage      Storage
	publisher    EventPublisher
	opts         Options
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// New creates the reconciliation service. publisher may be nil when event
// publishing is disabled.
func New(
	asteroids AsteroidFeed,
	approaches ApproachFeed,
	threats ThreatFeed,
	storage Storage,
	publisher EventPublisher,
	opts Options,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Service {
	return &Service{
		asteroidFeed: asteroids,
		approachFeed: approaches,
		threatFeed:   threats,
		storage:      storage,
		publisher:    publisher,
		opts:         opts,
		logger:       logger,
		metrics:      metrics,
	}
}

// Run executes one full reconciliation. Stage failures are logged and
// reflected in the summary, never returned: recovery is re-running the job.
func (s *Service) Run(ctx context.Context) (*Summary, error) {
	s.metrics.SyncRunning.Set(1)
	defer s.metrics.SyncRunning.Set(0)

	summary := &Summary{}

	s.runStage(ctx, "asteroid", summary, s.syncAsteroids)
	s.runStage(ctx, "approach", summary, s.syncApproaches)
	s.runStage(ctx, "threat", summary, s.syncThreats)

	s.logger.Info("reconciliation complete",
		"asteroids", summary.Asteroids,
		"approaches", summary.Approaches,
		"threats", summary.Threats,
		"skipped", summary.Skipped,
		"stale_threats", summary.Stale,
	)
	return summary, ctx.Err()
}

type stageFn func(ctx context.Context, summary *Summary) (processed int, designations []string, err error)

func (s *Service) runStage(ctx context.Context, entity string, summary *Summary, fn stageFn) {
	start := time.Now()
	processed, designations, err := fn(ctx, summary)
	s.metrics.StageDuration.WithLabelValues(entity).Observe(time.Since(start).Seconds())

	if err != nil {
		s.logger.Error("stage failed", "entity", entity, "error", err)
		return
	}

	s.metrics.RecordsProcessed.WithLabelValues(entity).Add(float64(processed))
	s.logger.Info("stage complete", "entity", entity, "processed", processed, "duration", time.Since(start).String())

	if s.publisher != nil {
		event := domain.SyncEvent{
			Entity:       entity,
			Processed:    processed,
			Skipped:      summary.Skipped,
			Duration:     time.Since(start).String(),
			Designations: designations,
			CompletedAt:  domain.Now(),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Error("publish sync event", "entity", entity, "error", err)
		} else {
			s.metrics.EventsPublished.Inc()
		}
	}
}

func (s *Service) syncAsteroids(ctx context.Context, summary *Summary) (int, []string, error) {
	records, err := s.fetchAsteroids(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("fetch asteroids: %w", err)
	}

	processed := 0
	designations := make([]string, 0, len(records))
	for i := range records {
		rec := &records[i]
		domain.NormalizeAsteroid(rec)

		err := s.storage.WithUnit(ctx, func(u Unit) error {
			repo, err := u.Asteroids()
			if err != nil {
				return err
			}
			existing, err := repo.GetByDesignation(rec.Designation)
			if isNotFound(err) {
				return repo.Create(rec)
			}
			if err != nil {
				return err
			}
			applyAsteroid(existing, rec)
			return repo.Save(existing)
		})
		if err != nil {
			// Abort the stage: earlier commits stand, the count reports zero.
			summary.Asteroids = 0
			return 0, nil, fmt.Errorf("upsert asteroid %s: %w", rec.Designation, err)
		}
		processed++
		designations = append(designations, rec.Designation)
	}
	summary.Asteroids = processed
	return processed, designations, nil
}

func (s *Service) syncApproaches(ctx context.Context, summary *Summary) (int, []string, error) {
	records, err := s.fetchApproaches(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("fetch approaches: %w", err)
	}

	ids, err := s.designationIDs(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("load designation map: %w", err)
	}

	processed := 0
	var designations []string
	for i := range records {
		rec := &records[i]

		asteroidID, ok := ids[rec.Designation]
		if !ok {
			s.logger.Warn("dropping approach for unknown asteroid", "designation", rec.Designation)
			s.metrics.RecordsSkipped.WithLabelValues("approach", "orphan").Inc()
			summary.Skipped++
			continue
		}
		rec.AsteroidID = asteroidID

		err := s.storage.WithUnit(ctx, func(u Unit) error {
			repo, err := u.Approaches()
			if err != nil {
				return err
			}
			existing, err := repo.GetByNaturalKey(rec.AsteroidID, rec.ApproachTime)
			if isNotFound(err) {
				return repo.Create(rec)
			}
			if err != nil {
				return err
			}
			applyApproach(existing, rec)
			return repo.Save(existing)
		})
		if err != nil {
			summary.Approaches = 0
			return 0, nil, fmt.Errorf("upsert approach for %s: %w", rec.Designation, err)
		}
		processed++
		designations = append(designations, rec.Designation)
	}
	summary.Approaches = processed
	return processed, designations, nil
}

func (s *Service) syncThreats(ctx context.Context, summary *Summary) (int, []string, error) {
	records, err := s.fetchThreats(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("fetch threats: %w", err)
	}

	ids, err := s.designationIDs(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("load designation map: %w", err)
	}

	processed := 0
	var seen []string
	for i := range records {
		rec := &records[i]

		if rec.TSMax <= 0 {
			s.metrics.RecordsSkipped.WithLabelValues("threat", "filtered").Inc()
			summary.Skipped++
			continue
		}
		asteroidID, ok := ids[rec.Designation]
		if !ok {
			s.logger.Warn("dropping threat for unknown asteroid", "designation", rec.Designation)
			s.metrics.RecordsSkipped.WithLabelValues("threat", "orphan").Inc()
			summary.Skipped++
			continue
		}
		rec.AsteroidID = asteroidID
		rec.Derive()

		err := s.storage.WithUnit(ctx, func(u Unit) error {
			repo, err := u.Threats()
			if err != nil {
				return err
			}
			existing, err := repo.GetByDesignation(rec.Designation)
			if isNotFound(err) {
				return repo.Create(rec)
			}
			if err != nil {
				return err
			}
			applyThreat(existing, rec)
			return repo.Save(existing)
		})
		if err != nil {
			summary.Threats = 0
			return 0, nil, fmt.Errorf("upsert threat for %s: %w", rec.Designation, err)
		}
		processed++
		seen = append(seen, rec.Designation)
	}
	summary.Threats = processed

	// Objects gone from the risk table are flagged stale, never deleted.
	err = s.storage.WithUnit(ctx, func(u Unit) error {
		repo, err := u.Threats()
		if err != nil {
			return err
		}
		n, err := repo.MarkStaleExcept(seen)
		summary.Stale = n
		return err
	})
	if err != nil {
		s.logger.Error("mark stale threats", "error", err)
	}

	return processed, seen, nil
}

func (s *Service) designationIDs(ctx context.Context) (map[string]uint, error) {
	var ids map[string]uint
	err := s.storage.WithUnit(ctx, func(u Unit) error {
		repo, err := u.Asteroids()
		if err != nil {
			return err
		}
		ids, err = repo.DesignationIDs()
		return err
	})
	return ids, err
}

// Feed fetch wrappers recording request metrics.

func (s *Service) fetchAsteroids(ctx context.Context) ([]domain.Asteroid, error) {
	return observeFetch(s.metrics, "sbdb", func() ([]domain.Asteroid, error) {
		return s.asteroidFeed.FetchAsteroids(ctx, s.opts.AsteroidLimit)
	})
}

func (s *Service) fetchApproaches(ctx context.Context) ([]domain.CloseApproach, error) {
	return observeFetch(s.metrics, "cad", func() ([]domain.CloseApproach, error) {
		return s.approachFeed.FetchApproaches(ctx, domain.Now(), s.opts.ApproachDays, s.opts.MaxDistanceAU)
	})
}

func (s *Service) fetchThreats(ctx context.Context) ([]domain.ThreatAssessment, error) {
	return observeFetch(s.metrics, "sentry", func() ([]domain.ThreatAssessment, error) {
		return s.threatFeed.FetchRisks(ctx)
	})
}

func observeFetch[T any](m *observability.Metrics, feed string, fn func() ([]T, error)) ([]T, error) {
	start := time.Now()
	out, err := fn()
	m.FeedAPIDuration.WithLabelValues(feed).Observe(time.Since(start).Seconds())
	if err != nil {
		m.FeedRequests.WithLabelValues(feed, "error").Inc()
		return nil, err
	}
	m.FeedRequests.WithLabelValues(feed, "success").Inc()
	return out, nil
}

// Explicit per-field copies: every incoming attribute overwrites the
// persisted row, while identity and audit columns stay untouched.

func applyAsteroid(dst, src *domain.Asteroid) {
	dst.Name = src.Name
	dst.PerihelionAU = src.PerihelionAU
	dst.AphelionAU = src.AphelionAU
	dst.EarthMOIDAU = src.EarthMOIDAU
	dst.AbsoluteMagnitude = src.AbsoluteMagnitude
	dst.Albedo = src.Albedo
	dst.EstimatedDiameterKm = src.EstimatedDiameterKm
	dst.AccurateDiameter = src.AccurateDiameter
	dst.DiameterSource = src.DiameterSource
	dst.OrbitClass = src.OrbitClass
}

func applyApproach(dst, src *domain.CloseApproach) {
	dst.Designation = src.Designation
	dst.DistanceAU = src.DistanceAU
	dst.DistanceKm = src.DistanceKm
	dst.VelocityKmS = src.VelocityKmS
}

func applyThreat(dst, src *domain.ThreatAssessment) {
	dst.AsteroidID = src.AsteroidID
	dst.Fullname = src.Fullname
	dst.IP = src.IP
	dst.TSMax = src.TSMax
	dst.PSMax = src.PSMax
	dst.DiameterKm = src.DiameterKm
	dst.VInfKmS = src.VInfKmS
	dst.AbsoluteMagnitude = src.AbsoluteMagnitude
	dst.NImp = src.NImp
	dst.ImpactYears = src.ImpactYears
	dst.LastObs = src.LastObs
	dst.ThreatLevel = src.ThreatLevel
	dst.TorinoText = src.TorinoText
	dst.ProbabilityText = src.ProbabilityText
	dst.EnergyMegatons = src.EnergyMegatons
	dst.ImpactCategory = src.ImpactCategory
	dst.LastSeenAt = src.LastSeenAt
	dst.Stale = src.Stale
}
