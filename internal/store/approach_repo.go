package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orbitwatch/neo-data-service/internal/domain"
)

// ApproachRepo queries and persists close approaches on one session.
type ApproachRepo struct {
	db *gorm.DB
}

func (r *ApproachRepo) Create(a *domain.CloseApproach) error {
	return r.db.Create(a).Error
}

// Save writes every attribute of an existing row.
func (r *ApproachRepo) Save(a *domain.CloseApproach) error {
	return r.db.Save(a).Error
}

// GetByNaturalKey fetches the approach row for one (asteroid, time) event.
func (r *ApproachRepo) GetByNaturalKey(asteroidID uint, at time.Time) (*domain.CloseApproach, error) {
	var a domain.CloseApproach
	err := r.db.Where("asteroid_id = ? AND approach_time = ?", asteroidID, at).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("approach for asteroid %d at %s: %w", asteroidID, at.Format(time.RFC3339), ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Upcoming returns approaches at or after now, soonest first.
func (r *ApproachRepo) Upcoming(now time.Time, skip, limit int) ([]domain.CloseApproach, error) {
	var out []domain.CloseApproach
	err := paginate(
		r.db.Where("approach_time >= ?", now).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "approach_time"}}),
		skip, limit,
	).Find(&out).Error
	return out, err
}

// Closest returns approaches ranked by miss distance, nearest first.
func (r *ApproachRepo) Closest(skip, limit int) ([]domain.CloseApproach, error) {
	var out []domain.CloseApproach
	err := paginate(
		r.db.Order(clause.OrderByColumn{Column: clause.Column{Name: "distance_au"}}),
		skip, limit,
	).Find(&out).Error
	return out, err
}

// Fastest returns approaches ranked by relative velocity, fastest first.
func (r *ApproachRepo) Fastest(skip, limit int) ([]domain.CloseApproach, error) {
	var out []domain.CloseApproach
	err := paginate(
		r.db.Order(clause.OrderByColumn{Column: clause.Column{Name: "velocity_km_s"}, Desc: true}),
		skip, limit,
	).Find(&out).Error
	return out, err
}

// InPeriod returns approaches inside [from, to], optionally bounded by a
// maximum distance in AU, ordered by time.
func (r *ApproachRepo) InPeriod(from, to time.Time, maxDistanceAU *float64, skip, limit int) ([]domain.CloseApproach, error) {
	q := r.db.Where("approach_time BETWEEN ? AND ?", from, to)
	if maxDistanceAU != nil {
		q = q.Where("distance_au <= ?", *maxDistanceAU)
	}
	var out []domain.CloseApproach
	err := paginate(
		q.Order(clause.OrderByColumn{Column: clause.Column{Name: "approach_time"}}),
		skip, limit,
	).Find(&out).Error
	return out, err
}

// ByAsteroid returns all approaches of one asteroid, ordered by time.
func (r *ApproachRepo) ByAsteroid(asteroidID uint, skip, limit int) ([]domain.CloseApproach, error) {
	var out []domain.CloseApproach
	err := paginate(
		r.db.Where("asteroid_id = ?", asteroidID).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "approach_time"}}),
		skip, limit,
	).Find(&out).Error
	return out, err
}

// ApproachStats is the aggregate payload for the approach statistics endpoint.
type ApproachStats struct {
	Total              int64   `json:"total"`
	Future             int64   `json:"future"`
	AverageDistanceKm  float64 `json:"average_distance_km"`
	AverageVelocityKmS float64 `json:"average_velocity_km_s"`
	MinDistanceKm      float64 `json:"min_distance_km"`
	MaxDistanceKm      float64 `json:"max_distance_km"`
	MinVelocityKmS     float64 `json:"min_velocity_km_s"`
	MaxVelocityKmS     float64 `json:"max_velocity_km_s"`
}

// Statistics aggregates over the whole close-approach table; now splits
// the future count.
func (r *ApproachRepo) Statistics(now time.Time) (*ApproachStats, error) {
	var agg struct {
		Total   int64
		Future  int64
		AvgDist float64
		AvgVel  float64
		MinDist float64
		MaxDist float64
		MinVel  float64
		MaxVel  float64
	}
	err := r.db.Model(&domain.CloseApproach{}).
		Select(`COUNT(*) AS total,
			COUNT(*) FILTER (WHERE approach_time >= ?) AS future,
			COALESCE(AVG(distance_km), 0) AS avg_dist,
			COALESCE(AVG(velocity_km_s), 0) AS avg_vel,
			COALESCE(MIN(distance_km), 0) AS min_dist,
			COALESCE(MAX(distance_km), 0) AS max_dist,
			COALESCE(MIN(velocity_km_s), 0) AS min_vel,
			COALESCE(MAX(velocity_km_s), 0) AS max_vel`, now).
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}
	return &ApproachStats{
		Total:              agg.Total,
		Future:             agg.Future,
		AverageDistanceKm:  agg.AvgDist,
		AverageVelocityKmS: agg.AvgVel,
		MinDistanceKm:      agg.MinDist,
		MaxDistanceKm:      agg.MaxDist,
		MinVelocityKmS:     agg.MinVel,
		MaxVelocityKmS:     agg.MaxVel,
	}, nil
}
