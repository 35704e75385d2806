package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/orbitwatch/neo-data-service/internal/domain"
)

// Pagination bounds applied to every list query.
const (
	defaultLimit = 100
	maxLimit     = 1000
)

func paginate(db *gorm.DB, skip, limit int) *gorm.DB {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return db.Offset(skip).Limit(limit)
}

// AsteroidRepo queries and persists asteroids on one session.
type AsteroidRepo struct {
	db *gorm.DB
}

func (r *AsteroidRepo) Create(a *domain.Asteroid) error {
	return r.db.Create(a).Error
}

// Save writes every attribute of an existing row.
func (r *AsteroidRepo) Save(a *domain.Asteroid) error {
	return r.db.Save(a).Error
}

// GetByDesignation fetches one asteroid by its natural key.
func (r *AsteroidRepo) GetByDesignation(designation string) (*domain.Asteroid, error) {
	var a domain.Asteroid
	err := r.db.Where("designation = ?", designation).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("asteroid %q: %w", designation, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByID fetches one asteroid by internal id.
func (r *AsteroidRepo) GetByID(id uint) (*domain.Asteroid, error) {
	var a domain.Asteroid
	err := r.db.First(&a, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("asteroid id %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// List returns asteroids ordered by designation with skip/limit pagination.
func (r *AsteroidRepo) List(skip, limit int) ([]domain.Asteroid, error) {
	var out []domain.Asteroid
	err := paginate(r.db.Order("designation"), skip, limit).Find(&out).Error
	return out, err
}

// NearEarth returns asteroids whose Earth MOID is at most maxMOID AU,
// closest first.
func (r *AsteroidRepo) NearEarth(maxMOID float64, skip, limit int) ([]domain.Asteroid, error) {
	var out []domain.Asteroid
	err := paginate(
		r.db.Where("earth_moid_au <= ?", maxMOID).Order("earth_moid_au"),
		skip, limit,
	).Find(&out).Error
	return out, err
}

// ByOrbitClass returns asteroids of one orbit class.
func (r *AsteroidRepo) ByOrbitClass(class string, skip, limit int) ([]domain.Asteroid, error) {
	var out []domain.Asteroid
	err := paginate(
		r.db.Where("orbit_class = ?", class).Order("designation"),
		skip, limit,
	).Find(&out).Error
	return out, err
}

// AccurateDiameter returns asteroids with a directly measured diameter.
func (r *AsteroidRepo) AccurateDiameter(skip, limit int) ([]domain.Asteroid, error) {
	var out []domain.Asteroid
	err := paginate(
		r.db.Where("accurate_diameter = ?", true).Order("designation"),
		skip, limit,
	).Find(&out).Error
	return out, err
}

// DesignationIDs returns the designation → internal id map for the whole
// persisted asteroid set, used to resolve feed records.
func (r *AsteroidRepo) DesignationIDs() (map[string]uint, error) {
	var rows []struct {
		ID          uint
		Designation string
	}
	if err := r.db.Model(&domain.Asteroid{}).Select("id", "designation").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]uint, len(rows))
	for _, row := range rows {
		out[row.Designation] = row.ID
	}
	return out, nil
}

// Count returns the total number of persisted asteroids.
func (r *AsteroidRepo) Count() (int64, error) {
	var n int64
	err := r.db.Model(&domain.Asteroid{}).Count(&n).Error
	return n, err
}

// AsteroidStats is the aggregate payload for the asteroid statistics endpoint.
type AsteroidStats struct {
	Total                 int64            `json:"total"`
	AverageDiameterKm     float64          `json:"average_diameter_km"`
	MinEarthMOIDAU        float64          `json:"min_earth_moid_au"`
	AccurateDiameterCount int64            `json:"accurate_diameter_count"`
	ByDiameterSource      map[string]int64 `json:"by_diameter_source"`
}

// Statistics aggregates over the whole asteroid table.
func (r *AsteroidRepo) Statistics() (*AsteroidStats, error) {
	var agg struct {
		Total    int64
		AvgDiam  float64
		MinMOID  float64
		Accurate int64
	}
	err := r.db.Model(&domain.Asteroid{}).
		Select(
			"COUNT(*) AS total",
			"COALESCE(AVG(estimated_diameter_km), 0) AS avg_diam",
			"COALESCE(MIN(earth_moid_au), 0) AS min_moid",
			"COUNT(*) FILTER (WHERE accurate_diameter) AS accurate",
		).
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}

	var sources []struct {
		DiameterSource string
		N              int64
	}
	err = r.db.Model(&domain.Asteroid{}).
		Select("diameter_source", "COUNT(*) AS n").
		Group("diameter_source").
		Find(&sources).Error
	if err != nil {
		return nil, err
	}

	bySource := make(map[string]int64, len(sources))
	for _, s := range sources {
		bySource[s.DiameterSource] = s.N
	}

	return &AsteroidStats{
		Total:                 agg.Total,
		AverageDiameterKm:     agg.AvgDiam,
		MinEarthMOIDAU:        agg.MinMOID,
		AccurateDiameterCount: agg.Accurate,
		ByDiameterSource:      bySource,
	}, nil
}
