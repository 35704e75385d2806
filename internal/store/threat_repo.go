package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orbitwatch/neo-data-service/internal/domain"
)

// ThreatRepo queries and persists threat assessments on one session.
type ThreatRepo struct {
	db *gorm.DB
}

func (r *ThreatRepo) Create(t *domain.ThreatAssessment) error {
	return r.db.Create(t).Error
}

// Save writes every attribute of an existing row.
func (r *ThreatRepo) Save(t *domain.ThreatAssessment) error {
	return r.db.Save(t).Error
}

// GetByDesignation fetches the assessment for one asteroid by natural key.
func (r *ThreatRepo) GetByDesignation(designation string) (*domain.ThreatAssessment, error) {
	var t domain.ThreatAssessment
	err := r.db.Where("designation = ?", designation).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("threat assessment %q: %w", designation, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByAsteroidID fetches the assessment owned by one asteroid.
func (r *ThreatRepo) GetByAsteroidID(asteroidID uint) (*domain.ThreatAssessment, error) {
	var t domain.ThreatAssessment
	err := r.db.Where("asteroid_id = ?", asteroidID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("threat assessment for asteroid %d: %w", asteroidID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Current returns fresh assessments with a Torino score of at least
// minTorino, most hazardous first.
func (r *ThreatRepo) Current(minTorino int, skip, limit int) ([]domain.ThreatAssessment, error) {
	var out []domain.ThreatAssessment
	err := paginate(
		r.db.Where("stale = ? AND ts_max >= ?", false, minTorino).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "ps_max"}, Desc: true}),
		skip, limit,
	).Find(&out).Error
	return out, err
}

// HighRisk returns assessments with ts_max >= 5.
func (r *ThreatRepo) HighRisk(skip, limit int) ([]domain.ThreatAssessment, error) {
	var out []domain.ThreatAssessment
	err := paginate(
		r.db.Where("ts_max >= ?", 5).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "ts_max"}, Desc: true}),
		skip, limit,
	).Find(&out).Error
	return out, err
}

// ByProbability returns assessments whose impact probability falls in
// [min, max], most probable first.
func (r *ThreatRepo) ByProbability(min, max float64, skip, limit int) ([]domain.ThreatAssessment, error) {
	var out []domain.ThreatAssessment
	err := paginate(
		r.db.Where("ip BETWEEN ? AND ?", min, max).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "ip"}, Desc: true}),
		skip, limit,
	).Find(&out).Error
	return out, err
}

// ByEnergy returns assessments whose impact energy falls in [min, max]
// megatons, most energetic first.
func (r *ThreatRepo) ByEnergy(min, max float64, skip, limit int) ([]domain.ThreatAssessment, error) {
	var out []domain.ThreatAssessment
	err := paginate(
		r.db.Where("energy_megatons BETWEEN ? AND ?", min, max).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "energy_megatons"}, Desc: true}),
		skip, limit,
	).Find(&out).Error
	return out, err
}

// ByCategory returns assessments with the given impact category
// (local, regional, global), most energetic first.
func (r *ThreatRepo) ByCategory(category string, skip, limit int) ([]domain.ThreatAssessment, error) {
	var out []domain.ThreatAssessment
	err := paginate(
		r.db.Where("impact_category = ?", category).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "energy_megatons"}, Desc: true}),
		skip, limit,
	).Find(&out).Error
	return out, err
}

// MarkStaleExcept flags every fresh assessment whose designation is not in
// seen as stale, returning the number of rows flagged. Rows are never
// deleted; staleness records that the object left the upstream risk table.
func (r *ThreatRepo) MarkStaleExcept(seen []string) (int64, error) {
	q := r.db.Model(&domain.ThreatAssessment{}).Where("stale = ?", false)
	if len(seen) > 0 {
		q = q.Where("designation NOT IN ?", seen)
	}
	res := q.Update("stale", true)
	return res.RowsAffected, res.Error
}

// ThreatStats is the aggregate payload for the threat statistics endpoint.
type ThreatStats struct {
	Total            int64            `json:"total"`
	MaxProbability   float64          `json:"max_probability"`
	TotalEnergyMt    float64          `json:"total_energy_megatons"`
	ByTorino         map[int]int64    `json:"by_torino_scale"`
	TorinoPercent    map[int]float64  `json:"torino_scale_percent"`
	ByImpactCategory map[string]int64 `json:"by_impact_category"`
}

// Statistics aggregates over the whole threat-assessment table.
func (r *ThreatRepo) Statistics() (*ThreatStats, error) {
	var agg struct {
		Total       int64
		MaxIP       float64
		TotalEnergy float64
	}
	err := r.db.Model(&domain.ThreatAssessment{}).
		Select(
			"COUNT(*) AS total",
			"COALESCE(MAX(ip), 0) AS max_ip",
			"COALESCE(SUM(energy_megatons), 0) AS total_energy",
		).
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}

	var torino []struct {
		TsMax int
		N     int64
	}
	err = r.db.Model(&domain.ThreatAssessment{}).
		Select("ts_max", "COUNT(*) AS n").
		Group("ts_max").
		Find(&torino).Error
	if err != nil {
		return nil, err
	}

	var categories []struct {
		ImpactCategory string
		N              int64
	}
	err = r.db.Model(&domain.ThreatAssessment{}).
		Select("impact_category", "COUNT(*) AS n").
		Group("impact_category").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}

	stats := &ThreatStats{
		Total:            agg.Total,
		MaxProbability:   agg.MaxIP,
		TotalEnergyMt:    agg.TotalEnergy,
		ByTorino:         make(map[int]int64, len(torino)),
		TorinoPercent:    make(map[int]float64, len(torino)),
		ByImpactCategory: make(map[string]int64, len(categories)),
	}
	for _, t := range torino {
		stats.ByTorino[t.TsMax] = t.N
		if agg.Total > 0 {
			stats.TorinoPercent[t.TsMax] = float64(t.N) / float64(agg.Total) * 100
		}
	}
	for _, c := range categories {
		stats.ByImpactCategory[c.ImpactCategory] = c.N
	}
	return stats, nil
}
