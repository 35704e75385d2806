package domain

import "time"

// Diameter provenance values for Asteroid.DiameterSource.
const (
	DiameterMeasured   = "measured"
	DiameterComputed   = "computed"
	DiameterCalculated = "calculated"
)

// Defaults applied when a feed omits or mangles a physical parameter.
const (
	DefaultDiameterKm        = 0.05
	DefaultAbsoluteMagnitude = 18.0
)

// Asteroid is a catalogued near-Earth asteroid. The designation is the
// natural key assigned by the source catalog; reconciliation matches on it
// and never deletes rows.
type Asteroid struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Designation       string  `gorm:"uniqueIndex;size:64;not null" json:"designation"`
	Name              string  `gorm:"size:128" json:"name"`
	PerihelionAU      float64 `json:"perihelion_au"`
	AphelionAU        float64 `json:"aphelion_au"`
	EarthMOIDAU       float64 `gorm:"column:earth_moid_au;index" json:"earth_moid_au"`
	AbsoluteMagnitude float64 `json:"absolute_magnitude"`
	Albedo            float64 `json:"albedo"`

	EstimatedDiameterKm float64 `json:"estimated_diameter_km"`
	AccurateDiameter    bool    `json:"accurate_diameter"`
	DiameterSource      string  `gorm:"size:16" json:"diameter_source"`

	OrbitClass string `gorm:"size:32;index" json:"orbit_class"`
}

// NormalizeAsteroid enforces the entity invariants in place: albedo always
// in (0, 1] with out-of-range values replaced by the assumed default, and a
// positive diameter with non-positive values replaced by the default.
func NormalizeAsteroid(a *Asteroid) {
	if a.Albedo <= 0 || a.Albedo > 1 {
		a.Albedo = AssumedAlbedo
	}
	if a.EstimatedDiameterKm <= 0 {
		a.EstimatedDiameterKm = DefaultDiameterKm
	}
	switch a.DiameterSource {
	case DiameterMeasured, DiameterComputed, DiameterCalculated:
	default:
		a.DiameterSource = DiameterCalculated
	}
}
