package domain

import "time"

// KmPerAU converts astronomical units to kilometers.
const KmPerAU = 149597870.7

// CloseApproach is one Earth close-approach event for an asteroid. The
// natural key is (AsteroidID, ApproachTime): an asteroid with several
// approaches keeps one row per event.
type CloseApproach struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	AsteroidID  uint   `gorm:"not null;uniqueIndex:idx_approach_natural;index" json:"asteroid_id"`
	Designation string `gorm:"size:64;index" json:"designation"`

	ApproachTime time.Time `gorm:"not null;uniqueIndex:idx_approach_natural;index" json:"approach_time"`
	DistanceAU   float64   `json:"distance_au"`
	DistanceKm   float64   `json:"distance_km"`
	VelocityKmS  float64   `gorm:"column:velocity_km_s" json:"velocity_km_s"`
}

// DistanceKmFromAU derives kilometers from an AU distance.
func DistanceKmFromAU(au float64) float64 {
	return au * KmPerAU
}
