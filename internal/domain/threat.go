package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

// Sentry feed defaults for objects missing physical parameters.
const (
	SentryDefaultDiameterKm = 0.05
	SentryDefaultVInfKmS    = 20.0
	SentryDefaultMagnitude  = 22.0
)

// ImpactYears is a sorted, deduplicated list of candidate impact years,
// persisted as a JSON array column.
type ImpactYears []int

// Value implements driver.Valuer.
func (y ImpactYears) Value() (driver.Value, error) {
	if y == nil {
		y = ImpactYears{}
	}
	b, err := json.Marshal(y)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (y *ImpactYears) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*y = nil
		return nil
	case []byte:
		return json.Unmarshal(v, y)
	case string:
		return json.Unmarshal([]byte(v), y)
	default:
		return fmt.Errorf("cannot scan %T into ImpactYears", src)
	}
}

// ThreatAssessment is the Sentry impact-risk record for one asteroid, at
// most one row per object. Rows that drop out of the upstream risk table
// are marked stale rather than deleted.
type ThreatAssessment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	AsteroidID  uint   `gorm:"not null;uniqueIndex" json:"asteroid_id"`
	Designation string `gorm:"uniqueIndex;size:64;not null" json:"designation"`
	Fullname    string `gorm:"size:128" json:"fullname"`

	IP    float64 `gorm:"column:ip" json:"impact_probability"`
	TSMax int     `gorm:"column:ts_max" json:"torino_scale"`
	PSMax float64 `gorm:"column:ps_max" json:"palermo_scale"`

	DiameterKm        float64 `json:"diameter_km"`
	VInfKmS           float64 `gorm:"column:v_inf_km_s" json:"velocity_km_s"`
	AbsoluteMagnitude float64 `json:"absolute_magnitude"`

	NImp        int         `gorm:"column:n_imp" json:"n_imp"`
	ImpactYears ImpactYears `gorm:"type:jsonb" json:"impact_years"`
	LastObs     string      `gorm:"size:20" json:"last_obs"`

	// Derived presentation fields, recomputed on every sync.
	ThreatLevel     string  `gorm:"size:64" json:"threat_level"`
	TorinoText      string  `json:"torino_scale_text"`
	ProbabilityText string  `json:"impact_probability_text"`
	EnergyMegatons  float64 `json:"energy_megatons"`
	ImpactCategory  string  `gorm:"size:20" json:"impact_category"`

	LastSeenAt time.Time `json:"last_seen_at"`
	Stale      bool      `gorm:"index" json:"stale"`
}

// Derive fills the computed fields from the raw Sentry values and stamps
// LastSeenAt from the package clock.
func (t *ThreatAssessment) Derive() {
	t.EnergyMegatons = ImpactEnergyMegatons(t.DiameterKm, t.VInfKmS)
	t.ImpactCategory = ImpactCategory(t.EnergyMegatons)
	t.ThreatLevel = ThreatLevel(t.TSMax, t.PSMax)
	t.TorinoText = TorinoDescription(t.TSMax)
	t.ProbabilityText = FormatProbability(t.IP)
	t.LastSeenAt = Now()
	t.Stale = false
}

// ImpactEnergyMegatons computes the kinetic impact energy in megatons of
// TNT for a stony asteroid (density 2000 kg/m3), rounded to two decimals.
// Non-positive diameter yields zero.
func ImpactEnergyMegatons(diameterKm, velocityKmS float64) float64 {
	if diameterKm <= 0 {
		return 0
	}
	radiusM := diameterKm * 1000 / 2
	volumeM3 := (4.0 / 3.0) * math.Pi * math.Pow(radiusM, 3)
	massKg := volumeM3 * 2000
	energyJoules := 0.5 * massKg * math.Pow(velocityKmS*1000, 2)
	return math.Round(energyJoules/4.184e15*100) / 100
}

// ImpactCategory classifies an impact by energy: below 1 Mt local, below
// 100 Mt regional, otherwise global.
func ImpactCategory(energyMegatons float64) string {
	switch {
	case energyMegatons < 1:
		return "local"
	case energyMegatons < 100:
		return "regional"
	default:
		return "global"
	}
}

// ThreatLevel maps the Torino and Palermo scores to a summary label.
func ThreatLevel(tsMax int, psMax float64) string {
	switch {
	case tsMax <= 0:
		if psMax > -2 {
			return "very low (monitoring required)"
		}
		return "none (safe)"
	case tsMax <= 4:
		if psMax > 0 {
			return "low (merits observation)"
		}
		return "low"
	case tsMax == 5:
		return "medium (merits astronomers' attention)"
	case tsMax == 6:
		return "elevated (serious threat)"
	case tsMax == 7:
		return "high (very serious threat)"
	default:
		return "critical (imminent threat)"
	}
}

var torinoDescriptions = map[int]string{
	0:  "0 - no hazard (green)",
	1:  "1 - normal (green)",
	2:  "2 - merits attention (yellow)",
	3:  "3 - merits attention (orange)",
	4:  "4 - merits attention (orange)",
	5:  "5 - serious threat (red)",
	6:  "6 - serious threat (red)",
	7:  "7 - serious threat (red)",
	8:  "8 - certain collision (red)",
	9:  "9 - certain collision (red)",
	10: "10 - certain collision (red)",
}

// TorinoDescription returns the standard description for a Torino score.
func TorinoDescription(ts int) string {
	if s, ok := torinoDescriptions[ts]; ok {
		return s
	}
	return fmt.Sprintf("%d - unknown value", ts)
}

// FormatProbability renders an impact probability as "x% (1 in N)" text,
// with precision growing as the probability shrinks and scientific
// notation below one in a million.
func FormatProbability(p float64) string {
	switch {
	case p <= 0:
		return "no impact probability"
	case p >= 0.01:
		return fmt.Sprintf("%.2f%% (1 in %d)", p*100, int(1/p))
	case p >= 1e-4:
		return fmt.Sprintf("%.4f%% (1 in %d)", p*100, int(1/p))
	case p >= 1e-6:
		return fmt.Sprintf("%.6f%% (1 in %d)", p*100, int(1/p))
	default:
		return fmt.Sprintf("%.2e (extremely small probability)", p)
	}
}

// ImpactYearsFromDates extracts the deduplicated, ascending year prefixes
// of Sentry scenario dates like "2029-04-13.29". Unparsable dates are ignored.
func ImpactYearsFromDates(dates []string) ImpactYears {
	seen := make(map[int]struct{}, len(dates))
	for _, d := range dates {
		if len(d) < 4 {
			continue
		}
		year, err := strconv.Atoi(d[:4])
		if err != nil {
			continue
		}
		seen[year] = struct{}{}
	}
	years := make(ImpactYears, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
