package domain

import (
	"errors"
	"fmt"
	"math"
)

// AssumedAlbedo is the standard geometric albedo assumed for objects with
// unknown reflectivity.
const AssumedAlbedo = 0.15

// ErrInvalidAlbedo is returned for non-positive albedo inputs.
var ErrInvalidAlbedo = errors.New("albedo must be positive")

// EstimateDiameter computes an asteroid diameter in kilometers from its
// geometric albedo and absolute magnitude H:
//
//	D = 1329 / sqrt(albedo) * 10^(-0.2*H)
//
// Albedo above 1 is physically impossible and clamped to 1. The result is
// validated against pathological inputs: non-finite, non-positive, or
// outside [1e-10, 1e10] km is an error.
func EstimateDiameter(albedo, h float64) (float64, error) {
	if albedo <= 0 {
		return 0, fmt.Errorf("%w: got %g", ErrInvalidAlbedo, albedo)
	}
	if albedo > 1 {
		albedo = 1
	}

	d := 1329 / math.Sqrt(albedo) * math.Pow(10, -0.2*h)

	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, fmt.Errorf("diameter estimate is not finite (albedo=%g, h=%g)", albedo, h)
	}
	if d <= 0 || d > 1e10 || d < 1e-10 {
		return 0, fmt.Errorf("diameter estimate %g km out of plausible range (albedo=%g, h=%g)", d, albedo, h)
	}
	return d, nil
}

// EstimateDiameterAssumed estimates a diameter using the assumed albedo of
// 0.15 for objects with no measured reflectivity.
func EstimateDiameterAssumed(h float64) (float64, error) {
	return EstimateDiameter(AssumedAlbedo, h)
}
