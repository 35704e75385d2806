package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateDiameter_Formula(t *testing.T) {
	cases := []struct {
		name   string
		albedo float64
		h      float64
	}{
		{"bright small object", 0.25, 22.0},
		{"assumed albedo", 0.15, 20.0},
		{"dark object", 0.05, 17.5},
		{"perfect reflector", 1.0, 15.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := EstimateDiameter(tc.albedo, tc.h)
			require.NoError(t, err)
			want := 1329 / math.Sqrt(tc.albedo) * math.Pow(10, -0.2*tc.h)
			assert.InEpsilon(t, want, d, 1e-12)
		})
	}
}

func TestEstimateDiameter_KnownValue(t *testing.T) {
	// 2023 DW-like object: H=20, assumed albedo.
	d, err := EstimateDiameter(0.15, 20.0)
	require.NoError(t, err)
	assert.InDelta(t, 0.1329, d, 0.001)
}

func TestEstimateDiameter_InvalidAlbedo(t *testing.T) {
	for _, albedo := range []float64{0, -0.1, -1} {
		_, err := EstimateDiameter(albedo, 20.0)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidAlbedo)
	}
}

func TestEstimateDiameter_ClampsAlbedoAboveOne(t *testing.T) {
	clamped, err := EstimateDiameter(1.5, 18.0)
	require.NoError(t, err)
	atOne, err := EstimateDiameter(1.0, 18.0)
	require.NoError(t, err)
	assert.Equal(t, atOne, clamped)
}

func TestEstimateDiameter_RejectsImplausibleResults(t *testing.T) {
	// Extreme magnitudes push the result outside [1e-10, 1e10] km.
	_, err := EstimateDiameter(0.15, -60)
	assert.Error(t, err)

	_, err = EstimateDiameter(0.15, 80)
	assert.Error(t, err)
}

func TestEstimateDiameter_Monotonicity(t *testing.T) {
	darker, err := EstimateDiameter(0.05, 20.0)
	require.NoError(t, err)
	brighter, err := EstimateDiameter(0.25, 20.0)
	require.NoError(t, err)
	assert.Greater(t, darker, brighter, "lower albedo implies larger diameter at fixed H")

	bright, err := EstimateDiameter(0.15, 17.0)
	require.NoError(t, err)
	faint, err := EstimateDiameter(0.15, 23.0)
	require.NoError(t, err)
	assert.Greater(t, bright, faint, "lower H implies larger diameter at fixed albedo")
}

func TestEstimateDiameterAssumed_MatchesGeneralFormula(t *testing.T) {
	for _, h := range []float64{14, 18, 20, 22, 26} {
		assumed, err := EstimateDiameterAssumed(h)
		require.NoError(t, err)
		general, err := EstimateDiameter(0.15, h)
		require.NoError(t, err)
		assert.Equal(t, general, assumed)
	}
}
