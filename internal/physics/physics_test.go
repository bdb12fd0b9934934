package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMSE_AxialOnlyWhenROPNonPositive(t *testing.T) {
	v := MSE(25, 120, 18, 0, 8.5)
	expected := (4 * 25) / (math.Pi * 8.5 * 8.5)
	assert.InDelta(t, expected, v, 1e-6)
}

func TestMSE_FiniteGuard(t *testing.T) {
	v := MSE(math.NaN(), 120, 18, 50, 8.5)
	assert.Equal(t, 0.0, v)
}

func TestMSE_ZeroDiameterIsZero(t *testing.T) {
	assert.Equal(t, 0.0, MSE(25, 120, 18, 50, 0))
}

func TestDExponent_ZeroOnInvalidInputs(t *testing.T) {
	assert.Equal(t, 0.0, DExponent(0, 120, 25, 8.5))
	assert.Equal(t, 0.0, DExponent(50, 0, 25, 8.5))
	assert.Equal(t, 0.0, DExponent(50, 120, 0, 8.5))
}

func TestFlowBalance_ConversionFactor(t *testing.T) {
	v := FlowBalance(500, 515)
	require.InDelta(t, 15*(60.0/42.0), v, 1e-9)
}

func TestECDMargin(t *testing.T) {
	assert.InDelta(t, 1.6, ECDMargin(14.0, 12.4), 1e-9)
}

func TestMSEEfficiency_ClampedToHundred(t *testing.T) {
	assert.Equal(t, 100.0, MSEEfficiency(1000, 999999))
}

func TestMSEEfficiency_FloorsDenominatorAtOne(t *testing.T) {
	v := MSEEfficiency(0, 50)
	assert.Equal(t, 100.0, v) // 100*50/max(0,1) clamped to 100
}

func TestDetectFounder_RisingWOBFlatROP(t *testing.T) {
	wob := []float64{20, 22, 24, 26, 28, 30}
	rop := []float64{50, 50, 49, 49, 48, 48}
	detected, severity := DetectFounder(wob, rop, DefaultFounderConfig())
	assert.True(t, detected)
	assert.Greater(t, severity, 0.0)
}

func TestDetectFounder_StableWOBNoFounder(t *testing.T) {
	wob := []float64{25, 25, 25, 25, 25}
	rop := []float64{50, 51, 49, 50, 50}
	detected, _ := DetectFounder(wob, rop, DefaultFounderConfig())
	assert.False(t, detected)
}

func TestDetectFounder_ShortSeriesNeverFires(t *testing.T) {
	detected, severity := DetectFounder([]float64{20, 30}, []float64{50, 48}, DefaultFounderConfig())
	assert.False(t, detected)
	assert.Equal(t, 0.0, severity)
}
