package aci

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredict_BelowMinSamplesIsPassThrough(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	for i := 0; i < 5; i++ {
		tr.Update(100.0)
	}
	interval := tr.Predict(500.0)
	assert.False(t, interval.IsOutlier)
	assert.Equal(t, 0.0, interval.Coverage)
}

func TestUpdate_AlphaStaysClamped(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	for i := 0; i < 100; i++ {
		tr.Update(float64(i % 5))
	}
	alpha := tr.Alpha()
	assert.GreaterOrEqual(t, alpha, 0.001)
	assert.LessOrEqual(t, alpha, 0.5)
}

func TestUpdate_GammaZeroIsFixedPoint(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gamma = 0
	tr := NewTracker(cfg)
	initial := tr.Alpha()
	for i := 0; i < 50; i++ {
		tr.Update(float64(i))
	}
	assert.Equal(t, initial, tr.Alpha())
}

func TestUpdate_HitsNeverExceedTotal(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	for i := 0; i < 200; i++ {
		tr.Update(float64(i % 7))
	}
	assert.LessOrEqual(t, tr.Hits(), tr.Total())
}

func TestPredict_OutlierDetection(t *testing.T) {
	tr := NewTracker(DefaultConfig())
	for i := 0; i < 50; i++ {
		tr.Update(100.0)
	}
	interval := tr.Predict(100.0)
	assert.False(t, interval.IsOutlier)

	far := tr.Predict(100000.0)
	assert.True(t, far.IsOutlier)
}

func TestPredict_FloorClipsLower(t *testing.T) {
	floor := 0.0
	cfg := DefaultConfig()
	cfg.Floor = &floor
	tr := NewTracker(cfg)
	for i := 0; i < 50; i++ {
		tr.Update(1.0)
	}
	interval := tr.Predict(1.0)
	assert.GreaterOrEqual(t, interval.Lower, 0.0)
}
