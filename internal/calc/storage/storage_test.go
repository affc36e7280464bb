package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/technosupport/ts-sizer/internal/calc"
)

const fullHDAvgKbps = 0.38294286834709007

func TestRecordingFactor(t *testing.T) {
	f, err := RecordingFactor(calc.RecordContinuous, 0)
	assert.NoError(t, err)
	assert.Equal(t, 1.0, f)

	f, err = RecordingFactor(calc.RecordMotion, 0)
	assert.NoError(t, err)
	assert.Equal(t, 0.3, f)

	f, err = RecordingFactor(calc.RecordObject, 0)
	assert.NoError(t, err)
	assert.Equal(t, 0.2, f)

	f, err = RecordingFactor(calc.RecordScheduled, 6)
	assert.NoError(t, err)
	assert.Equal(t, 0.25, f)

	_, err = RecordingFactor(calc.RecordScheduled, 0)
	assert.Error(t, err)
	_, err = RecordingFactor(calc.RecordScheduled, 25)
	assert.Error(t, err)
	_, err = RecordingFactor("timelapse", 0)
	assert.Error(t, err)
}

func TestDailyGB_Pinned(t *testing.T) {
	daily, err := DailyGB(fullHDAvgKbps, 1.0)
	assert.NoError(t, err)
	assert.InDelta(t, 0.003944190004490445, daily, 1e-15)

	// Motion recording writes 30% of continuous.
	motion, err := DailyGB(fullHDAvgKbps, 0.3)
	assert.NoError(t, err)
	assert.InDelta(t, 0.0011832570013471334, motion, 1e-15)
}

func TestTotalGB_PinnedAndLinear(t *testing.T) {
	// 100 cameras, 30 days.
	total, err := TotalGB(fullHDAvgKbps, 1.0, 30, 100)
	assert.NoError(t, err)
	assert.InDelta(t, 11.832570013471335, total, 1e-9)

	// Linear in retention and count.
	double, err := TotalGB(fullHDAvgKbps, 1.0, 60, 100)
	assert.NoError(t, err)
	assert.InDelta(t, 2*total, double, 1e-9)

	half, err := TotalGB(fullHDAvgKbps, 1.0, 30, 50)
	assert.NoError(t, err)
	assert.InDelta(t, total/2, half, 1e-9)
}

func TestTotalGB_Bounds(t *testing.T) {
	_, err := TotalGB(fullHDAvgKbps, 1.0, 0, 1)
	assert.Error(t, err)

	_, err = TotalGB(fullHDAvgKbps, 1.0, 366, 1)
	assert.Error(t, err)

	_, err = TotalGB(fullHDAvgKbps, 1.0, 30, 0)
	assert.Error(t, err)

	_, err = TotalGB(0, 1.0, 30, 1)
	assert.Error(t, err)

	_, err = TotalGB(fullHDAvgKbps, 1.5, 30, 1)
	assert.Error(t, err)

	// Boundary values are valid.
	_, err = TotalGB(fullHDAvgKbps, 1.0, 1, 1)
	assert.NoError(t, err)
	_, err = TotalGB(fullHDAvgKbps, 1.0, 365, 1)
	assert.NoError(t, err)
}
