// Package storage converts camera bitrates and retention policy into raw
// storage volume.
package storage

import (
	"github.com/technosupport/ts-sizer/internal/calc"
)

const (
	secondsPerDay = 86400
	kbitsPerGB    = 8 * 1024 * 1024
)

// Duty cycles per recording mode. Motion and object values are the
// industry-typical estimates the product has always shipped with.
const (
	factorContinuous = 1.0
	factorMotion     = 0.3
	factorObject     = 0.2
)

// RecordingFactor resolves the duty cycle for a recording mode. Scheduled
// mode derives it from hours per day.
func RecordingFactor(mode calc.RecordingMode, scheduledHoursPerDay float64) (float64, error) {
	switch mode {
	case calc.RecordContinuous:
		return factorContinuous, nil
	case calc.RecordMotion:
		return factorMotion, nil
	case calc.RecordObject:
		return factorObject, nil
	case calc.RecordScheduled:
		if scheduledHoursPerDay <= 0 || scheduledHoursPerDay > 24 {
			return 0, calc.Invalid("scheduled_hours_per_day", "must be within (0,24], got %g", scheduledHoursPerDay)
		}
		return scheduledHoursPerDay / 24, nil
	}
	return 0, calc.Invalid("recording_mode", "unknown mode %q", string(mode))
}

// DailyGB returns the storage one camera writes per day in GB.
func DailyGB(avgBitrateKbps, recordingFactor float64) (float64, error) {
	if avgBitrateKbps <= 0 {
		return 0, calc.Invalid("bitrate", "must be positive")
	}
	if recordingFactor <= 0 || recordingFactor > 1 {
		return 0, calc.Invalid("recording_factor", "must be within (0,1], got %g", recordingFactor)
	}
	return avgBitrateKbps * secondsPerDay / kbitsPerGB * recordingFactor, nil
}

// TotalGB returns raw storage for a camera group over the retention window.
// Scales linearly with retention days and camera count.
func TotalGB(avgBitrateKbps, recordingFactor float64, retentionDays, count int) (float64, error) {
	if retentionDays < 1 {
		return 0, calc.Invalid("retention_days", "must be at least 1")
	}
	if retentionDays > 365 {
		return 0, calc.Invalid("retention_days", "must not exceed 365, got %d", retentionDays)
	}
	if count < 1 {
		return 0, calc.Invalid("count", "must be at least 1")
	}
	daily, err := DailyGB(avgBitrateKbps, recordingFactor)
	if err != nil {
		return 0, err
	}
	return daily * float64(retentionDays) * float64(count), nil
}
