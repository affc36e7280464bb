// Package bitrate estimates per-camera stream bitrates from resolution,
// frame rate, codec and quality settings.
package bitrate

import (
	"math"

	"github.com/technosupport/ts-sizer/internal/calc"
)

const (
	qualityFloor = 0.1
	qualityCeil  = 1.0

	// powerLawScale and powerLawExp model compression efficiency improving
	// with pixel count faster than linear scaling. The exponent is load
	// bearing: a linear formula materially misestimates 4K+ cameras.
	powerLawScale = 0.009
	powerLawExp   = 0.7

	linearDivisor = 6666.0
	linearScale   = 12.0
)

// QualityFactor maps a canonical quality ratio in [0,1] to the encoder
// quality factor in [0.1,1.0].
func QualityFactor(qualityRatio float64) float64 {
	return qualityFloor + (qualityCeil-qualityFloor)*qualityRatio
}

// RatioForLabel maps the legacy quality labels to canonical ratios.
func RatioForLabel(label string) (float64, error) {
	switch label {
	case "low":
		return 0.0, nil
	case "medium":
		return 0.5, nil
	case "high":
		return 0.8, nil
	case "best":
		return 1.0, nil
	}
	return 0, calc.Invalid("quality", "unknown quality label %q", label)
}

// LegacyMultiplierToRatio remaps a multiplier-style quality input from the
// historical [0.6,2.0] range into the canonical [0,1] ratio range. Values
// already inside [0,1] pass through untouched. The core formula is strictly
// defined over [0,1]; this adapter lives at the input boundary only.
func LegacyMultiplierToRatio(m float64) float64 {
	if m >= 0 && m <= 1 {
		return m
	}
	const lo, hi = 0.6, 2.0
	r := (m - lo) / (hi - lo)
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// Estimate returns the average and peak bitrate in Kbps for one camera of
// the given group. brandFactor scales for camera-line quality (1.0 =
// neutral); lowMotionPct is the peak-over-average uplift percentage.
func Estimate(g calc.CameraGroup, brandFactor, lowMotionPct float64) (avgKbps, peakKbps float64, err error) {
	if err := validate(g, brandFactor, lowMotionPct); err != nil {
		return 0, 0, err
	}

	var avg float64
	if g.ManualBitrateKbps > 0 {
		avg = g.ManualBitrateKbps
	} else {
		avg = videoBitrateKbps(g, brandFactor)
	}

	if g.AudioEnabled {
		avg += calc.AudioBitrateKbps
	}

	peak := avg * (1 + lowMotionPct/100)
	return avg, peak, nil
}

func videoBitrateKbps(g calc.CameraGroup, brandFactor float64) float64 {
	area := float64(g.ResolutionAreaPx)
	fps := float64(g.FPS)
	quality := QualityFactor(g.QualityRatio)

	var result float64
	switch g.CodecClass {
	case calc.CodecPowerLaw:
		resolutionFactor := powerLawScale * math.Pow(area, powerLawExp)
		result = brandFactor * quality * fps * resolutionFactor * g.CodecRatio
	default: // linear (uncompressed/legacy codecs)
		result = (area / linearDivisor) * fps * quality * (g.CodecRatio + 1.0/3.0) * linearScale
	}
	return result / 1024
}

func validate(g calc.CameraGroup, brandFactor, lowMotionPct float64) error {
	if g.ManualBitrateKbps < 0 {
		return calc.Invalid("manual_bitrate_kbps", "must not be negative")
	}
	if g.ManualBitrateKbps == 0 && g.ResolutionAreaPx <= 0 {
		return calc.Invalid("resolution_area_px", "must be positive")
	}
	if g.FPS < 1 || g.FPS > 100 {
		return calc.Invalid("fps", "must be between 1 and 100, got %d", g.FPS)
	}
	if g.QualityRatio < 0 || g.QualityRatio > 1 {
		return calc.Invalid("quality_ratio", "must be within [0,1], got %g", g.QualityRatio)
	}
	if g.ManualBitrateKbps == 0 && g.CodecRatio <= 0 {
		return calc.Invalid("codec_ratio", "must be positive")
	}
	if g.CodecClass != calc.CodecPowerLaw && g.CodecClass != calc.CodecLinear && g.ManualBitrateKbps == 0 {
		return calc.Invalid("codec_class", "unknown codec class %q", string(g.CodecClass))
	}
	if brandFactor <= 0 {
		return calc.Invalid("brand_factor", "must be positive")
	}
	if lowMotionPct < 0 {
		return calc.Invalid("low_motion_quality_pct", "must not be negative")
	}
	return nil
}
