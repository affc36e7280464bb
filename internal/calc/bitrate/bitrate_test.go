package bitrate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/technosupport/ts-sizer/internal/calc"
)

func fullHD(fps int, quality float64) calc.CameraGroup {
	return calc.CameraGroup{
		Count:            1,
		ResolutionAreaPx: 1920 * 1080,
		FPS:              fps,
		CodecClass:       calc.CodecPowerLaw,
		CodecRatio:       0.1,
		QualityRatio:     quality,
	}
}

func TestQualityFactor(t *testing.T) {
	assert.InDelta(t, 0.1, QualityFactor(0), 1e-12)
	assert.InDelta(t, 0.55, QualityFactor(0.5), 1e-12)
	assert.InDelta(t, 1.0, QualityFactor(1), 1e-12)
}

func TestRatioForLabel(t *testing.T) {
	for label, want := range map[string]float64{
		"low": 0.0, "medium": 0.5, "high": 0.8, "best": 1.0,
	} {
		got, err := RatioForLabel(label)
		assert.NoError(t, err)
		assert.Equal(t, want, got, label)
	}

	_, err := RatioForLabel("ultra")
	assert.Error(t, err)
}

func TestLegacyMultiplierToRatio(t *testing.T) {
	// Canonical ratios pass through.
	assert.Equal(t, 0.0, LegacyMultiplierToRatio(0))
	assert.Equal(t, 0.5, LegacyMultiplierToRatio(0.5))
	assert.Equal(t, 1.0, LegacyMultiplierToRatio(1))

	// Multiplier-style values above 1 remap linearly from [0.6,2.0].
	assert.InDelta(t, 0.5, LegacyMultiplierToRatio(1.3), 1e-12)
	assert.InDelta(t, 1.0, LegacyMultiplierToRatio(2.0), 1e-12)

	// Out of range clamps.
	assert.Equal(t, 1.0, LegacyMultiplierToRatio(3.5))
	assert.Equal(t, 0.0, LegacyMultiplierToRatio(-0.5))

	// Monotone over the multiplier range.
	prev := 0.0
	for m := 1.05; m <= 2.0; m += 0.05 {
		r := LegacyMultiplierToRatio(m)
		if r < prev {
			t.Fatalf("remap not monotone at m=%g: %g < %g", m, r, prev)
		}
		prev = r
	}
}

func TestEstimate_PinnedFullHD(t *testing.T) {
	// 1080p, 30 fps, H.264-class power law, medium quality.
	avg, peak, err := Estimate(fullHD(30, 0.5), 1.0, 20.0)
	assert.NoError(t, err)
	assert.InDelta(t, 0.38294286834709007, avg, 1e-12)
	assert.InDelta(t, 0.4595314420165081, peak, 1e-12)
}

func TestEstimate_LinearCodec(t *testing.T) {
	g := fullHD(30, 0.5)
	g.CodecClass = calc.CodecLinear
	g.CodecRatio = 0.3

	avg, _, err := Estimate(g, 1.0, 20.0)
	assert.NoError(t, err)
	assert.InDelta(t, 38.0940594059406, avg, 1e-9)
}

func TestEstimate_AudioAddsFixedOverhead(t *testing.T) {
	g := fullHD(30, 0.5)
	base, _, err := Estimate(g, 1.0, 20.0)
	assert.NoError(t, err)

	g.AudioEnabled = true
	withAudio, _, err := Estimate(g, 1.0, 20.0)
	assert.NoError(t, err)
	assert.InDelta(t, calc.AudioBitrateKbps, withAudio-base, 1e-9)
}

func TestEstimate_ManualBitrateOverrides(t *testing.T) {
	g := fullHD(30, 0.5)
	g.ManualBitrateKbps = 4000

	avg, peak, err := Estimate(g, 1.0, 20.0)
	assert.NoError(t, err)
	assert.Equal(t, 4000.0, avg)
	assert.InDelta(t, 4800.0, peak, 1e-9)
}

func TestEstimate_MonotoneInFPSAndQuality(t *testing.T) {
	lowFPS, _, _ := Estimate(fullHD(10, 0.5), 1.0, 20.0)
	highFPS, _, _ := Estimate(fullHD(60, 0.5), 1.0, 20.0)
	if highFPS <= lowFPS {
		t.Fatalf("bitrate must grow with fps: %g <= %g", highFPS, lowFPS)
	}

	lowQ, _, _ := Estimate(fullHD(30, 0.1), 1.0, 20.0)
	highQ, _, _ := Estimate(fullHD(30, 0.9), 1.0, 20.0)
	if highQ <= lowQ {
		t.Fatalf("bitrate must grow with quality: %g <= %g", highQ, lowQ)
	}
}

func TestEstimate_PowerLawSubLinearInArea(t *testing.T) {
	small := fullHD(30, 0.5)
	large := fullHD(30, 0.5)
	large.ResolutionAreaPx = small.ResolutionAreaPx * 4

	a1, _, _ := Estimate(small, 1.0, 20.0)
	a4, _, _ := Estimate(large, 1.0, 20.0)

	// 4x the pixels should cost less than 4x the bitrate.
	if a4 >= 4*a1 {
		t.Fatalf("power law should be sub-linear: %g >= 4*%g", a4, a1)
	}
	// But still close to the 4^0.7 theoretical growth.
	assert.InDelta(t, math.Pow(4, 0.7), a4/a1, 1e-9)
}

func TestEstimate_Validation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*calc.CameraGroup)
	}{
		{"zero area", func(g *calc.CameraGroup) { g.ResolutionAreaPx = 0 }},
		{"fps too low", func(g *calc.CameraGroup) { g.FPS = 0 }},
		{"fps too high", func(g *calc.CameraGroup) { g.FPS = 101 }},
		{"quality above one", func(g *calc.CameraGroup) { g.QualityRatio = 1.2 }},
		{"negative quality", func(g *calc.CameraGroup) { g.QualityRatio = -0.1 }},
		{"zero codec ratio", func(g *calc.CameraGroup) { g.CodecRatio = 0 }},
		{"bad codec class", func(g *calc.CameraGroup) { g.CodecClass = "fractal" }},
		{"negative manual bitrate", func(g *calc.CameraGroup) { g.ManualBitrateKbps = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := fullHD(30, 0.5)
			tc.mutate(&g)
			_, _, err := Estimate(g, 1.0, 20.0)
			assert.Error(t, err)
			var verr *calc.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}

	_, _, err := Estimate(fullHD(30, 0.5), 0, 20.0)
	assert.Error(t, err, "zero brand factor")

	_, _, err = Estimate(fullHD(30, 0.5), 1.0, -5)
	assert.Error(t, err, "negative low motion pct")
}
