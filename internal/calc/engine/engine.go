// Package engine runs the single-site sizing pipeline: per-group bitrate
// estimation, storage, RAID translation, server planning and bandwidth
// planning, aggregated into one CalculationResult.
package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/technosupport/ts-sizer/internal/calc"
	"github.com/technosupport/ts-sizer/internal/calc/bandwidth"
	"github.com/technosupport/ts-sizer/internal/calc/bitrate"
	"github.com/technosupport/ts-sizer/internal/calc/raid"
	"github.com/technosupport/ts-sizer/internal/calc/servers"
	"github.com/technosupport/ts-sizer/internal/calc/storage"
	"github.com/technosupport/ts-sizer/internal/catalog"
)

// Retention beyond this gets an advisory warning; it never blocks.
const highRetentionDays = 180

// Engine evaluates sizing requests against an injected catalog snapshot.
// It holds no mutable state; independent requests may run concurrently.
type Engine struct {
	now   func() time.Time
	newID func() uuid.UUID
}

func New() *Engine {
	return &Engine{now: time.Now, newID: uuid.New}
}

// NewDeterministic pins clock and id generation, for tests and replay.
func NewDeterministic(now func() time.Time, newID func() uuid.UUID) *Engine {
	return &Engine{now: now, newID: newID}
}

// Run evaluates one request against one site's worth of cameras.
// Validation failures return an error; feasibility problems land in the
// result's Errors list with the numeric breakdown intact.
func (e *Engine) Run(req calc.CalculationRequest, cat *catalog.Catalog) (*calc.CalculationResult, error) {
	if len(req.CameraGroups) == 0 {
		return nil, calc.Invalid("camera_groups", "at least one camera group is required")
	}

	brandFactor := req.BrandFactor
	if brandFactor == 0 {
		brandFactor = calc.DefaultBrandFactor
	}
	lowMotion := req.LowMotionPct
	if lowMotion == 0 {
		lowMotion = calc.DefaultLowMotionPct
	}

	hw, server, err := e.resolveHardware(req, cat)
	if err != nil {
		return nil, err
	}

	result := &calc.CalculationResult{
		ID:          e.newID(),
		ProjectName: req.ProjectName,
		CreatedAt:   e.now().UTC(),
	}

	// Per-group pipeline. Heavy groups derate how many cameras one server
	// keeps up with; the fleet is sized against the tightest cap.
	var totalRecordingGB float64
	effectiveCap := hw.MaxCamerasPerServer
	for _, g := range req.CameraGroups {
		resolved, err := ResolveGroup(g, cat)
		if err != nil {
			return nil, err
		}
		if resolved.Count < 1 {
			return nil, calc.Invalid("count", "must be positive")
		}

		avg, peak, err := bitrate.Estimate(resolved, brandFactor, lowMotion)
		if err != nil {
			return nil, err
		}

		if c := servers.EffectiveMaxDevices(resolved.ResolutionAreaPx, peak, resolved.FPS, hw.MaxCamerasPerServer); c < effectiveCap {
			effectiveCap = c
		}

		gr := calc.GroupResult{
			Name:            resolved.Name,
			Count:           resolved.Count,
			AvgBitrateKbps:  avg,
			PeakBitrateKbps: peak,
		}

		if resolved.LiveOnly {
			result.Licenses.LiveOnly += resolved.Count
		} else {
			factor, err := storage.RecordingFactor(resolved.RecordingMode, resolved.ScheduledHoursPerDay)
			if err != nil {
				return nil, err
			}
			daily, err := storage.DailyGB(avg, factor)
			if err != nil {
				return nil, err
			}
			total, err := storage.TotalGB(avg, factor, req.Retention.RetentionDays, resolved.Count)
			if err != nil {
				return nil, err
			}
			gr.RecordingFactor = factor
			gr.DailyStorageGB = daily
			gr.TotalStorageGB = total
			totalRecordingGB += total
			result.Licenses.Professional += resolved.Count
		}

		result.Groups = append(result.Groups, gr)
		result.TotalDevices += resolved.Count
	}
	result.Licenses.Total = result.Licenses.Professional + result.Licenses.LiveOnly

	if req.Retention.RetentionDays > highRetentionDays {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"retention of %d days is unusually long; verify the storage budget", req.Retention.RetentionDays))
	}

	avgKbps, peakKbps := bandwidth.AggregateKbps(result.Groups)
	result.TotalAvgMbps = avgKbps / 1000
	result.TotalPeakMbps = peakKbps / 1000

	// Storage: recordings occupy usable capacity; provision raw for it.
	if totalRecordingGB > 0 {
		rawNeeded, err := raid.RawNeededGB(totalRecordingGB, server.RAID)
		if err != nil {
			return nil, err
		}
		multiplier, err := raid.FailoverStorageMultiplier(server.Failover)
		if err != nil {
			return nil, err
		}
		result.Storage = calc.StoragePlan{
			RecordingGB:    totalRecordingGB,
			RawNeededGB:    rawNeeded,
			WithFailoverGB: rawNeeded * multiplier,
		}
	}

	// Server fleet.
	hw.MaxCamerasPerServer = effectiveCap
	peakPerCamera := result.TotalPeakMbps / float64(result.TotalDevices)
	plan, planErrs, err := servers.Plan(servers.Input{
		TotalCameras:      result.TotalDevices,
		TotalPeakMbps:     result.TotalPeakMbps,
		PeakPerCameraMbps: peakPerCamera,
		Hardware:          hw,
		Server:            server,
	})
	if err != nil {
		return nil, err
	}
	result.Servers = plan
	result.Errors = append(result.Errors, planErrs...)

	perServerMbps := result.TotalPeakMbps / float64(plan.ServersNeeded)
	if tier := RecommendTier(plan.DevicesPerServer, perServerMbps, cat.ServerTiers()); tier != "" {
		result.Servers.RecommendedTier = tier
	}

	// Bandwidth. The fleet spreads the peak evenly, so NIC capacity is
	// validated against one server's share; the fleet total stays in the
	// report.
	bw, warns, bwErrs, err := bandwidth.Plan(perServerMbps, server.ClientViewingMbps, server.NICCapacityMbps, server.NICCount)
	if err != nil {
		return nil, err
	}
	bw.TotalPeakMbps = result.TotalPeakMbps
	bw.RecommendedNIC = RecommendNIC(perServerMbps+server.ClientViewingMbps, cat.NICTypes())
	result.Bandwidth = bw
	result.Warnings = append(result.Warnings, warns...)
	result.Errors = append(result.Errors, bwErrs...)

	result.Feasible = len(result.Errors) == 0
	return result, nil
}

// resolveHardware fills the hardware profile and server config from catalog
// presets where the request references them by id.
func (e *Engine) resolveHardware(req calc.CalculationRequest, cat *catalog.Catalog) (calc.HardwareProfile, calc.ServerConfig, error) {
	cpu, err := cat.CPUVariant(req.CPUVariant)
	if err != nil {
		return calc.HardwareProfile{}, calc.ServerConfig{}, err
	}
	hw := cpu.HardwareProfile()

	server := req.Server
	if server.NICCount == 0 {
		server.NICCount = 1
	}
	if server.NICCapacityMbps == 0 {
		server.NICCapacityMbps = float64(hw.NICBitrateMbps)
	}
	if server.Failover == "" {
		server.Failover = calc.FailoverNone
	}
	if server.RAID.ID != "" && server.RAID.UsablePercentage == 0 {
		rp, err := cat.RAID(server.RAID.ID)
		if err != nil {
			return hw, server, err
		}
		server.RAID = rp
	}
	return hw, server, nil
}

// ResolveGroup replaces preset references with concrete parameters and
// adapts legacy quality inputs into the canonical ratio range.
func ResolveGroup(g calc.CameraGroup, cat *catalog.Catalog) (calc.CameraGroup, error) {
	if g.ResolutionID != "" {
		res, err := cat.Resolution(g.ResolutionID)
		if err != nil {
			return g, err
		}
		g.ResolutionAreaPx = res.AreaPx
	}
	if g.CodecID != "" {
		codec, err := cat.Codec(g.CodecID)
		if err != nil {
			return g, err
		}
		g.CodecClass = codec.Class
		g.CodecRatio = codec.Ratio
		if g.Quality != "" {
			if m, ok := codec.QualityMultipliers[g.Quality]; ok {
				// Legacy multiplier-style presets live outside [0,1].
				g.QualityRatio = bitrate.LegacyMultiplierToRatio(m)
			} else {
				ratio, err := bitrate.RatioForLabel(g.Quality)
				if err != nil {
					return g, err
				}
				g.QualityRatio = ratio
			}
		}
	} else if g.Quality != "" {
		ratio, err := bitrate.RatioForLabel(g.Quality)
		if err != nil {
			return g, err
		}
		g.QualityRatio = ratio
	}
	if g.RecordingMode == "" {
		g.RecordingMode = calc.RecordContinuous
	}
	return g, nil
}

// RecommendNIC picks the smallest catalog NIC whose effective throughput
// covers the per-server load, or the largest when nothing does.
func RecommendNIC(perServerMbps float64, nics []catalog.NICType) string {
	if len(nics) == 0 {
		return ""
	}
	for _, n := range nics {
		if perServerMbps <= float64(n.EffectiveThroughputMbps) {
			return n.ID
		}
	}
	return nics[len(nics)-1].ID
}

// RecommendTier picks the smallest catalog tier that fits the per-server
// load, or the largest when nothing fits.
func RecommendTier(devicesPerServer int, perServerMbps float64, tiers []catalog.ServerTier) string {
	if len(tiers) == 0 {
		return ""
	}
	for _, t := range tiers {
		if devicesPerServer <= t.MaxDevices && perServerMbps <= t.MaxBitrateMbps {
			return t.ID
		}
	}
	return tiers[len(tiers)-1].ID
}
