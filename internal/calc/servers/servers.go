// Package servers sizes the recording-server fleet: baseline server count,
// RAM sizing, the failover capacity search and limiting-factor reporting.
package servers

import (
	"fmt"
	"math"

	"github.com/technosupport/ts-sizer/internal/calc"
)

// Limiting factor labels, reported in the fixed tie-break order.
const (
	FactorRAM     = "ram"
	FactorCPU     = "cpu"
	FactorNIC     = "nic"
	FactorStorage = "storage_throughput"
)

// Input carries the aggregate demand one site places on the fleet.
type Input struct {
	TotalCameras      int
	TotalPeakMbps     float64
	PeakPerCameraMbps float64
	Hardware          calc.HardwareProfile
	Server            calc.ServerConfig
}

// RequiredRAMMB computes the raw per-server memory requirement.
func RequiredRAMMB(cameras int, hw calc.HardwareProfile, hostsClient bool) int {
	required := hw.RAMOsMB
	if hostsClient {
		required += calc.ClientRAMMB
	}
	return required + cameras*calc.RAMPerCameraMB
}

// RoundRAMGB rounds a requirement in MB up to the next power-of-two number
// of GB, capped at 64. ok is false when the unrounded requirement already
// exceeds the cap; the caller must surface that as an infeasibility, not
// clamp it silently.
func RoundRAMGB(requiredMB int) (gb int, ok bool) {
	requiredGB := float64(requiredMB) / 1024
	if requiredGB > calc.MaxRAMGB {
		return calc.MaxRAMGB, false
	}
	for _, p := range []int{1, 2, 4, 8, 16, 32, 64} {
		if float64(p) >= requiredGB {
			return p, true
		}
	}
	return calc.MaxRAMGB, true
}

// EffectiveMaxDevices derates the per-server device cap for heavy cameras.
// High pixel counts, high bitrates and high frame rates all reduce how many
// streams one recorder keeps up with.
func EffectiveMaxDevices(resolutionAreaPx int, bitrateKbps float64, fps, base int) int {
	maxDevices := base
	if resolutionAreaPx >= 8_000_000 && maxDevices > 128 {
		maxDevices = 128
	}
	if resolutionAreaPx >= 12_000_000 && maxDevices > 96 {
		maxDevices = 96
	}
	if bitrateKbps > 8000 && maxDevices > 128 {
		maxDevices = 128
	}
	if bitrateKbps > 12000 && maxDevices > 96 {
		maxDevices = 96
	}
	if fps > 30 {
		maxDevices = int(float64(maxDevices) * 0.8)
	}
	return maxDevices
}

// Plan runs the full sizing: baseline bounds, RAM sizing, failover search
// and limiting-factor report. Feasibility problems come back in errs so a
// partial report still renders; only malformed input returns err.
func Plan(in Input) (plan calc.ServerPlan, errs []string, err error) {
	if in.TotalCameras < 1 {
		return plan, nil, calc.Invalid("total_cameras", "must be at least 1")
	}
	if in.TotalPeakMbps < 0 {
		return plan, nil, calc.Invalid("total_peak_mbps", "must not be negative")
	}
	if in.Hardware.MaxCamerasPerServer < 1 {
		return plan, nil, calc.Invalid("cpu_variant", "max cameras per server must be positive")
	}
	if in.Server.NICCount < 1 || in.Server.NICCapacityMbps <= 0 {
		return plan, nil, calc.Invalid("server.nic", "nic count and capacity must be positive")
	}

	maxStorageDevices := in.Server.MaxStorageDevices
	if maxStorageDevices == 0 {
		maxStorageDevices = calc.DefaultMaxStorageDevices
	}

	// Baseline: three independent lower bounds, take the max.
	byDevices := ceilDiv(in.TotalCameras, in.Hardware.MaxCamerasPerServer)
	effectiveNIC := in.Server.NICCapacityMbps * float64(in.Server.NICCount) * (1 - calc.BandwidthHeadroom)
	byBandwidth := ceilFrac(in.TotalPeakMbps, effectiveNIC)
	byStorage := ceilFrac(in.TotalPeakMbps, calc.StorageThroughputMbps)

	serversNeeded := maxInt(1, maxInt(byDevices, maxInt(byBandwidth, byStorage)))
	devicesPerServer := ceilDiv(in.TotalCameras, serversNeeded)
	bitratePerServer := in.TotalPeakMbps / float64(serversNeeded)

	// RAM sizing for the loaded server.
	requiredMB := RequiredRAMMB(devicesPerServer, in.Hardware, in.Server.HostsDesktopClient)
	ramGB, ramOK := RoundRAMGB(requiredMB)
	if !ramOK {
		errs = append(errs, fmt.Sprintf(
			"required RAM %.1f GB exceeds the %d GB platform cap; no feasible memory configuration",
			float64(requiredMB)/1024, calc.MaxRAMGB))
	}

	plan = calc.ServerPlan{
		ServersNeeded:       serversNeeded,
		ServersWithFailover: serversNeeded,
		ByDevices:           byDevices,
		ByBandwidth:         byBandwidth,
		ByStorage:           byStorage,
		DevicesPerServer:    devicesPerServer,
		Distribution:        DistributeDevices(in.TotalCameras, serversNeeded),
		RAMPerServerGB:      ramGB,
	}

	// Failover capacity and spare servers.
	if in.Server.Failover != calc.FailoverNone {
		capacity := FailoverCapacity(SearchInput{
			PeakPerCameraMbps: in.PeakPerCameraMbps,
			Hardware:          in.Hardware,
			AvailableRAMGB:    ramGB,
			HostsClient:       in.Server.HostsDesktopClient,
			NICCount:          in.Server.NICCount,
			NICCapacityMbps:   in.Server.NICCapacityMbps,
			MaxStorageDevices: maxStorageDevices,
		}, devicesPerServer)
		plan.FailoverCapacity = capacity

		switch in.Server.Failover {
		case calc.FailoverNPlus1:
			plan.ServersWithFailover = serversNeeded * 2
		case calc.FailoverNPlus2:
			plan.ServersWithFailover = serversNeeded * 3
		}
	}

	// Limiting factor at the chosen operating point.
	plan.RAMUtilizationPct = pct(float64(requiredMB) / float64(ramGB*1024))
	plan.CPUUtilizationPct = pct(float64(devicesPerServer) / float64(in.Hardware.MaxCamerasPerServer))
	plan.NICUtilizationPct = pct(bitratePerServer / (in.Server.NICCapacityMbps * float64(in.Server.NICCount)))
	plan.HDDUtilizationPct = pct(bitratePerServer / float64(maxStorageDevices*calc.StorageThroughputMbps))
	plan.LimitingFactor = limitingFactor(plan)

	return plan, errs, nil
}

// SearchInput parameterizes the failover capacity search for one server.
type SearchInput struct {
	PeakPerCameraMbps float64
	Hardware          calc.HardwareProfile
	AvailableRAMGB    int
	HostsClient       bool
	NICCount          int
	NICCapacityMbps   float64
	MaxStorageDevices int
}

// FailoverCapacity determines how many cameras one server could carry when
// absorbing a failed peer's load. Cameras are added one at a time, peak
// bitrate each, re-checking RAM, CPU, NIC and storage throughput after
// every addition. The search backs off one camera from the last feasible
// step; the result never drops below the load the server already serves.
// The loop is explicitly bounded by the hardware camera cap so pathological
// inputs cannot spin it.
func FailoverCapacity(in SearchInput, camerasServed int) int {
	availableRAMMB := in.AvailableRAMGB * 1024
	currentCameras := 0
	currentBitrate := 0.0

	for {
		nextCameras := currentCameras + 1
		if nextCameras > in.Hardware.MaxCamerasPerServer+1 {
			break // iteration guard
		}
		nextBitrate := currentBitrate + in.PeakPerCameraMbps

		ramOK := RequiredRAMMB(nextCameras, in.Hardware, in.HostsClient) <= availableRAMMB
		cpuOK := nextCameras <= in.Hardware.MaxCamerasPerServer
		nicOK := ceilFrac(nextBitrate, in.NICCapacityMbps) <= in.NICCount
		hddOK := ceilFrac(nextBitrate, calc.StorageThroughputMbps) <= in.MaxStorageDevices

		if !(ramOK && cpuOK && nicOK && hddOK) {
			break
		}
		currentCameras = nextCameras
		currentBitrate = nextBitrate
	}

	return maxInt(currentCameras-1, camerasServed)
}

// limitingFactor picks the resource closest to saturation. Ties resolve in
// the fixed order RAM, CPU, NIC, storage.
func limitingFactor(p calc.ServerPlan) string {
	factors := []struct {
		name string
		pct  float64
	}{
		{FactorRAM, p.RAMUtilizationPct},
		{FactorCPU, p.CPUUtilizationPct},
		{FactorNIC, p.NICUtilizationPct},
		{FactorStorage, p.HDDUtilizationPct},
	}
	best := factors[0]
	for _, f := range factors[1:] {
		if f.pct > best.pct {
			best = f
		}
	}
	return best.name
}

// DistributeDevices splits cameras across servers, front-loading full
// servers so the split is deterministic.
func DistributeDevices(totalDevices, serversNeeded int) []int {
	if serversNeeded < 1 {
		return nil
	}
	perServer := ceilDiv(totalDevices, serversNeeded)
	out := make([]int, 0, serversNeeded)
	remaining := totalDevices
	for i := 0; i < serversNeeded; i++ {
		n := minInt(perServer, remaining)
		out = append(out, n)
		remaining -= n
	}
	return out
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func ceilFrac(a, b float64) int {
	if b <= 0 {
		return 0
	}
	return int(math.Ceil(a / b))
}

func pct(frac float64) float64 {
	return frac * 100
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
