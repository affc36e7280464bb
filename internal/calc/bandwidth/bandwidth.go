// Package bandwidth sizes network interfaces for camera ingress plus
// client viewing egress.
package bandwidth

import (
	"fmt"
	"math"

	"github.com/technosupport/ts-sizer/internal/calc"
)

// Utilization thresholds. Above warn the plan carries a warning; above 100%
// the configuration is infeasible.
const WarnUtilizationPct = 70.0

// Plan computes required NIC count and utilization for one recording
// server. peakMbps is that server's share of the site peak; client egress
// rides on the same interfaces. Warnings never block a result; an error
// entry marks it infeasible while the numbers remain available for
// diagnosis.
func Plan(peakMbps, clientViewingMbps, nicCapacityMbps float64, nicCount int) (calc.BandwidthPlan, []string, []string, error) {
	if nicCapacityMbps <= 0 {
		return calc.BandwidthPlan{}, nil, nil, calc.Invalid("nic_capacity_mbps", "must be positive")
	}
	if nicCount < 1 {
		return calc.BandwidthPlan{}, nil, nil, calc.Invalid("nic_count", "must be at least 1")
	}
	if peakMbps < 0 || clientViewingMbps < 0 {
		return calc.BandwidthPlan{}, nil, nil, calc.Invalid("bitrate", "must not be negative")
	}

	required := int(math.Ceil((peakMbps + clientViewingMbps) / nicCapacityMbps))
	if required < 1 {
		required = 1
	}

	utilization := peakMbps / (nicCapacityMbps * float64(nicCount)) * 100

	plan := calc.BandwidthPlan{
		PerServerMbps:  peakMbps,
		RequiredNICs:   required,
		UtilizationPct: utilization,
		EgressMbps:     clientViewingMbps,
	}

	var warnings, errs []string
	switch {
	case utilization > 100:
		errs = append(errs, fmt.Sprintf(
			"per-server peak bitrate %.1f Mbps exceeds NIC capacity %.1f Mbps; add interfaces or reduce camera load",
			peakMbps, nicCapacityMbps*float64(nicCount)))
	case utilization > WarnUtilizationPct:
		warnings = append(warnings, fmt.Sprintf(
			"NIC utilization %.1f%% exceeds the recommended %.0f%% ceiling",
			utilization, WarnUtilizationPct))
	}
	if required > nicCount {
		errs = append(errs, fmt.Sprintf(
			"configuration provides %d NICs but %d are required", nicCount, required))
	}

	return plan, warnings, errs, nil
}

// Egress estimates client-viewing bandwidth in Mbps.
func Egress(concurrentClients, camerasPerClient int, avgCameraBitrateKbps float64) float64 {
	streams := concurrentClients * camerasPerClient
	return float64(streams) * avgCameraBitrateKbps / 1000
}

// AggregateKbps sums per-camera average and peak bitrates across groups.
func AggregateKbps(groups []calc.GroupResult) (avgKbps, peakKbps float64) {
	for _, g := range groups {
		avgKbps += g.AvgBitrateKbps * float64(g.Count)
		peakKbps += g.PeakBitrateKbps * float64(g.Count)
	}
	return avgKbps, peakKbps
}
