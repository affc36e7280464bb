// Package raid translates between raw and usable storage capacity for a
// RAID profile, including filesystem overhead.
package raid

import (
	"github.com/technosupport/ts-sizer/internal/calc"
)

// UsableGB returns the capacity left after RAID parity and filesystem
// overhead are taken out of rawGB.
func UsableGB(rawGB float64, p calc.RAIDProfile) (float64, error) {
	if rawGB <= 0 {
		return 0, calc.Invalid("raw_storage_gb", "must be positive")
	}
	m, err := multiplier(p)
	if err != nil {
		return 0, err
	}
	return rawGB * m, nil
}

// RawNeededGB is the inverse of UsableGB: the raw capacity that must be
// provisioned to end up with requiredUsableGB. The capacity planner always
// needs this direction.
func RawNeededGB(requiredUsableGB float64, p calc.RAIDProfile) (float64, error) {
	if requiredUsableGB <= 0 {
		return 0, calc.Invalid("required_usable_gb", "must be positive")
	}
	m, err := multiplier(p)
	if err != nil {
		return 0, err
	}
	return requiredUsableGB / m, nil
}

func multiplier(p calc.RAIDProfile) (float64, error) {
	if p.UsablePercentage <= 0 || p.UsablePercentage > 100 {
		return 0, calc.Invalid("raid.usable_percentage", "must be within (0,100], got %g", p.UsablePercentage)
	}
	if p.FilesystemOverheadPct < 0 || p.FilesystemOverheadPct >= 100 {
		return 0, calc.Invalid("raid.filesystem_overhead_pct", "must be within [0,100), got %g", p.FilesystemOverheadPct)
	}
	return (p.UsablePercentage / 100) * (1 - p.FilesystemOverheadPct/100), nil
}

// ValidateDriveCount checks a concrete array layout against the profile's
// minimum drive count.
func ValidateDriveCount(numDrives int, p calc.RAIDProfile) error {
	if numDrives < p.MinDrives {
		return calc.Invalid("num_drives", "%s requires at least %d drives, got %d", p.Name, p.MinDrives, numDrives)
	}
	return nil
}

// RecommendType suggests a RAID preset id for a fault-tolerance target.
// priority is "capacity", "performance" or "balanced".
func RecommendType(faultTolerance int, priority string) (string, error) {
	switch {
	case faultTolerance == 0:
		if priority == "performance" {
			return "raid0", nil
		}
		return "none", nil
	case faultTolerance == 1:
		if priority == "performance" {
			return "raid10", nil
		}
		return "raid5", nil
	case faultTolerance >= 2:
		return "raid6", nil
	}
	return "", calc.Invalid("fault_tolerance", "must not be negative, got %d", faultTolerance)
}

// FailoverStorageMultiplier scales storage for failover spares. Failover
// servers mirror the primary recording volume in full.
func FailoverStorageMultiplier(mode calc.FailoverMode) (float64, error) {
	switch mode {
	case calc.FailoverNone:
		return 1.0, nil
	case calc.FailoverNPlus1:
		return 2.0, nil
	case calc.FailoverNPlus2:
		return 3.0, nil
	}
	return 0, calc.Invalid("failover", "unknown failover mode %q", string(mode))
}
