package calc

import (
	"time"

	"github.com/google/uuid"
)

// CodecClass selects which bitrate formula applies to a codec.
type CodecClass string

const (
	// CodecPowerLaw covers modern inter-frame codecs (H.264/H.265 family)
	// whose bitrate grows sub-linearly with pixel count.
	CodecPowerLaw CodecClass = "powerLaw"
	// CodecLinear covers MJPEG and other intra-frame/legacy codecs.
	CodecLinear CodecClass = "linear"
)

type RecordingMode string

const (
	RecordContinuous RecordingMode = "continuous"
	RecordMotion     RecordingMode = "motion"
	RecordObject     RecordingMode = "object"
	RecordScheduled  RecordingMode = "scheduled"
)

type FailoverMode string

const (
	FailoverNone   FailoverMode = "none"
	FailoverNPlus1 FailoverMode = "n+1"
	FailoverNPlus2 FailoverMode = "n+2"
)

// Sizing constants shared by the planner components.
const (
	RAMPerCameraMB        = 40
	ClientRAMMB           = 3072
	StorageThroughputMbps = 204 // per storage device, fixed regardless of drive tech
	AudioBitrateKbps      = 64.0
	MaxRAMGB              = 64
	BandwidthHeadroom     = 0.2 // fraction of NIC capacity reserved
	DefaultBrandFactor    = 1.0
	DefaultLowMotionPct   = 20.0
)

// CameraGroup describes a homogeneous set of cameras in a deployment.
// Immutable once submitted for a calculation.
type CameraGroup struct {
	Name                 string        `json:"name,omitempty" yaml:"name,omitempty"`
	Count                int           `json:"count" yaml:"count"`
	ResolutionAreaPx     int           `json:"resolution_area_px" yaml:"resolution_area_px"`
	FPS                  int           `json:"fps" yaml:"fps"`
	CodecClass           CodecClass    `json:"codec_class" yaml:"codec_class"`
	CodecRatio           float64       `json:"codec_ratio" yaml:"codec_ratio"`
	QualityRatio         float64       `json:"quality_ratio" yaml:"quality_ratio"`
	RecordingMode        RecordingMode `json:"recording_mode" yaml:"recording_mode"`
	ScheduledHoursPerDay float64       `json:"scheduled_hours_per_day,omitempty" yaml:"scheduled_hours_per_day,omitempty"`
	AudioEnabled         bool          `json:"audio_enabled" yaml:"audio_enabled"`
	// Preset references. When set they are resolved against the catalog
	// before estimation and take precedence over the raw fields above.
	ResolutionID string `json:"resolution_id,omitempty" yaml:"resolution_id,omitempty"`
	CodecID      string `json:"codec_id,omitempty" yaml:"codec_id,omitempty"`
	Quality      string `json:"quality,omitempty" yaml:"quality,omitempty"`
	// ManualBitrateKbps overrides the estimator when > 0 (known camera lines).
	ManualBitrateKbps float64 `json:"manual_bitrate_kbps,omitempty" yaml:"manual_bitrate_kbps,omitempty"`
	// LiveOnly devices are viewed but never recorded; they consume
	// bandwidth and a live-view license but no storage.
	LiveOnly bool `json:"live_only,omitempty" yaml:"live_only,omitempty"`
}

type RetentionPolicy struct {
	RetentionDays int `json:"retention_days" yaml:"retention_days"`
}

// RAIDProfile is the resolved RAID preset a calculation runs against.
type RAIDProfile struct {
	ID                    string  `json:"id" yaml:"id"`
	Name                  string  `json:"name" yaml:"name"`
	UsablePercentage      float64 `json:"usable_percentage" yaml:"usable_percentage"`
	FaultTolerance        int     `json:"fault_tolerance" yaml:"fault_tolerance"`
	MinDrives             int     `json:"min_drives" yaml:"min_drives"`
	FilesystemOverheadPct float64 `json:"filesystem_overhead_pct" yaml:"filesystem_overhead_pct"`
}

// HardwareProfile is the resolved CPU variant a calculation runs against.
type HardwareProfile struct {
	CPUVariant          string `json:"cpu_variant" yaml:"cpu_variant"`
	MaxCamerasPerServer int    `json:"max_cameras_per_server" yaml:"max_cameras_per_server"`
	NICBitrateMbps      int    `json:"nic_bitrate_mbps" yaml:"nic_bitrate_mbps"`
	RAMOsMB             int    `json:"ram_os_mb" yaml:"ram_os_mb"`
}

// ServerConfig carries the per-server hardware choices for a calculation.
type ServerConfig struct {
	RAID               RAIDProfile  `json:"raid" yaml:"raid"`
	NICCount           int          `json:"nic_count" yaml:"nic_count"`
	NICCapacityMbps    float64      `json:"nic_capacity_mbps" yaml:"nic_capacity_mbps"`
	Failover           FailoverMode `json:"failover" yaml:"failover"`
	HostsDesktopClient bool         `json:"hosts_desktop_client" yaml:"hosts_desktop_client"`
	// MaxStorageDevices bounds the storage-throughput check in the
	// failover search. Enterprise chassis default.
	MaxStorageDevices int `json:"max_storage_devices,omitempty" yaml:"max_storage_devices,omitempty"`
	// ClientViewingMbps is extra egress reserved for desktop clients.
	ClientViewingMbps float64 `json:"client_viewing_mbps,omitempty" yaml:"client_viewing_mbps,omitempty"`
}

// DefaultMaxStorageDevices applies when ServerConfig.MaxStorageDevices is 0.
const DefaultMaxStorageDevices = 12

type SiteConstraints struct {
	MaxDevicesPerSite   int `json:"max_devices_per_site" yaml:"max_devices_per_site"`
	MaxServersPerSite   int `json:"max_servers_per_site" yaml:"max_servers_per_site"`
	MaxDevicesPerServer int `json:"max_devices_per_server" yaml:"max_devices_per_server"`
}

// DefaultSiteConstraints mirrors the product ceiling of 10 servers at 256
// devices each.
func DefaultSiteConstraints() SiteConstraints {
	return SiteConstraints{
		MaxDevicesPerSite:   2560,
		MaxServersPerSite:   10,
		MaxDevicesPerServer: 256,
	}
}

// CalculationRequest is the full declarative input for one sizing run.
type CalculationRequest struct {
	ProjectName  string           `json:"project_name"`
	ContactEmail string           `json:"contact_email,omitempty"`
	CameraGroups []CameraGroup    `json:"camera_groups"`
	Retention    RetentionPolicy  `json:"retention"`
	CPUVariant   string           `json:"cpu_variant"`
	Server       ServerConfig     `json:"server"`
	Sites        *SiteConstraints `json:"sites,omitempty"`
	BrandFactor  float64          `json:"brand_factor,omitempty"`
	LowMotionPct float64          `json:"low_motion_quality_pct,omitempty"`
}

// GroupResult is the per-camera-group slice of a CalculationResult.
type GroupResult struct {
	Name            string  `json:"name,omitempty"`
	Count           int     `json:"count"`
	AvgBitrateKbps  float64 `json:"avg_bitrate_kbps"`
	PeakBitrateKbps float64 `json:"peak_bitrate_kbps"`
	DailyStorageGB  float64 `json:"daily_storage_gb"`
	TotalStorageGB  float64 `json:"total_storage_gb"`
	RecordingFactor float64 `json:"recording_factor"`
}

// ServerPlan reports the planner's sizing decision for one site.
type ServerPlan struct {
	ServersNeeded       int     `json:"servers_needed"`
	ServersWithFailover int     `json:"servers_with_failover"`
	ByDevices           int     `json:"by_devices"`
	ByBandwidth         int     `json:"by_bandwidth"`
	ByStorage           int     `json:"by_storage"`
	DevicesPerServer    int     `json:"devices_per_server"`
	Distribution        []int   `json:"distribution,omitempty"`
	RAMPerServerGB      int     `json:"ram_per_server_gb"`
	FailoverCapacity    int     `json:"failover_capacity,omitempty"`
	LimitingFactor      string  `json:"limiting_factor"`
	RAMUtilizationPct   float64 `json:"ram_utilization_pct"`
	CPUUtilizationPct   float64 `json:"cpu_utilization_pct"`
	NICUtilizationPct   float64 `json:"nic_utilization_pct"`
	HDDUtilizationPct   float64 `json:"hdd_utilization_pct"`
	RecommendedTier     string  `json:"recommended_tier,omitempty"`
}

// BandwidthPlan reports NIC sizing. RequiredNICs and UtilizationPct are
// per server; TotalPeakMbps is the whole site's ingest peak.
type BandwidthPlan struct {
	TotalPeakMbps  float64 `json:"total_peak_mbps"`
	PerServerMbps  float64 `json:"per_server_mbps"`
	RequiredNICs   int     `json:"required_nics"`
	UtilizationPct float64 `json:"utilization_pct"`
	EgressMbps     float64 `json:"egress_mbps,omitempty"`
	RecommendedNIC string  `json:"recommended_nic,omitempty"`
}

// StoragePlan reports storage sizing for one site. RecordingGB is the
// usable capacity recordings occupy over the retention window; RawNeededGB
// is what must be provisioned once RAID and filesystem overhead are paid;
// WithFailoverGB additionally covers failover spare copies.
type StoragePlan struct {
	RecordingGB    float64 `json:"recording_gb"`
	RawNeededGB    float64 `json:"raw_needed_gb"`
	WithFailoverGB float64 `json:"with_failover_gb"`
}

// LicensePlan counts recording vs live-view licenses.
type LicensePlan struct {
	Professional int `json:"professional"`
	LiveOnly     int `json:"live_only"`
	Total        int `json:"total"`
}

// SiteResult is the pipeline output for a single site.
type SiteResult struct {
	SiteIndex int           `json:"site_index"`
	Devices   int           `json:"devices"`
	Groups    []GroupResult `json:"groups"`
	Storage   StoragePlan   `json:"storage"`
	Servers   ServerPlan    `json:"servers"`
	Bandwidth BandwidthPlan `json:"bandwidth"`
	Warnings  []string      `json:"warnings,omitempty"`
	Errors    []string      `json:"errors,omitempty"`
}

// CalculationResult is the aggregate answer for a request. It is built
// once and never mutated afterwards; callers own their copy.
type CalculationResult struct {
	ID            uuid.UUID     `json:"id"`
	ProjectName   string        `json:"project_name"`
	CreatedAt     time.Time     `json:"created_at"`
	TotalDevices  int           `json:"total_devices"`
	TotalAvgMbps  float64       `json:"total_avg_mbps"`
	TotalPeakMbps float64       `json:"total_peak_mbps"`
	Storage       StoragePlan   `json:"storage"`
	Servers       ServerPlan    `json:"servers"`
	Bandwidth     BandwidthPlan `json:"bandwidth"`
	Licenses      LicensePlan   `json:"licenses"`
	Groups        []GroupResult `json:"groups"`
	Sites         []SiteResult  `json:"sites,omitempty"`
	Warnings      []string      `json:"warnings,omitempty"`
	Errors        []string      `json:"errors,omitempty"`
	Feasible      bool          `json:"feasible"`
}

// TotalDeviceCount sums camera counts across groups.
func (r CalculationRequest) TotalDeviceCount() int {
	total := 0
	for _, g := range r.CameraGroups {
		total += g.Count
	}
	return total
}
