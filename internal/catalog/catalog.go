// Package catalog loads and serves the read-only preset records the
// calculation engine resolves ids against: resolutions, codecs, RAID
// profiles, CPU variants, NIC types and server tiers.
//
// A Catalog is an immutable snapshot. Components receive it by value
// injection; nothing in the engine reaches for package-level state.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/technosupport/ts-sizer/internal/calc"
)

type Resolution struct {
	ID     string `yaml:"id" json:"id"`
	Name   string `yaml:"name" json:"name"`
	AreaPx int    `yaml:"area_px" json:"area_px"`
}

type Codec struct {
	ID    string          `yaml:"id" json:"id"`
	Name  string          `yaml:"name" json:"name"`
	Class calc.CodecClass `yaml:"class" json:"class"`
	Ratio float64         `yaml:"ratio" json:"ratio"`
	// QualityMultipliers carries the legacy per-label multipliers some
	// integrations still send. They are remapped at the boundary.
	QualityMultipliers map[string]float64 `yaml:"quality_multipliers,omitempty" json:"quality_multipliers,omitempty"`
}

type CPUVariant struct {
	ID                  string `yaml:"id" json:"id"`
	Name                string `yaml:"name" json:"name"`
	MaxCamerasPerServer int    `yaml:"max_cameras_per_server" json:"max_cameras_per_server"`
	NICBitrateMbps      int    `yaml:"nic_bitrate_mbps" json:"nic_bitrate_mbps"`
	RAMOsMB             int    `yaml:"ram_os_mb" json:"ram_os_mb"`
}

// HardwareProfile converts the preset record into the engine's value type.
func (v CPUVariant) HardwareProfile() calc.HardwareProfile {
	return calc.HardwareProfile{
		CPUVariant:          v.ID,
		MaxCamerasPerServer: v.MaxCamerasPerServer,
		NICBitrateMbps:      v.NICBitrateMbps,
		RAMOsMB:             v.RAMOsMB,
	}
}

type NICType struct {
	ID                      string `yaml:"id" json:"id"`
	Name                    string `yaml:"name" json:"name"`
	SpeedMbps               int    `yaml:"speed_mbps" json:"speed_mbps"`
	EffectiveThroughputMbps int    `yaml:"effective_throughput_mbps" json:"effective_throughput_mbps"`
}

type ServerTier struct {
	ID              string  `yaml:"id" json:"id"`
	Name            string  `yaml:"name" json:"name"`
	CPUVariant      string  `yaml:"cpu_variant" json:"cpu_variant"`
	RAMGB           int     `yaml:"ram_gb" json:"ram_gb"`
	MaxDevices      int     `yaml:"max_devices" json:"max_devices"`
	MaxBitrateMbps  float64 `yaml:"max_bitrate_mbps" json:"max_bitrate_mbps"`
	StorageType     string  `yaml:"storage_type" json:"storage_type"`
	RecommendedRAID string  `yaml:"recommended_raid" json:"recommended_raid"`
	NICs            int     `yaml:"nics" json:"nics"`
	NICSpeedMbps    int     `yaml:"nic_speed_mbps" json:"nic_speed_mbps"`
	UseCase         string  `yaml:"use_case,omitempty" json:"use_case,omitempty"`
}

// Catalog is one immutable preset snapshot.
type Catalog struct {
	resolutions map[string]Resolution
	codecs      map[string]Codec
	raids       map[string]calc.RAIDProfile
	cpus        map[string]CPUVariant
	nics        []NICType
	tiers       []ServerTier
}

type presetFile struct {
	Resolutions []Resolution       `yaml:"resolutions"`
	Codecs      []Codec            `yaml:"codecs"`
	RAIDTypes   []calc.RAIDProfile `yaml:"raid_types"`
	CPUVariants []CPUVariant       `yaml:"cpu_variants"`
	NICTypes    []NICType          `yaml:"nic_types"`
	ServerTiers []ServerTier       `yaml:"server_tiers"`
}

// Load reads every *.yaml file under dir and merges the preset sections.
func Load(dir string) (*Catalog, error) {
	entries, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("catalog: no preset files under %s", dir)
	}

	c := &Catalog{
		resolutions: make(map[string]Resolution),
		codecs:      make(map[string]Codec),
		raids:       make(map[string]calc.RAIDProfile),
		cpus:        make(map[string]CPUVariant),
	}

	for _, path := range entries {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("catalog: read %s: %w", path, err)
		}
		var f presetFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
		}
		for _, r := range f.Resolutions {
			c.resolutions[r.ID] = r
		}
		for _, cd := range f.Codecs {
			c.codecs[cd.ID] = cd
		}
		for _, rp := range f.RAIDTypes {
			c.raids[rp.ID] = rp
		}
		for _, cpu := range f.CPUVariants {
			c.cpus[cpu.ID] = cpu
		}
		c.nics = append(c.nics, f.NICTypes...)
		c.tiers = append(c.tiers, f.ServerTiers...)
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) validate() error {
	for id, r := range c.resolutions {
		if r.AreaPx <= 0 {
			return fmt.Errorf("catalog: resolution %s has non-positive area", id)
		}
	}
	for id, cd := range c.codecs {
		if cd.Ratio <= 0 {
			return fmt.Errorf("catalog: codec %s has non-positive ratio", id)
		}
		if cd.Class != calc.CodecPowerLaw && cd.Class != calc.CodecLinear {
			return fmt.Errorf("catalog: codec %s has unknown class %q", id, cd.Class)
		}
	}
	for id, rp := range c.raids {
		if rp.UsablePercentage <= 0 || rp.UsablePercentage > 100 {
			return fmt.Errorf("catalog: raid %s has invalid usable percentage", id)
		}
	}
	for id, cpu := range c.cpus {
		if cpu.MaxCamerasPerServer <= 0 {
			return fmt.Errorf("catalog: cpu variant %s has non-positive camera cap", id)
		}
	}
	return nil
}

// Resolution looks up a resolution preset. Missing ids are validation
// errors, never panics.
func (c *Catalog) Resolution(id string) (Resolution, error) {
	r, ok := c.resolutions[id]
	if !ok {
		return Resolution{}, calc.Invalid("resolution_id", "unknown resolution %q", id)
	}
	return r, nil
}

func (c *Catalog) Codec(id string) (Codec, error) {
	cd, ok := c.codecs[id]
	if !ok {
		return Codec{}, calc.Invalid("codec_id", "unknown codec %q", id)
	}
	return cd, nil
}

func (c *Catalog) RAID(id string) (calc.RAIDProfile, error) {
	rp, ok := c.raids[id]
	if !ok {
		return calc.RAIDProfile{}, calc.Invalid("raid_profile", "unknown RAID profile %q", id)
	}
	return rp, nil
}

func (c *Catalog) CPUVariant(id string) (CPUVariant, error) {
	cpu, ok := c.cpus[id]
	if !ok {
		return CPUVariant{}, calc.Invalid("cpu_variant", "unknown CPU variant %q", id)
	}
	return cpu, nil
}

// NICTypes returns NIC presets ordered as configured (smallest first).
func (c *Catalog) NICTypes() []NICType {
	out := make([]NICType, len(c.nics))
	copy(out, c.nics)
	return out
}

// ServerTiers returns tier presets ordered as configured (smallest first).
func (c *Catalog) ServerTiers() []ServerTier {
	out := make([]ServerTier, len(c.tiers))
	copy(out, c.tiers)
	return out
}

// Section returns one preset kind for the read-only config API. Slices
// come back sorted by id so responses are stable.
func (c *Catalog) Section(kind string) (any, error) {
	switch kind {
	case "resolutions":
		return sortedValues(c.resolutions, func(r Resolution) string { return r.ID }), nil
	case "codecs":
		return sortedValues(c.codecs, func(cd Codec) string { return cd.ID }), nil
	case "raid_types":
		return sortedValues(c.raids, func(rp calc.RAIDProfile) string { return rp.ID }), nil
	case "cpu_variants":
		return sortedValues(c.cpus, func(cpu CPUVariant) string { return cpu.ID }), nil
	case "nic_types":
		return c.NICTypes(), nil
	case "server_tiers":
		return c.ServerTiers(), nil
	}
	return nil, calc.Invalid("kind", "unknown preset kind %q", kind)
}

func sortedValues[T any](m map[string]T, id func(T) string) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return id(out[i]) < id(out[j]) })
	return out
}
