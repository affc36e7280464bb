package servers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/technosupport/ts-sizer/internal/calc"
)

var armHardware = calc.HardwareProfile{
	CPUVariant:          "arm",
	MaxCamerasPerServer: 12,
	NICBitrateMbps:      600,
	RAMOsMB:             128,
}

var serverHardware = calc.HardwareProfile{
	CPUVariant:          "core_i5",
	MaxCamerasPerServer: 128,
	NICBitrateMbps:      1000,
	RAMOsMB:             1024,
}

func baseConfig() calc.ServerConfig {
	return calc.ServerConfig{
		NICCount:        1,
		NICCapacityMbps: 1000,
		Failover:        calc.FailoverNone,
	}
}

func TestRequiredRAMMB(t *testing.T) {
	// 40 MB per camera on top of the OS reservation.
	assert.Equal(t, 1024+10*calc.RAMPerCameraMB, RequiredRAMMB(10, serverHardware, false))

	// Hosting the desktop client reserves another 3 GB.
	assert.Equal(t, 1024+calc.ClientRAMMB+10*calc.RAMPerCameraMB, RequiredRAMMB(10, serverHardware, true))
}

func TestRoundRAMGB(t *testing.T) {
	cases := []struct {
		mb   int
		want int
	}{
		{512, 1},
		{1024, 1},
		{1025, 2},
		{3000, 4},
		{9000, 16},
		{40000, 64},
		{65536, 64},
	}
	for _, tc := range cases {
		got, ok := RoundRAMGB(tc.mb)
		assert.True(t, ok, "mb=%d", tc.mb)
		assert.Equal(t, tc.want, got, "mb=%d", tc.mb)
	}

	// Above the cap is infeasible, not clamped.
	got, ok := RoundRAMGB(70000)
	assert.False(t, ok)
	assert.Equal(t, calc.MaxRAMGB, got)
}

func TestEffectiveMaxDevices(t *testing.T) {
	// Light cameras keep the base cap.
	assert.Equal(t, 256, EffectiveMaxDevices(1920*1080, 4000, 30, 256))

	// 8 MP derates to 128, 12 MP to 96.
	assert.Equal(t, 128, EffectiveMaxDevices(8_000_000, 4000, 30, 256))
	assert.Equal(t, 96, EffectiveMaxDevices(12_100_000, 4000, 30, 256))

	// Heavy bitrates derate the same way.
	assert.Equal(t, 128, EffectiveMaxDevices(1920*1080, 9000, 30, 256))
	assert.Equal(t, 96, EffectiveMaxDevices(1920*1080, 13000, 30, 256))

	// High frame rate knocks 20% off whatever cap remains.
	assert.Equal(t, 204, EffectiveMaxDevices(1920*1080, 4000, 60, 256))
	assert.Equal(t, 102, EffectiveMaxDevices(8_000_000, 4000, 60, 256))
}

func TestPlan_DeviceBound(t *testing.T) {
	// 50 cameras on 12-camera ARM boxes: the device bound dominates.
	plan, errs, err := Plan(Input{
		TotalCameras:      50,
		TotalPeakMbps:     25,
		PeakPerCameraMbps: 0.5,
		Hardware:          armHardware,
		Server:            baseConfig(),
	})
	assert.NoError(t, err)
	assert.Empty(t, errs)

	assert.Equal(t, 5, plan.ByDevices) // ceil(50/12)
	assert.Equal(t, 5, plan.ServersNeeded)
	assert.Equal(t, 10, plan.DevicesPerServer)
	assert.Equal(t, []int{10, 10, 10, 10, 10}, plan.Distribution)
	assert.Equal(t, FactorCPU, plan.LimitingFactor)
}

func TestPlan_BandwidthBound(t *testing.T) {
	// 3.2 Gbps of peak through 1 Gbps NICs with 20% headroom: ceil(3200/800)=4.
	plan, errs, err := Plan(Input{
		TotalCameras:      100,
		TotalPeakMbps:     3200,
		PeakPerCameraMbps: 32,
		Hardware:          serverHardware,
		Server:            baseConfig(),
	})
	assert.NoError(t, err)
	assert.Empty(t, errs)

	assert.Equal(t, 1, plan.ByDevices)
	assert.Equal(t, 4, plan.ByBandwidth)
	assert.Equal(t, 16, plan.ByStorage) // ceil(3200/204)
	assert.Equal(t, 16, plan.ServersNeeded)
}

func TestPlan_RAMInfeasible(t *testing.T) {
	// 1600 cameras on one server would need 64 GB+ of RAM.
	hw := serverHardware
	hw.MaxCamerasPerServer = 2000

	plan, errs, err := Plan(Input{
		TotalCameras:      1700,
		TotalPeakMbps:     10,
		PeakPerCameraMbps: 0.005,
		Hardware:          hw,
		Server:            baseConfig(),
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, errs, "expected RAM infeasibility")
	assert.Equal(t, calc.MaxRAMGB, plan.RAMPerServerGB)
}

func TestPlan_FailoverMultipliers(t *testing.T) {
	in := Input{
		TotalCameras:      50,
		TotalPeakMbps:     100,
		PeakPerCameraMbps: 2,
		Hardware:          serverHardware,
		Server:            baseConfig(),
	}

	plan, _, err := Plan(in)
	assert.NoError(t, err)
	assert.Equal(t, plan.ServersNeeded, plan.ServersWithFailover)

	in.Server.Failover = calc.FailoverNPlus1
	plan, _, err = Plan(in)
	assert.NoError(t, err)
	assert.Equal(t, 2*plan.ServersNeeded, plan.ServersWithFailover)

	in.Server.Failover = calc.FailoverNPlus2
	plan, _, err = Plan(in)
	assert.NoError(t, err)
	assert.Equal(t, 3*plan.ServersNeeded, plan.ServersWithFailover)
}

func TestPlan_Validation(t *testing.T) {
	in := Input{
		TotalCameras:      0,
		TotalPeakMbps:     10,
		PeakPerCameraMbps: 1,
		Hardware:          serverHardware,
		Server:            baseConfig(),
	}
	_, _, err := Plan(in)
	assert.Error(t, err)

	in.TotalCameras = 10
	in.Server.NICCount = 0
	_, _, err = Plan(in)
	assert.Error(t, err)
}

func TestFailoverCapacity_NeverBelowServed(t *testing.T) {
	in := SearchInput{
		PeakPerCameraMbps: 50, // heavy streams, NIC saturates immediately
		Hardware:          serverHardware,
		AvailableRAMGB:    16,
		NICCount:          1,
		NICCapacityMbps:   100,
		MaxStorageDevices: 12,
	}
	got := FailoverCapacity(in, 10)
	assert.Equal(t, 10, got, "capacity must not drop below the load already served")
}

func TestFailoverCapacity_MonotoneInResources(t *testing.T) {
	base := SearchInput{
		PeakPerCameraMbps: 4,
		Hardware:          serverHardware,
		AvailableRAMGB:    8,
		NICCount:          1,
		NICCapacityMbps:   1000,
		MaxStorageDevices: 12,
	}

	small := FailoverCapacity(base, 0)

	moreNIC := base
	moreNIC.NICCount = 4
	assert.GreaterOrEqual(t, FailoverCapacity(moreNIC, 0), small)

	moreRAM := base
	moreRAM.AvailableRAMGB = 64
	assert.GreaterOrEqual(t, FailoverCapacity(moreRAM, 0), small)
}

func TestFailoverCapacity_BoundedByHardwareCap(t *testing.T) {
	in := SearchInput{
		PeakPerCameraMbps: 0.001, // nothing else ever binds
		Hardware:          armHardware,
		AvailableRAMGB:    64,
		NICCount:          8,
		NICCapacityMbps:   10000,
		MaxStorageDevices: 100,
	}
	// The search reaches the 12-camera hardware cap and backs off one.
	got := FailoverCapacity(in, 0)
	assert.Equal(t, armHardware.MaxCamerasPerServer-1, got)
}

func TestDistributeDevices(t *testing.T) {
	assert.Equal(t, []int{10, 10, 10, 10, 10}, DistributeDevices(50, 5))
	assert.Equal(t, []int{13, 13, 13, 11}, DistributeDevices(50, 4))
	assert.Equal(t, []int{1, 0, 0}, DistributeDevices(1, 3))

	sum := 0
	for _, n := range DistributeDevices(2600, 11) {
		sum += n
	}
	assert.Equal(t, 2600, sum)
}
