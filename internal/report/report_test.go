package report

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/technosupport/ts-sizer/internal/calc"
)

func sampleResult() *calc.CalculationResult {
	return &calc.CalculationResult{
		ID:            uuid.MustParse("2e9f0d0a-9e5c-4a5c-9d8e-000000000001"),
		ProjectName:   "hq retrofit",
		CreatedAt:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		TotalDevices:  100,
		TotalAvgMbps:  38.29,
		TotalPeakMbps: 45.95,
		Storage: calc.StoragePlan{
			RecordingGB: 11832.57,
			RawNeededGB: 18590.06,
		},
		Servers: calc.ServerPlan{
			ServersNeeded:       2,
			ServersWithFailover: 4,
		},
		Licenses: calc.LicensePlan{Professional: 90, LiveOnly: 10, Total: 100},
		Groups: []calc.GroupResult{
			{Name: "lobby", Count: 60, AvgBitrateKbps: 382.9, TotalStorageGB: 7099.5},
			{Count: 40, AvgBitrateKbps: 382.9, TotalStorageGB: 4733.1},
		},
		Feasible: true,
	}
}

func TestRender(t *testing.T) {
	out, err := Render(sampleResult())
	assert.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "System Sizing Report - hq retrofit\n"))
	assert.Contains(t, out, "Generated: 2025-06-01 12:00 UTC")
	assert.Contains(t, out, "Devices:         100")
	assert.Contains(t, out, "Servers needed:  2 (+2 failover)")
	assert.Contains(t, out, "Recording:       11832.57 GB")
	assert.Contains(t, out, "Raw storage:     18590.06 GB")
	assert.Contains(t, out, "Licenses:        90 professional, 10 live-only")
	assert.Contains(t, out, "Feasible:        yes")
	assert.Contains(t, out, "lobby: 60 camera(s), 382.9 kbps avg, 7099.50 GB")
	// Unnamed groups fall back to a placeholder.
	assert.Contains(t, out, "group: 40 camera(s)")
	assert.NotContains(t, out, "WARNINGS")
	assert.NotContains(t, out, "ERRORS")
	assert.NotContains(t, out, "SITES")
}

func TestRender_NoFailoverSuffix(t *testing.T) {
	r := sampleResult()
	r.Servers.ServersWithFailover = r.Servers.ServersNeeded
	out, err := Render(r)
	assert.NoError(t, err)
	assert.Contains(t, out, "Servers needed:  2\n")
	assert.NotContains(t, out, "failover")
}

func TestRender_SitesAndDiagnostics(t *testing.T) {
	r := sampleResult()
	r.Sites = []calc.SiteResult{
		{SiteIndex: 1, Devices: 2560, Servers: calc.ServerPlan{ServersNeeded: 10}, Storage: calc.StoragePlan{RawNeededGB: 100000}},
		{SiteIndex: 2, Devices: 40, Servers: calc.ServerPlan{ServersNeeded: 1}, Storage: calc.StoragePlan{RawNeededGB: 1562.5}},
	}
	r.Warnings = []string{"site 1: site is at 2560 of 2560 devices"}
	r.Errors = []string{"site 1: bandwidth exceeds capacity"}
	r.Feasible = false

	out, err := Render(r)
	assert.NoError(t, err)
	assert.Contains(t, out, "SITES")
	assert.Contains(t, out, "Site 1: 2560 device(s), 10 server(s), 100000.00 GB")
	assert.Contains(t, out, "Site 2: 40 device(s), 1 server(s), 1562.50 GB")
	assert.Contains(t, out, "WARNINGS\n  - site 1: site is at 2560 of 2560 devices")
	assert.Contains(t, out, "ERRORS\n  - site 1: bandwidth exceeds capacity")
	assert.Contains(t, out, "Feasible:        NO")
}
