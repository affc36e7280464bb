// Package multisite partitions a deployment across sites under per-site
// capacity caps and runs the full sizing pipeline once per site.
package multisite

import (
	"fmt"

	"github.com/technosupport/ts-sizer/internal/calc"
	"github.com/technosupport/ts-sizer/internal/calc/engine"
	"github.com/technosupport/ts-sizer/internal/catalog"
)

// Approaching-capacity thresholds. Crossing them warns; exceeding the hard
// caps errors.
const (
	deviceWarnFraction = 0.9
	serverWarnFraction = 0.8
)

// Distributor runs the per-site pipeline via the shared engine.
type Distributor struct {
	engine *engine.Engine
}

func New(e *engine.Engine) *Distributor {
	return &Distributor{engine: e}
}

// SiteTotals fills sites to the per-site cap, last site takes the
// remainder: 2600 devices at cap 2560 become [2560, 40].
func SiteTotals(totalDevices, maxDevicesPerSite int) ([]int, error) {
	if totalDevices < 1 {
		return nil, calc.Invalid("total_devices", "must be at least 1")
	}
	if maxDevicesPerSite < 1 {
		return nil, calc.Invalid("max_devices_per_site", "must be at least 1")
	}
	sitesNeeded := (totalDevices + maxDevicesPerSite - 1) / maxDevicesPerSite
	out := make([]int, sitesNeeded)
	remaining := totalDevices
	for i := range out {
		if remaining > maxDevicesPerSite {
			out[i] = maxDevicesPerSite
			remaining -= maxDevicesPerSite
		} else {
			out[i] = remaining
			remaining = 0
		}
	}
	return out, nil
}

// SplitGroups partitions each camera group across the site totals
// proportionally to the group's share of the total, rounding down and
// handing remainder units to the earliest sites with room. Every group's
// allocations sum exactly to its count; no camera is lost or duplicated.
func SplitGroups(groups []calc.CameraGroup, siteTotals []int, totalDevices int) [][]calc.CameraGroup {
	perSite := make([][]calc.CameraGroup, len(siteTotals))
	assigned := make([]int, len(siteTotals))

	for _, g := range groups {
		alloc := make([]int, len(siteTotals))
		allocated := 0
		for i, siteTotal := range siteTotals {
			share := g.Count * siteTotal / totalDevices // floor
			alloc[i] = share
			allocated += share
		}
		// Remainder to the earliest sites that still have room.
		for rem := g.Count - allocated; rem > 0; {
			placed := false
			for i := range siteTotals {
				if rem == 0 {
					break
				}
				if assigned[i]+alloc[i] < siteTotals[i] {
					alloc[i]++
					rem--
					placed = true
				}
			}
			if !placed {
				// All sites at their totals; spill to the first site so
				// the exact-sum invariant holds over everything else.
				alloc[0] += rem
				rem = 0
			}
		}

		for i, n := range alloc {
			assigned[i] += n
			if n == 0 {
				continue
			}
			sub := g
			sub.Count = n
			perSite[i] = append(perSite[i], sub)
		}
	}
	return perSite
}

// Run partitions the request across sites, sizes each independently and
// aggregates totals and diagnostics.
func (d *Distributor) Run(req calc.CalculationRequest, cat *catalog.Catalog) (*calc.CalculationResult, error) {
	constraints := calc.DefaultSiteConstraints()
	if req.Sites != nil {
		constraints = *req.Sites
	}
	if constraints.MaxDevicesPerSite < 1 || constraints.MaxServersPerSite < 1 || constraints.MaxDevicesPerServer < 1 {
		return nil, calc.Invalid("sites", "site constraints must be positive")
	}

	totalDevices := req.TotalDeviceCount()
	siteTotals, err := SiteTotals(totalDevices, constraints.MaxDevicesPerSite)
	if err != nil {
		return nil, err
	}
	perSiteGroups := SplitGroups(req.CameraGroups, siteTotals, totalDevices)

	aggregate := &calc.CalculationResult{
		ProjectName: req.ProjectName,
	}

	for i, groups := range perSiteGroups {
		siteReq := req
		siteReq.CameraGroups = groups
		siteReq.Sites = nil

		siteResult, err := d.engine.Run(siteReq, cat)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			aggregate.ID = siteResult.ID
			aggregate.CreatedAt = siteResult.CreatedAt
		}

		site := calc.SiteResult{
			SiteIndex: i + 1,
			Devices:   siteResult.TotalDevices,
			Groups:    siteResult.Groups,
			Storage:   siteResult.Storage,
			Servers:   siteResult.Servers,
			Bandwidth: siteResult.Bandwidth,
			Warnings:  siteResult.Warnings,
			Errors:    siteResult.Errors,
		}
		d.validateSite(&site, constraints)

		aggregate.Sites = append(aggregate.Sites, site)
		aggregate.TotalDevices += site.Devices
		aggregate.TotalAvgMbps += siteResult.TotalAvgMbps
		aggregate.TotalPeakMbps += siteResult.TotalPeakMbps
		aggregate.Storage.RecordingGB += siteResult.Storage.RecordingGB
		aggregate.Storage.RawNeededGB += siteResult.Storage.RawNeededGB
		aggregate.Storage.WithFailoverGB += siteResult.Storage.WithFailoverGB
		aggregate.Servers.ServersNeeded += siteResult.Servers.ServersNeeded
		aggregate.Servers.ServersWithFailover += siteResult.Servers.ServersWithFailover
		aggregate.Licenses.Professional += siteResult.Licenses.Professional
		aggregate.Licenses.LiveOnly += siteResult.Licenses.LiveOnly
		aggregate.Licenses.Total += siteResult.Licenses.Total

		for _, w := range site.Warnings {
			aggregate.Warnings = append(aggregate.Warnings, fmt.Sprintf("site %d: %s", site.SiteIndex, w))
		}
		for _, e := range site.Errors {
			aggregate.Errors = append(aggregate.Errors, fmt.Sprintf("site %d: %s", site.SiteIndex, e))
		}
	}

	aggregate.Feasible = len(aggregate.Errors) == 0
	return aggregate, nil
}

// validateSite checks one sized site against the hard caps and the
// approaching-capacity thresholds.
func (d *Distributor) validateSite(site *calc.SiteResult, c calc.SiteConstraints) {
	if site.Devices > c.MaxDevicesPerSite {
		site.Errors = append(site.Errors, fmt.Sprintf(
			"%d devices exceed the per-site maximum of %d", site.Devices, c.MaxDevicesPerSite))
	}
	if site.Servers.ServersWithFailover > c.MaxServersPerSite {
		site.Errors = append(site.Errors, fmt.Sprintf(
			"%d servers exceed the per-site maximum of %d", site.Servers.ServersWithFailover, c.MaxServersPerSite))
	}
	if site.Servers.DevicesPerServer > c.MaxDevicesPerServer {
		site.Errors = append(site.Errors, fmt.Sprintf(
			"%d devices per server exceed the maximum of %d", site.Servers.DevicesPerServer, c.MaxDevicesPerServer))
	}
	if float64(site.Devices) > float64(c.MaxDevicesPerSite)*deviceWarnFraction {
		site.Warnings = append(site.Warnings, fmt.Sprintf(
			"site is at %d of %d devices", site.Devices, c.MaxDevicesPerSite))
	}
	if float64(site.Servers.ServersWithFailover) > float64(c.MaxServersPerSite)*serverWarnFraction {
		site.Warnings = append(site.Warnings, fmt.Sprintf(
			"site is using %d of %d servers", site.Servers.ServersWithFailover, c.MaxServersPerSite))
	}
}
