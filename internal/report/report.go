// Package report renders a calculation result as a plain-text summary
// suitable for email bodies and the report download endpoint.
package report

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/technosupport/ts-sizer/internal/calc"
)

const summaryText = `System Sizing Report - {{.ProjectName}}
Generated: {{.CreatedAt.Format "2006-01-02 15:04 UTC"}}

SUMMARY
  Devices:         {{.TotalDevices}}
  Servers needed:  {{.Servers.ServersNeeded}}{{if gt .Servers.ServersWithFailover .Servers.ServersNeeded}} (+{{sub .Servers.ServersWithFailover .Servers.ServersNeeded}} failover){{end}}
  Recording:       {{printf "%.2f" .Storage.RecordingGB}} GB
  Raw storage:     {{printf "%.2f" .Storage.RawNeededGB}} GB
  Avg bandwidth:   {{printf "%.2f" .TotalAvgMbps}} Mbps
  Peak bandwidth:  {{printf "%.2f" .TotalPeakMbps}} Mbps
  Licenses:        {{.Licenses.Professional}} professional, {{.Licenses.LiveOnly}} live-only
  Feasible:        {{if .Feasible}}yes{{else}}NO{{end}}

CAMERA GROUPS{{range .Groups}}
  {{groupName .}}: {{.Count}} camera(s), {{printf "%.1f" .AvgBitrateKbps}} kbps avg, {{printf "%.2f" .TotalStorageGB}} GB{{end}}
{{- if .Sites}}

SITES{{range $i, $s := .Sites}}
  Site {{inc $i}}: {{$s.Devices}} device(s), {{$s.Servers.ServersNeeded}} server(s), {{printf "%.2f" $s.Storage.RawNeededGB}} GB{{end}}
{{- end}}
{{- if .Warnings}}

WARNINGS{{range .Warnings}}
  - {{.}}{{end}}
{{- end}}
{{- if .Errors}}

ERRORS{{range .Errors}}
  - {{.}}{{end}}
{{- end}}
`

var summaryTmpl = template.Must(template.New("summary").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"sub": func(a, b int) int { return a - b },
	"groupName": func(g calc.GroupResult) string {
		if g.Name != "" {
			return g.Name
		}
		return "group"
	},
}).Parse(summaryText))

// Render produces the text report for a result.
func Render(result *calc.CalculationResult) (string, error) {
	var buf bytes.Buffer
	if err := summaryTmpl.Execute(&buf, result); err != nil {
		return "", err
	}
	return strings.TrimLeft(buf.String(), "\n"), nil
}
