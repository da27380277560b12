package health

import (
	"bytes"
	"html/template"
	"sort"
)

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>{{.Service}} · Status</title>
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <meta http-equiv="refresh" content="30">
  <style>
    :root { --green: #1f7a4d; --dark: #15302a; --muted: #64748b; --bad: #dc2626; }
    body { background: #f6f8f7; color: var(--dark); font-family: system-ui, sans-serif; margin: 0; padding: 40px 20px; }
    .wrap { max-width: 960px; margin: 0 auto; }
    h1 { font-size: 40px; letter-spacing: -1px; margin: 0 0 8px; }
    h1.issue { color: var(--bad); }
    .sub { color: var(--muted); font-weight: 600; margin-bottom: 28px; }
    .grid { display: grid; grid-template-columns: repeat(3, 1fr); gap: 16px; }
    .card { background: #fff; border-radius: 16px; padding: 24px; box-shadow: 0 10px 30px -12px rgba(21,48,42,.15); }
    .label { text-transform: uppercase; font-size: 11px; font-weight: 800; letter-spacing: 2px; color: #94a3b8; margin-bottom: 16px; }
    .big { font-size: 34px; font-weight: 900; margin-bottom: 8px; }
    .row { display: flex; justify-content: space-between; padding: 6px 0; font-size: 14px; font-weight: 600; border-bottom: 1px solid #f1f5f9; }
    .row:last-child { border-bottom: none; }
    .ok { color: var(--green); }
    .err { color: var(--bad); }
    footer { margin-top: 24px; font-family: monospace; font-size: 13px; color: var(--muted); }
    @media (max-width: 800px) { .grid { grid-template-columns: 1fr; } }
  </style>
</head>
<body>
  <div class="wrap">
    {{if eq .Status "ok"}}<h1>All Systems Operational</h1>{{else}}<h1 class="issue">System Issues Detected</h1>{{end}}
    <div class="sub">Live view of {{.Service}}. Raw data at <a href="/health/json">/health/json</a>, recent failures at <a href="/health/errors">/health/errors</a>.</div>
    <div class="grid">
      <div class="card">
        <div class="label">Traffic</div>
        <div class="big">{{.Traffic.TotalRequests}}</div>
        <div class="row"><span>Successful</span><span class="ok">{{.Traffic.SuccessCount}}</span></div>
        <div class="row"><span>Failed</span><span class="err">{{.Traffic.FailedCount}}</span></div>
        <div class="row"><span>Success rate</span><span>{{.Traffic.SuccessRate}}%</span></div>
        <div class="row"><span>Avg latency</span><span>{{.Traffic.AvgResponseTime}}ms</span></div>
      </div>
      <div class="card">
        <div class="label">Runtime</div>
        <div class="big">{{.Runtime.UptimeSeconds}}s</div>
        <div class="row"><span>Heap used</span><span>{{.Runtime.Memory.HeapUsed}} MB</span></div>
        <div class="row"><span>Allocated</span><span>{{.Runtime.Memory.Alloc}} MB</span></div>
        <div class="row"><span>Goroutines</span><span>{{.Runtime.Goroutines}}</span></div>
        <div class="row"><span>Go</span><span>{{.Runtime.GoVersion}} {{.Runtime.Platform}}</span></div>
      </div>
      <div class="card">
        <div class="label">Dependencies</div>
        {{range .Deps}}<div class="row"><span>{{.Name}}</span><span class="{{if eq .Status "connected"}}ok{{else}}err{{end}}">{{.Status}}{{if .PingMs}} · {{.PingMs}} ms{{end}}</span></div>
        {{end}}
      </div>
    </div>
    {{with .Last}}<footer>last request: {{index . "method"}} {{index . "path"}} from {{index . "ip"}}</footer>{{end}}
  </div>
</body>
</html>`))

type dashDep struct {
	Name   string
	Status string
	PingMs int64
}

// RenderDashboard renders the HTML status page for a report.
func RenderDashboard(r Report) (string, error) {
	deps := make([]dashDep, 0, len(r.Dependencies))
	for name, d := range r.Dependencies {
		dd := dashDep{Name: name, Status: d.Status}
		if d.PingMs != nil {
			dd.PingMs = *d.PingMs
		}
		deps = append(deps, dd)
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })

	last, _ := r.Traffic.LastRequest.(map[string]interface{})
	var buf bytes.Buffer
	err := dashboardTmpl.Execute(&buf, struct {
		Report
		Deps []dashDep
		Last map[string]interface{}
	}{r, deps, last})
	return buf.String(), err
}
