package floodprobe

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/pkg/errors"
)

// WriteJSON emits one structured run result for external tooling.
func WriteJSON(w io.Writer, result *RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(result), "encode run result")
}

var reportFuncs = template.FuncMap{
	"pct": func(v float64) string {
		return fmt.Sprintf("%.1f%%", v*100)
	},
	"ms": func(d time.Duration) string {
		return d.Round(time.Millisecond).String()
	},
}

const reportTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Hybrid Attack + Load Report</title>
<style>
body { font-family: Arial, sans-serif; margin: 20px; background: #f5f5f5; }
.container { max-width: 1100px; margin: 0 auto; background: white; padding: 20px; border-radius: 8px; }
h1 { color: #d32f2f; }
h2 { color: #1976d2; margin-top: 30px; }
.run { margin: 20px 0; padding: 15px; border-left: 4px solid #1976d2; background: #f9f9f9; }
.run.critical { border-left-color: #f44336; }
.run.elevated { border-left-color: #ff9800; }
.metric { display: inline-block; margin: 8px 16px 8px 0; padding: 8px; background: #e3f2fd; border-radius: 4px; }
.critical-banner { background: #ffebee; color: #c62828; font-weight: bold; padding: 10px; }
table { width: 100%; border-collapse: collapse; margin: 12px 0; }
th, td { padding: 8px; text-align: left; border-bottom: 1px solid #ddd; }
th { background: #1976d2; color: white; }
</style>
</head>
<body>
<div class="container">
<h1>Hybrid Attack + Load Report</h1>
<p><strong>Generated:</strong> {{.GeneratedAt.Format "2006-01-02 15:04:05"}}</p>
{{range .Results}}
<div class="run{{if .Verdict}}{{if eq .Verdict.Risk "critical"}} critical{{else if eq .Verdict.Risk "elevated"}} elevated{{end}}{{end}}">
<h2>{{.Target}}{{.Endpoint}}</h2>
<p><strong>Run:</strong> {{.ID}} — state {{.State}}{{if .AbortReason}} ({{.AbortReason}}){{end}}</p>
{{if .Loading}}
<h3>Load Phase</h3>
<div class="metric">Requests: {{.Loading.Stats.Count}}</div>
<div class="metric">Success rate: {{pct .Loading.Stats.SuccessRate}}</div>
<div class="metric">Avg latency: {{ms .Loading.Stats.AvgLatency}}</div>
<div class="metric">p95 latency: {{ms .Loading.Stats.P95Latency}}</div>
<div class="metric">Grade: {{.Loading.Grade}}</div>
{{if .Loading.Stressed}}<div class="metric">Target stressed under load</div>{{end}}
{{end}}
{{if .Verdict}}
{{if eq .Verdict.Risk "critical"}}<div class="critical-banner">CRITICAL: attacks were more successful under load</div>{{end}}
<h3>Comparison</h3>
<div class="metric">Baseline success: {{pct .Verdict.BaselineSuccessRate}}</div>
<div class="metric">Under load: {{pct .Verdict.UnderLoadSuccessRate}}</div>
<div class="metric">Delta: {{pct .Verdict.Delta}}</div>
<div class="metric">Risk: {{.Verdict.Risk}}</div>
{{if .Verdict.NewEvidence}}
<p><strong>Evidence only seen under load:</strong></p>
<ul>{{range .Verdict.NewEvidence}}<li>{{.}}</li>{{end}}</ul>
{{end}}
{{end}}
{{if .UnderLoad}}
<h3>Attacks Under Load</h3>
<table>
<tr><th>Kind</th><th>Payload</th><th>Status</th><th>Latency</th><th>Evidence</th></tr>
{{range .UnderLoad.Attempts}}
<tr><td>{{.Payload.Kind}}</td><td>{{.Payload.Literal}}</td><td>{{.Outcome.StatusCode}}</td><td>{{ms .Outcome.Latency}}</td><td>{{if .Matched}}{{.Evidence}}{{else}}—{{end}}</td></tr>
{{end}}
</table>
{{end}}
</div>
{{end}}
</div>
</body>
</html>
`

// RenderHTML writes an HTML report covering the given runs.
func RenderHTML(w io.Writer, results []*RunResult) error {
	tmpl, err := template.New("report").Funcs(reportFuncs).Parse(reportTemplate)
	if err != nil {
		return errors.Wrap(err, "parse report template")
	}
	data := struct {
		GeneratedAt time.Time
		Results     []*RunResult
	}{
		GeneratedAt: time.Now(),
		Results:     results,
	}
	return errors.Wrap(tmpl.Execute(w, data), "render report")
}
