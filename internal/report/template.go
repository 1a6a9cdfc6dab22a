package report

import (
	"embed"
	"encoding/json"
	"html/template"
)

//go:embed report.html.tmpl
var templateFS embed.FS

var reportTemplate = template.Must(template.ParseFS(templateFS, "report.html.tmpl"))

// chartJSON marshals a Chart.js configuration object into a value safe
// to interpolate verbatim inside a <script> tag. Chart.js itself stays
// client-side JS, never a Go dependency (see DESIGN.md); this only
// produces the data payload it consumes.
func chartJSON(cfg map[string]any) template.JS {
	data, err := json.Marshal(cfg)
	if err != nil {
		return template.JS("{}")
	}
	return template.JS(data)
}
