// Package web holds the embedded HTML templates and their helpers.
package web

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templatesFS embed.FS

var funcMap = template.FuncMap{
	"formatTime":  FormatTime,
	"formatVolt":  FormatVoltage,
	"statusClass": StatusClass,
}

// Templates is the parsed template set for all pages.
var Templates = template.Must(
	template.New("devpulse").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html"),
)

// Render executes the named page template into w.
func Render(w io.Writer, name string, data any) error {
	return Templates.ExecuteTemplate(w, name, data)
}
