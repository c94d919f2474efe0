package report

import (
	"fmt"
	"io"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
)

const defaultTextTemplate = `{{ .Exercise }}
{{ repeat (len .Exercise) "=" }}
{{- range .Submissions }}

{{ .Name }}: {{ .Passed }}/{{ .Total }} passed{{ if .Total }} ({{ div (mul .Passed 100) .Total }}%){{ end }}
{{- range .Results }}{{ if or $.ShowPassed (not .Passed) }}
  {{ .Message }}{{ end }}{{ end }}
{{- range .Diagnostics }}
  ! {{ . }}{{ end }}
{{- end }}
{{- if gt (len .Submissions) 1 }}

Total: {{ .TotalPassed }}/{{ .Total }} passed
{{- end }}
`

// textValues is what text template sees.
type textValues struct {
	*Report
	ShowPassed  bool
	TotalPassed int
	Total       int
}

func (r *Report) writeText(w io.Writer, o options) error {
	src := o.textTemplate
	if len(src) == 0 {
		src = defaultTextTemplate
	}
	tmpl, err := template.New("report").Funcs(sprig.FuncMap()).Parse(src)
	if err != nil {
		return fmt.Errorf("unable to parse text report template: %w", err)
	}

	values := textValues{Report: r, ShowPassed: o.showPassed}
	values.TotalPassed, values.Total = r.Totals()

	if err := tmpl.Execute(w, values); err != nil {
		return fmt.Errorf("unable to render text report: %w", err)
	}
	return nil
}
