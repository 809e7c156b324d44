package narrative

import (
	"context"
	"strconv"
	"strings"
	"text/template"
)

var narrativeTemplate = template.Must(template.New("narrative").Funcs(template.FuncMap{
	"num": func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
}).Parse(`{{.GranteeName}} received {{if .Amount}}{{.Amount}}{{else}}a grant{{end}}{{if .ProgramName}} under the {{.ProgramName}} program{{end}}{{if .Purpose}} to {{.Purpose}}{{end}}.
{{- if .Period}} This report covers {{.Period}}.{{end}}
{{- range .Metrics}}
- {{.Key}}: {{num .Value}}{{if .Unit}} {{.Unit}}{{end}}{{if gt .Target 0.0}} of a {{num .Target}} target{{end}}
{{- end}}
`))

// TemplateGenerator renders a deterministic narrative from the input fields.
type TemplateGenerator struct{}

// Name identifies the generator in drafts.
func (TemplateGenerator) Name() string { return "template" }

// Generate renders the narrative template.
func (TemplateGenerator) Generate(_ context.Context, in Input) (string, error) {
	var b strings.Builder
	if err := narrativeTemplate.Execute(&b, in); err != nil {
		return "", err
	}
	return b.String(), nil
}
