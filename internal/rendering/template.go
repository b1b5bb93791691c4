package rendering

import (
	"bytes"
	"html/template"

	"github.com/jonathan/job-autopilot/internal/types"
)

// resumeTemplate is the one-page HTML layout printed to PDF. Styling is
// deliberately plain: ATS parsers choke on decorative markup.
const resumeTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  @page { size: A4; margin: 14mm; }
  body { font-family: Georgia, "Times New Roman", serif; font-size: 10.5pt; color: #1a1a1a; line-height: 1.35; }
  h1 { font-size: 18pt; margin: 0; }
  .contact { font-size: 9.5pt; color: #444; margin-bottom: 8px; }
  h2 { font-size: 11pt; text-transform: uppercase; letter-spacing: 1px; border-bottom: 1px solid #999; margin: 12px 0 4px; }
  .role { margin-bottom: 6px; }
  .role-header { display: flex; justify-content: space-between; font-weight: bold; }
  .dates { font-weight: normal; color: #555; }
  ul { margin: 2px 0 0 16px; padding: 0; }
  li { margin-bottom: 1px; }
  .skills { margin: 0; }
</style>
</head>
<body>
  <h1>{{.Name}}</h1>
  <div class="contact">{{.Email}}{{if .Phone}} · {{.Phone}}{{end}}</div>

  {{if .Summary}}<h2>Summary</h2><p class="skills">{{.Summary}}</p>{{end}}

  {{if .Skills}}<h2>Skills</h2><p class="skills">{{join .Skills ", "}}</p>{{end}}

  {{if .Experience}}<h2>Experience</h2>
  {{range .Experience}}
  <div class="role">
    <div class="role-header"><span>{{.Title}} — {{.Company}}</span><span class="dates">{{.StartDate}}{{if .EndDate}} – {{.EndDate}}{{end}}</span></div>
    <ul>{{range .Bullets}}<li>{{.}}</li>{{end}}</ul>
  </div>
  {{end}}{{end}}

  {{if .Education}}<h2>Education</h2>
  {{range .Education}}
  <div class="role-header"><span>{{.Degree}}{{if .Field}}, {{.Field}}{{end}} — {{.Institution}}</span><span class="dates">{{.EndDate}}</span></div>
  {{end}}{{end}}
</body>
</html>`

var resumeTmpl = template.Must(
	template.New("resume").Funcs(template.FuncMap{"join": joinStrings}).Parse(resumeTemplate),
)

func joinStrings(items []string, sep string) string {
	var buf bytes.Buffer
	for i, item := range items {
		if i > 0 {
			buf.WriteString(sep)
		}
		buf.WriteString(item)
	}
	return buf.String()
}

// RenderHTML executes the resume template for one tailored CV.
func RenderHTML(cv *types.TailoredCV) (string, error) {
	if cv == nil {
		return "", &TemplateError{Message: "tailored CV is nil"}
	}

	var buf bytes.Buffer
	if err := resumeTmpl.Execute(&buf, cv); err != nil {
		return "", &TemplateError{Message: "failed to execute resume template", Cause: err}
	}
	return buf.String(), nil
}
