package reports

import (
	"fmt"
	"html/template"
	"io"
	"strings"
)

// Fixed page size in pixels handed to the rasterizer (A4 at 150 dpi).
const (
	PageWidth  = 1240
	PageHeight = 1754
)

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"join":  strings.Join,
	"money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"kind": func(k string) string {
		if k == KindEvent {
			return "Evento"
		}
		return "Reunión"
	},
	"inc": func(i int) int { return i + 1 },
}).Parse(`<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<title>{{.Title}} {{inc .Page.Number}}/{{.Page.Total}}</title>
<style>
body{margin:0}
.page{width:{{.Width}}px;height:{{.Height}}px;box-sizing:border-box;padding:72px;font-family:Helvetica,Arial,sans-serif;font-size:20px;color:#1a1a1a;position:relative;overflow:hidden}
h1{font-size:36px;margin:0 0 8px}
h2{font-size:24px;font-weight:normal;color:#555;margin:0 0 32px}
table{width:100%;border-collapse:collapse}
th,td{text-align:left;padding:10px 8px;border-bottom:1px solid #ddd;vertical-align:top}
.cancelled{color:#999;text-decoration:line-through}
footer{position:absolute;bottom:48px;right:72px;color:#777}
</style>
</head>
<body>
<div class="page">
<h1>{{.Title}}</h1>
<h2>{{.Period}}</h2>
{{with .Page.Summary}}<table>
<tr><th>Actividades</th><td>{{.Activities}}</td></tr>
<tr><th>Reuniones</th><td>{{.Meetings}}</td></tr>
<tr><th>Eventos</th><td>{{.Events}}</td></tr>
<tr><th>Canceladas</th><td>{{.Cancelled}}</td></tr>
<tr><th>Asistencia presencial</th><td>{{.InPerson}}</td></tr>
<tr><th>Asistencia en línea</th><td>{{.Online}}</td></tr>
<tr><th>Asistentes externos</th><td>{{.External}}</td></tr>
<tr><th>Costo</th><td>{{money .Cost}}</td></tr>
<tr><th>Inversión</th><td>{{money .Investment}}</td></tr>
<tr><th>Ingresos</th><td>{{money .Revenue}}</td></tr>
</table>{{else}}<table>
<tr><th>Fecha</th><th>Hora</th><th>Tipo</th><th>Asunto</th><th>Organiza</th><th>Asistencia</th></tr>
{{range .Page.Items}}<tr{{if .Cancelled}} class="cancelled"{{end}}><td>{{.Date}}</td><td>{{.StartTime}}{{if .EndTime}} - {{.EndTime}}{{end}}</td><td>{{kind .Kind}}</td><td>{{.Subject}}{{if .Location}}<br><small>{{.Location}}</small>{{end}}</td><td>{{join .Organizers ", "}}</td><td>{{.Attendance}}</td></tr>
{{end}}</table>{{end}}
<footer>{{inc .Page.Number}} / {{.Page.Total}}</footer>
</div>
</body>
</html>
`))

// RenderPage writes the markup of one report page at the fixed page size.
func RenderPage(w io.Writer, title string, page Page, period Period) error {
	return pageTemplate.Execute(w, struct {
		Title         string
		Period        string
		Page          Page
		Width, Height int
	}{
		Title:  title,
		Period: strings.Replace(period.Label(), "_", " al ", 1),
		Page:   page,
		Width:  PageWidth,
		Height: PageHeight,
	})
}
