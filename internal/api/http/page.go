package httpapi

import (
	"bytes"
	"html/template"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/city-islands/internal/dashboard"
	"github.com/i474232898/city-islands/internal/island"
)

var widgetTitles = map[dashboard.WidgetKind]string{
	dashboard.KindSummary: "Bölge Özeti",
	dashboard.KindTraffic: "Trafik",
	dashboard.KindMarine:  "Deniz",
	dashboard.KindSki:     "Kayak",
}

var pageTmpl = template.Must(template.New("page").Funcs(template.FuncMap{
	"title": func(k dashboard.WidgetKind) string { return widgetTitles[k] },
	"narrative": func(r island.Record) string {
		if r == nil {
			return ""
		}
		n, _ := r.Stamp()
		return n
	},
}).Parse(`<!DOCTYPE html>
<html lang="tr">
<head><meta charset="utf-8"><title>{{.Islands.City.Name}} | Şehir Adaları</title></head>
<body>
<form method="get" action="/">
<select name="city" onchange="this.form.submit()">
{{- range .Cities}}
<option value="{{.Key}}"{{if eq .Key $.Islands.City.Key}} selected{{end}}>{{.Name}}</option>
{{- end}}
</select>
</form>
<h1>{{.Islands.City.Name}}</h1>
{{- range .Islands.Widgets}}
{{- if eq .Status "ok"}}
<section class="island island-{{.Kind}}">
<h2>{{title .Kind}}{{if .Hub}} <small>{{.Hub}}</small>{{end}}</h2>
<p>{{narrative .Data}}</p>
</section>
{{- else if eq .Status "failed"}}
<section class="island island-{{.Kind}} failed">
<h2>{{title .Kind}}</h2>
<p>{{.Error}}</p>
</section>
{{- end}}
{{- end}}
</body>
</html>
`))

type pageData struct {
	Cities  []island.CityProfile
	Islands *dashboard.Islands
}

func pageHandler(svc *dashboard.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cities := svc.Directory().All()
		city := c.Query("city")
		if city == "" && len(cities) > 0 {
			city = cities[0].Key
		}

		islands, err := svc.Refresh(c.UserContext(), city)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := pageTmpl.Execute(&buf, pageData{Cities: cities, Islands: islands}); err != nil {
			return err
		}
		c.Type("html", "utf-8")
		return c.Send(buf.Bytes())
	}
}
