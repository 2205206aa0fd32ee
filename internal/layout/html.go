package layout

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"mars_poster/internal/domain"
)

// ResolveFunc maps a static asset path to the URL the page should load.
type ResolveFunc func(path string) string

var page = template.Must(template.New("poster").Parse(`<!doctype html>
<html><head><meta charset="utf-8">
<style>
body{margin:0;background:transparent}
#poster{position:relative;overflow:hidden;font-family:"Go",Arial,Helvetica,sans-serif}
#poster .el{position:absolute;box-sizing:border-box;overflow:hidden;line-height:1.25;white-space:pre-wrap;overflow-wrap:break-word}
#poster .text{display:flex;flex-direction:column;justify-content:center}
#poster ul{margin:0;padding:0;list-style:none}
#poster img{width:100%;height:100%;object-fit:cover;display:block}
</style></head>
<body>
<div id="poster" style="{{.Style}}">
{{- range .Elements}}
{{- if eq .Kind "rect"}}
<div class="el" style="{{.Style}}"></div>
{{- else if eq .Kind "text"}}
<div class="el text" style="{{.Style}}">{{.Text}}</div>
{{- else if eq .Kind "bullets"}}
<ul class="el" style="{{.Style}}">{{range .Items}}<li>{{.}}</li>{{end}}</ul>
{{- else if eq .Kind "image"}}
<div class="el" style="{{.Style}}"><img src="{{.Src}}" alt=""></div>
{{- end}}
{{- end}}
</div>
</body></html>
`))

type htmlElement struct {
	Kind  domain.ElementKind
	Style template.CSS
	Text  string
	Items []string
	Src   template.URL
}

type htmlPage struct {
	Style    template.CSS
	Elements []htmlElement
}

// HTML renders p as a standalone page whose root element is #poster.
// Colours and geometry come from the layout table; user text is escaped.
func HTML(p domain.Poster, resolve ResolveFunc) ([]byte, error) {
	if resolve == nil {
		resolve = func(path string) string { return path }
	}
	pg := htmlPage{
		Style: template.CSS(fmt.Sprintf("width:%gpx;height:%gpx;background:%s", p.Width, p.Height, p.Background)),
	}
	for _, el := range p.Elements {
		he := htmlElement{Kind: el.Kind, Style: template.CSS(elementCSS(el))}
		switch el.Kind {
		case domain.KindText:
			he.Text = el.Text
		case domain.KindBullets:
			he.Items = make([]string, len(el.Items))
			for i, it := range el.Items {
				if el.Marker != "" {
					it = el.Marker + " " + it
				}
				he.Items[i] = it
			}
		case domain.KindImage:
			// data URLs are produced by our own re-encoder; asset paths come from the table
			if el.Image != nil {
				he.Src = template.URL(el.Image.DataURL())
			} else {
				he.Src = template.URL(resolve(el.Placeholder))
			}
		}
		pg.Elements = append(pg.Elements, he)
	}

	var buf bytes.Buffer
	if err := page.Execute(&buf, pg); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}

func elementCSS(el domain.Element) string {
	var b strings.Builder
	fmt.Fprintf(&b, "left:%gpx;top:%gpx;width:%gpx;height:%gpx;", el.Box.X, el.Box.Y, el.Box.W, el.Box.H)
	if el.Fill != "" {
		fmt.Fprintf(&b, "background:%s;", el.Fill)
	}
	if el.Stroke != "" {
		fmt.Fprintf(&b, "border:1px solid %s;", el.Stroke)
	}
	if el.Radius > 0 {
		fmt.Fprintf(&b, "border-radius:%gpx;", el.Radius)
	}
	if el.Color != "" {
		fmt.Fprintf(&b, "color:%s;", el.Color)
	}
	if el.Size > 0 {
		fmt.Fprintf(&b, "font-size:%gpx;", el.Size)
	}
	if el.Bold {
		b.WriteString("font-weight:700;")
	}
	if el.Italic {
		b.WriteString("font-style:italic;")
	}
	if el.Align != "" {
		fmt.Fprintf(&b, "text-align:%s;", el.Align)
	}
	return b.String()
}
