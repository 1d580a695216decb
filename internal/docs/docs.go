// Package docs serves the reelfeed OpenAPI document and a reference page
// generated from it.
package docs

import (
	_ "embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openapiYAML []byte

const openapiPath = "/api/docs/openapi.yaml"

var methodOrder = []string{"get", "post", "put", "patch", "delete"}

type operation struct {
	Summary  string                `yaml:"summary"`
	Security []map[string][]string `yaml:"security"`
}

type document struct {
	Info struct {
		Title       string `yaml:"title"`
		Version     string `yaml:"version"`
		Description string `yaml:"description"`
	} `yaml:"info"`
	Paths map[string]map[string]yaml.Node `yaml:"paths"`
}

// Endpoint is one row of the reference index.
type Endpoint struct {
	Method  string
	Path    string
	Summary string
	Auth    bool
}

type page struct {
	Title       string
	Version     string
	Description string
	SpecURL     string
	Endpoints   []Endpoint
}

var loadPage = sync.OnceValues(func() (page, error) {
	return parse(openapiYAML)
})

func parse(raw []byte) (page, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return page{}, fmt.Errorf("parse openapi document: %w", err)
	}

	p := page{
		Title:       doc.Info.Title,
		Version:     doc.Info.Version,
		Description: strings.TrimSpace(doc.Info.Description),
		SpecURL:     openapiPath,
	}
	for path, item := range doc.Paths {
		for _, method := range methodOrder {
			node, ok := item[method]
			if !ok {
				continue
			}
			var op operation
			if err := node.Decode(&op); err != nil {
				return page{}, fmt.Errorf("decode %s %s: %w", method, path, err)
			}
			p.Endpoints = append(p.Endpoints, Endpoint{
				Method:  strings.ToUpper(method),
				Path:    path,
				Summary: op.Summary,
				Auth:    len(op.Security) > 0,
			})
		}
	}
	sort.SliceStable(p.Endpoints, func(i, j int) bool {
		if p.Endpoints[i].Path != p.Endpoints[j].Path {
			return p.Endpoints[i].Path < p.Endpoints[j].Path
		}
		return methodRank(p.Endpoints[i].Method) < methodRank(p.Endpoints[j].Method)
	})
	return p, nil
}

func methodRank(m string) int {
	for i, o := range methodOrder {
		if strings.EqualFold(o, m) {
			return i
		}
	}
	return len(methodOrder)
}

func HandleOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(openapiYAML)
}

// HandleDocs renders an endpoint index followed by the interactive Scalar
// reference for the same document.
func HandleDocs(w http.ResponseWriter, r *http.Request) {
	p, err := loadPage()
	if err != nil {
		slog.Error("docs: openapi document unreadable", "error", err)
		http.Error(w, "api reference unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Security-Policy",
		"default-src 'self'; "+
			"script-src 'self' https://cdn.jsdelivr.net 'unsafe-inline'; "+
			"style-src 'self' https://cdn.jsdelivr.net 'unsafe-inline'; "+
			"font-src 'self' https://cdn.jsdelivr.net data:; "+
			"img-src 'self' data:; connect-src 'self'; frame-ancestors 'none';")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, p); err != nil {
		slog.Warn("docs: render failed", "error", err)
	}
}

var pageTemplate = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html><head>
  <title>{{.Title}} {{.Version}}</title>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <style>
    body { font-family: system-ui, sans-serif; margin: 0; }
    header { padding: 1.5rem 2rem; border-bottom: 1px solid #ddd; }
    table { border-collapse: collapse; margin: 1rem 2rem; font-size: 0.9rem; }
    td { padding: 0.25rem 0.75rem; }
    code { font-weight: 600; }
  </style>
</head><body>
  <header>
    <h1>{{.Title}} <small>v{{.Version}}</small></h1>
    <p>{{.Description}} Comment streams are websockets; every frame carries the full list.</p>
    <p>Raw document: <a href="{{.SpecURL}}">{{.SpecURL}}</a></p>
  </header>
  <table id="endpoint-index">
  {{- range .Endpoints}}
    <tr><td><code>{{.Method}}</code></td><td>{{.Path}}</td><td>{{.Summary}}</td><td>{{if .Auth}}bearer token{{end}}</td></tr>
  {{- end}}
  </table>
  <script id="api-reference" data-url="{{.SpecURL}}" data-configuration='{"hideClientButton":true}'></script>
  <script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
</body></html>`))
