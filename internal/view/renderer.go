// Package view renders the server-side pages.  Each page template is parsed
// together with the shared layout and fills its "content" block.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	layoutFile = "templates/layout.html"
	layoutName = "layout.html" // ParseFS names templates by file base name
)

// Renderer implements echo.Renderer over the embedded templates.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses every page against the layout.  A template error is reported
// here rather than on the first request.
func New() (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	md := goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough))
	funcs := template.FuncMap{
		"markdown": markdownFunc(md),
		"money":    func(v float64) string { return fmt.Sprintf("£%.2f", v) },
		"inc":      func(i int) int { return i + 1 },
	}
	pages := make(map[string]*template.Template, len(files))
	for _, f := range files {
		if f == layoutFile {
			continue
		}
		name := strings.TrimSuffix(path.Base(f), ".html")
		t, err := template.New(layoutName).Funcs(funcs).ParseFS(templateFS, layoutFile, f)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = t
	}
	return &Renderer{pages: pages}, nil
}

// Render executes page name into w.  The page is rendered into a buffer
// first so a template error never leaves a half-written response.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("view: unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, layoutName, data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// markdownFunc converts course descriptions.  Raw HTML in the source is
// dropped by goldmark's default renderer, so the output is safe to embed.
func markdownFunc(md goldmark.Markdown) func(string) template.HTML {
	return func(src string) template.HTML {
		var buf bytes.Buffer
		if err := md.Convert([]byte(src), &buf); err != nil {
			return template.HTML(template.HTMLEscapeString(src))
		}
		return template.HTML(buf.String())
	}
}
