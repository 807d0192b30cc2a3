package handler

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/carshare-console/internal/model"
)

// TemplateRenderer renders html/template files through echo.
type TemplateRenderer struct {
	templates *template.Template
}

// NewTemplateRenderer parses every template matching glob.
func NewTemplateRenderer(glob string) (*TemplateRenderer, error) {
	t, err := template.New("").Funcs(templateFuncs).ParseGlob(glob)
	if err != nil {
		return nil, fmt.Errorf("parse templates %q: %w", glob, err)
	}
	return &TemplateRenderer{templates: t}, nil
}

func (r *TemplateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

var templateFuncs = template.FuncMap{
	"datetime": func(t time.Time) string { return t.Format(model.DateTimeLayout) },
	"optTime": func(t *time.Time) string {
		if t == nil {
			return "NULL"
		}
		return t.Format(model.DateTimeLayout)
	},
	"optString": func(s *string) string {
		if s == nil {
			return "NULL"
		}
		return *s
	},
	"optInt": func(n *int64) string {
		if n == nil {
			return "NULL"
		}
		return fmt.Sprint(*n)
	},
	"selected": func(a, b string) bool { return a == b },
}
