// Package views holds the portal's HTML templates.
package views

import (
	"embed"
	"html/template"
	"time"
)

//go:embed templates/*.tmpl
var files embed.FS

// DateTimeLocal is the layout of <input type="datetime-local"> values.
const DateTimeLocal = "2006-01-02T15:04"

// Load parses all templates. Full pages are named after their file
// (e.g. "events.tmpl"); partials are named by their define blocks.
func Load() (*template.Template, error) {
	return template.New("").Funcs(Funcs()).ParseFS(files, "templates/*.tmpl")
}

// Must is Load for program start-up and tests.
func Must() *template.Template {
	t, err := Load()
	if err != nil {
		panic(err)
	}
	return t
}

// Funcs returns the helpers available in templates.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"datetimeLocal": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(DateTimeLocal)
		},
		"when": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("Mon 02 Jan 2006 15:04")
		},
		"pages": func(n int) []int {
			out := make([]int, 0, n)
			for i := 1; i <= n; i++ {
				out = append(out, i)
			}
			return out
		},
	}
}
