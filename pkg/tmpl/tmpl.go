// Package tmpl renders text templates used for prompts and canned replies.
package tmpl

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

var funcs = template.FuncMap{
	"indent":  indent,
	"default": defaultString,
	"trim":    strings.TrimSpace,
}

// indent prefixes every non-empty line of s with n spaces.
func indent(n int, s string) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = pad + line
		}
	}
	return strings.Join(lines, "\n")
}

func defaultString(def, s string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// Template is a parsed template ready for repeated rendering.
type Template struct {
	t *template.Template
}

// Parse compiles src once. Rendering fails on keys missing from the data.
func Parse(name, src string) (*Template, error) {
	t, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return &Template{t: t}, nil
}

// Execute renders the template with data.
func (t *Template) Execute(data any) (string, error) {
	var buf bytes.Buffer
	if err := t.t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}

// Render parses and executes a template string in one step.
//
// Available template functions:
//   - indent: indent every line (e.g., indent 2 .Content)
//   - default: fallback for blank strings (e.g., default "none" .Name)
//   - trim: strip surrounding whitespace
func Render(src string, data any) (string, error) {
	t, err := Parse("", src)
	if err != nil {
		return "", err
	}
	return t.Execute(data)
}
