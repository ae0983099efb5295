package rules

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/sznuper/krark/internal/dataset"
	"github.com/sznuper/krark/internal/result"
)

// Engine applies compiled rules to dataset items.
type Engine struct {
	filter *template.Template
	checks []compiledCheck
	logger *slog.Logger
}

type compiledCheck interface {
	apply(it dataset.Item, r *result.Item)
}

// HasFilter reports whether the rules file declared a filter.
func (e *Engine) HasFilter() bool { return e.filter != nil }

// Keep reports whether it passes the filter. Items for which the filter
// cannot be rendered are dropped with a warning.
func (e *Engine) Keep(it dataset.Item) bool {
	if e.filter == nil {
		return true
	}
	out, err := render(e.filter, it.Data())
	if err != nil {
		e.logger.Warn("filter failed, skipping item", "item", it.Name(), "error", err)
		return false
	}
	return out == "true"
}

// Check runs every rule against it in declaration order.
func (e *Engine) Check(it dataset.Item, r *result.Item) *result.Item {
	for _, c := range e.checks {
		c.apply(it, r)
	}
	return r
}

type exprCheck struct {
	name   string
	expr   *template.Template
	expect *template.Template
}

func (c *exprCheck) apply(it dataset.Item, r *result.Item) {
	data := it.Data()

	got, err := render(c.expr, data)
	if err != nil {
		r.NoError(err, c.name)
		return
	}

	want := "true"
	if c.expect != nil {
		if want, err = render(c.expect, data); err != nil {
			r.NoError(err, c.name)
			return
		}
	}
	r.Equal(want, got, c.name)
}

func newTemplate(name, text string) (*template.Template, error) {
	t, err := template.New(name).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing template %q: %w", name, err)
	}
	return t, nil
}

// render executes t and trims surrounding whitespace so block-style YAML
// strings compare cleanly.
func render(t *template.Template, data map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}
