package notify

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/sznuper/krark/internal/recap"
	"github.com/sznuper/krark/internal/result"
)

// DefaultTemplate is used by targets that do not set their own.
const DefaultTemplate = `{{ .Title }}: {{ .Passed }}/{{ .Total }} passed, {{ .Failed }} failed, {{ .Panicked }} panicked`

// MessageData holds everything available to notification templates.
type MessageData struct {
	Title         string
	Passed        int
	Failed        int
	Panicked      int
	Total         int
	PassedPct     float64
	OK            bool
	FailedNames   []string
	PanickedNames []string
}

// BuildMessageData summarises a finished run.
func BuildMessageData(title string, rc *recap.Recap) MessageData {
	return MessageData{
		Title:         title,
		Passed:        len(rc.Passed),
		Failed:        len(rc.Failed),
		Panicked:      len(rc.Crashed),
		Total:         rc.Total(),
		PassedPct:     rc.Percent(len(rc.Passed)),
		OK:            rc.OK(),
		FailedNames:   itemNames(rc.Failed),
		PanickedNames: itemNames(rc.Crashed),
	}
}

func itemNames(items []*result.Item) []string {
	names := make([]string, len(items))
	for i, r := range items {
		names[i] = r.Name()
	}
	return names
}

// Render executes a Go text/template string with Sprig functions.
func Render(tmplStr string, data MessageData) (string, error) {
	t, err := template.New("notify").Funcs(sprig.TxtFuncMap()).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}

	return buf.String(), nil
}
