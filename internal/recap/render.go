package recap

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// RenderOptions bounds and styles the rendered recap.
type RenderOptions struct {
	// MaxFailedShown caps how many failed items are listed below the table.
	MaxFailedShown int
	// MaxPanickedShown caps how many crashed items are listed below the table.
	MaxPanickedShown int
	// DetailWidth truncates detail lines to this many cells. 0 disables it.
	DetailWidth int
	Color       bool
}

// Render writes the summary table and the capped failure details to w.
func Render(w io.Writer, title string, rc *Recap, opts RenderOptions) error {
	_, err := io.WriteString(w, Format(title, rc, opts))
	return err
}

// Format returns what Render would write.
func Format(title string, rc *Recap, opts RenderOptions) string {
	p := newPalette(opts.Color)
	rows := summaryRows(rc, p)

	var sb strings.Builder
	newTable(&sb, title, rows).draw(title, rows)
	writeFailed(&sb, rc, opts, p)
	writeCrashed(&sb, rc, opts, p)
	return sb.String()
}

func summaryRows(rc *Recap, p palette) []row {
	total := rc.Total()
	cell := func(n int, healthy bool) string {
		return p.pick(healthy).Render(fmt.Sprintf("%d (%.1f%%)", n, rc.Percent(n)))
	}
	return []row{
		{label: "Passed", value: cell(len(rc.Passed), len(rc.Passed) == total)},
		{label: "Failed", value: cell(len(rc.Failed), len(rc.Failed) == 0)},
		{label: "Panicked", value: cell(len(rc.Crashed), len(rc.Crashed) == 0)},
		{label: "Total", value: strconv.Itoa(total)},
	}
}

func writeFailed(sb *strings.Builder, rc *Recap, opts RenderOptions, p palette) {
	if len(rc.Failed) == 0 {
		return
	}
	sb.WriteString("\n")
	sb.WriteString(p.unhealthy.Render("Failed:"))
	sb.WriteString("\n")

	shown := rc.Failed[:min(len(rc.Failed), max(opts.MaxFailedShown, 0))]
	for _, r := range shown {
		sb.WriteString("  " + r.Name() + "\n")
		for _, fc := range r.Failed() {
			writeDetail(sb, fc.Check+": "+fc.Detail, opts.DetailWidth)
		}
	}
	writeOmitted(sb, len(rc.Failed)-len(shown), "failed")
}

func writeCrashed(sb *strings.Builder, rc *Recap, opts RenderOptions, p palette) {
	if len(rc.Crashed) == 0 {
		return
	}
	sb.WriteString("\n")
	sb.WriteString(p.unhealthy.Render("Panicked:"))
	sb.WriteString("\n")

	shown := rc.Crashed[:min(len(rc.Crashed), max(opts.MaxPanickedShown, 0))]
	for _, r := range shown {
		sb.WriteString("  " + r.Name() + "\n")
		writeDetail(sb, r.Trace(), opts.DetailWidth)
	}
	writeOmitted(sb, len(rc.Crashed)-len(shown), "panicked")
}

func writeDetail(sb *strings.Builder, text string, width int) {
	for line := range strings.SplitSeq(strings.TrimRight(text, "\n"), "\n") {
		if width > 0 {
			line = runewidth.Truncate(line, width, "…")
		}
		sb.WriteString("    " + line + "\n")
	}
}

func writeOmitted(sb *strings.Builder, n int, kind string) {
	if n <= 0 {
		return
	}
	fmt.Fprintf(sb, "  ... and %d more %s items\n", n, kind)
}
