package recap

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// frame is the glyph table for the recap box: a heavy rule for the outer
// border and title separators, a light rule between status rows.
type frame struct {
	outer lipgloss.Border
	inner lipgloss.Border
}

func recapFrame() frame {
	return frame{
		outer: lipgloss.Border{
			Top:          "━",
			Bottom:       "━",
			Left:         "┃",
			Right:        "┃",
			TopLeft:      "┏",
			TopRight:     "┓",
			BottomLeft:   "┗",
			BottomRight:  "┛",
			MiddleLeft:   "┣",
			MiddleRight:  "┫",
			MiddleTop:    "┯",
			MiddleBottom: "┷",
		},
		inner: lipgloss.Border{
			Top:         "─",
			Left:        "│",
			Middle:      "┼",
			MiddleLeft:  "┠",
			MiddleRight: "┨",
		},
	}
}

// VisibleWidth is the number of terminal cells s occupies, ignoring escape
// sequences.
func VisibleWidth(s string) int {
	return lipgloss.Width(s)
}

func padRight(s string, width int) string {
	vw := VisibleWidth(s)
	if vw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-vw)
}

type row struct {
	label string
	value string
}

// table draws a two-column box with a spanning title row. Cells carry one
// space of padding on each side.
type table struct {
	sb     *strings.Builder
	f      frame
	widths [2]int
}

func newTable(sb *strings.Builder, title string, rows []row) *table {
	var widths [2]int
	for _, r := range rows {
		widths[0] = max(widths[0], VisibleWidth(r.label))
		widths[1] = max(widths[1], VisibleWidth(r.value))
	}
	// The title spans both columns and the divider between them.
	if span := widths[0] + widths[1] + 3; VisibleWidth(title) > span {
		widths[0] += VisibleWidth(title) - span
	}
	return &table{sb: sb, f: recapFrame(), widths: widths}
}

func (t *table) rule(left, fill, mid, right string) {
	t.sb.WriteString(left)
	t.sb.WriteString(strings.Repeat(fill, t.widths[0]+2))
	t.sb.WriteString(mid)
	t.sb.WriteString(strings.Repeat(fill, t.widths[1]+2))
	t.sb.WriteString(right)
	t.sb.WriteByte('\n')
}

func (t *table) title(s string) {
	t.sb.WriteString(t.f.outer.Left)
	t.sb.WriteByte(' ')
	t.sb.WriteString(padRight(s, t.widths[0]+t.widths[1]+3))
	t.sb.WriteByte(' ')
	t.sb.WriteString(t.f.outer.Right)
	t.sb.WriteByte('\n')
}

func (t *table) row(r row) {
	t.sb.WriteString(t.f.outer.Left)
	t.sb.WriteByte(' ')
	t.sb.WriteString(padRight(r.label, t.widths[0]))
	t.sb.WriteByte(' ')
	t.sb.WriteString(t.f.inner.Left)
	t.sb.WriteByte(' ')
	t.sb.WriteString(padRight(r.value, t.widths[1]))
	t.sb.WriteByte(' ')
	t.sb.WriteString(t.f.outer.Right)
	t.sb.WriteByte('\n')
}

func (t *table) draw(title string, rows []row) {
	o, in := t.f.outer, t.f.inner
	t.rule(o.TopLeft, o.Top, o.Top, o.TopRight)
	t.title(title)
	t.rule(o.MiddleLeft, o.Top, o.MiddleTop, o.MiddleRight)
	for i, r := range rows {
		t.row(r)
		if i < len(rows)-1 {
			t.rule(in.MiddleLeft, in.Top, in.Middle, in.MiddleRight)
		}
	}
	t.rule(o.BottomLeft, o.Bottom, o.MiddleBottom, o.BottomRight)
}
