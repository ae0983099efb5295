package recap

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// ColorMode selects whether the recap is colored.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode accepts auto, always and never (case-insensitive).
// The empty string means auto.
func ParseColorMode(s string) (ColorMode, error) {
	switch m := ColorMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ColorAuto, nil
	case ColorAuto, ColorAlways, ColorNever:
		return m, nil
	default:
		return "", fmt.Errorf("invalid color mode %q (want auto, always or never)", s)
	}
}

// Enabled resolves the mode for a destination. Always and Never win over
// everything; Auto is off for log files and for non-terminal stdout.
func (m ColorMode) Enabled(logFile string, stdout *os.File) bool {
	switch m {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if logFile != "" {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if stdout == nil {
		return false
	}
	fd := stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// palette holds the two row styles. With color off both render text unchanged.
type palette struct {
	healthy   lipgloss.Style
	unhealthy lipgloss.Style
}

func newPalette(color bool) palette {
	r := lipgloss.NewRenderer(io.Discard)
	if color {
		r.SetColorProfile(termenv.ANSI)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return palette{
		healthy:   r.NewStyle().Foreground(lipgloss.Color("2")),
		unhealthy: r.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

func (p palette) pick(healthy bool) lipgloss.Style {
	if healthy {
		return p.healthy
	}
	return p.unhealthy
}
