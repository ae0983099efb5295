package recap

import (
	"fmt"
	"io"
	"os"
)

// Destination selects where a recap is written.
type Destination struct {
	// LogFile, when set, is truncated and written instead of stdout.
	LogFile string
	Color   ColorMode
	// Stdout defaults to os.Stdout.
	Stdout *os.File
}

// Write renders rc to the destination. The color setting in opts is replaced
// by the one resolved from dest. The sink is released before Write returns.
func Write(title string, rc *Recap, dest Destination, opts RenderOptions) (err error) {
	stdout := dest.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	var w io.Writer = stdout
	if dest.LogFile != "" {
		f, openErr := os.OpenFile(dest.LogFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if openErr != nil {
			return fmt.Errorf("opening log file: %w", openErr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing log file: %w", cerr)
			}
		}()
		w = f
	}

	opts.Color = dest.Color.Enabled(dest.LogFile, stdout)
	if err := Render(w, title, rc, opts); err != nil {
		return fmt.Errorf("writing recap: %w", err)
	}
	return nil
}
