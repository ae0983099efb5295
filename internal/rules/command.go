package rules

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/sznuper/krark/internal/dataset"
	"github.com/sznuper/krark/internal/result"
)

// resolveCommand turns a command URI into an executable path.
//
//   - file://name      → filepath.Join(dir, name)
//   - file:///abs/path → absolute path as-is
func resolveCommand(uri, dir string) (string, error) {
	raw, ok := strings.CutPrefix(uri, "file://")
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, uri)
	}

	path := raw
	if !filepath.IsAbs(raw) {
		path = filepath.Join(dir, raw)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("command not found: %s", path)
	}
	if info.IsDir() {
		return "", fmt.Errorf("command is a directory: %s", path)
	}
	if info.Mode()&0o111 == 0 {
		return "", fmt.Errorf("command is not executable: %s", path)
	}
	return path, nil
}

type commandCheck struct {
	name    string
	path    string
	timeout time.Duration
	expect  map[string]string
}

func (c *commandCheck) apply(it dataset.Item, r *result.Item) {
	res, err := execCommand(context.Background(), c.path, c.timeout, it)
	if err != nil {
		r.NoError(err, c.name)
		return
	}

	if res.ExitCode == 0 {
		r.Record(result.Outcome{Check: c.name, Passed: true})
	} else {
		detail := fmt.Sprintf("exit status %d", res.ExitCode)
		if stderr := strings.TrimSpace(res.Stderr); stderr != "" {
			detail += ": " + stderr
		}
		r.Record(result.Outcome{Check: c.name, Detail: detail})
	}

	fields := parseFields(res.Stdout)
	for _, key := range slices.Sorted(maps.Keys(c.expect)) {
		r.Equal(c.expect[key], fields[key], c.name+"."+key)
	}
}

type execResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// execCommand runs path with the item as JSON on stdin. Non-zero exit codes
// are captured, not treated as errors. Timeouts are errors.
func execCommand(ctx context.Context, path string, timeout time.Duration, it dataset.Item) (*execResult, error) {
	stdin, err := json.Marshal(it.Data())
	if err != nil {
		return nil, fmt.Errorf("encoding item: %w", err)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, path)
	cmd.Env = commandEnv(it)
	cmd.Stdin = bytes.NewReader(stdin)
	// Children that outlive a killed command would keep the pipes open.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	res := &execResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return res, fmt.Errorf("command timed out after %s", timeout)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf("executing command: %w", err)
	}
	return res, nil
}

// commandEnv is the whole environment of a command: nothing is inherited.
func commandEnv(it dataset.Item) []string {
	env := []string{"KRARK_ITEM=" + it.Name()}
	for _, k := range slices.Sorted(maps.Keys(it.Fields)) {
		env = append(env, "KRARK_FIELD_"+envKey(k)+"="+fmt.Sprint(it.Fields[k]))
	}
	return env
}

// envKey upper-cases k and replaces anything but letters and digits with _.
func envKey(k string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToUpper(r)
		}
		return '_'
	}, k)
}

// parseFields reads KEY=VALUE lines from command stdout. Lines without '='
// and lines with an empty key are ignored; later keys win.
func parseFields(stdout string) map[string]string {
	fields := make(map[string]string)
	for line := range strings.SplitSeq(stdout, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		fields[key] = strings.TrimSpace(value)
	}
	return fields
}
