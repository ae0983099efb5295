// Package rules turns a declarative rules file into a check function and an
// optional filter for the harness.
//
// A check is either a template expression rendered against the item's data
// or an external command that receives the item on stdin.
package rules

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/a8m/envsubst"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
)

// DefaultTimeout bounds a command check that sets no timeout.
const DefaultTimeout = 10 * time.Second

// ErrUnsupportedScheme is returned for command URIs other than file://.
var ErrUnsupportedScheme = errors.New("unsupported command URI scheme")

// File is the on-disk shape of a rules file.
type File struct {
	Filter string  `yaml:"filter"`
	Checks []Check `yaml:"checks" validate:"dive"`
}

// Check is one named rule. Exactly one of Expr and Command is set.
type Check struct {
	Name    string `yaml:"name" validate:"required"`
	Expr    string `yaml:"expr" validate:"required_without=Command,excluded_with=Command"`
	Command string `yaml:"command" validate:"required_without=Expr"`
	Timeout string `yaml:"timeout"`
	// Expect is a template string for Expr checks and a map of output keys
	// to expected values for Command checks.
	Expect any `yaml:"expect"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads a rules file and compiles it. Relative command paths resolve
// against the file's directory.
func Load(path string, logger *slog.Logger) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Compile(f, filepath.Dir(path), logger)
}

// Parse expands ${ENV} references and decodes a rules file.
func Parse(data []byte) (*File, error) {
	data, err := envsubst.Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("expanding env vars: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}
	if err := validate.Struct(&f); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}
	return &f, nil
}

// Compile parses every template, resolves every command and checks the
// timeouts, so that a broken rules file fails before any item runs.
func Compile(f *File, dir string, logger *slog.Logger) (*Engine, error) {
	e := &Engine{logger: logger}

	if f.Filter != "" {
		t, err := newTemplate("filter", f.Filter)
		if err != nil {
			return nil, err
		}
		e.filter = t
	}

	for _, c := range f.Checks {
		var (
			cc  compiledCheck
			err error
		)
		if c.Command != "" {
			cc, err = compileCommand(c, dir)
		} else {
			cc, err = compileExpr(c)
		}
		if err != nil {
			return nil, fmt.Errorf("check %q: %w", c.Name, err)
		}
		e.checks = append(e.checks, cc)
	}
	return e, nil
}

func compileExpr(c Check) (compiledCheck, error) {
	if c.Timeout != "" {
		return nil, errors.New("timeout only applies to command checks")
	}
	expr, err := newTemplate(c.Name, c.Expr)
	if err != nil {
		return nil, err
	}

	chk := &exprCheck{name: c.Name, expr: expr}
	switch exp := c.Expect.(type) {
	case nil:
	case map[string]any, []any:
		return nil, fmt.Errorf("expect of an expr check must be a scalar, got %T", c.Expect)
	default:
		// Scalars such as `expect: 3` compare against their printed form.
		if chk.expect, err = newTemplate(c.Name+"/expect", fmt.Sprint(exp)); err != nil {
			return nil, err
		}
	}
	return chk, nil
}

func compileCommand(c Check, dir string) (compiledCheck, error) {
	path, err := resolveCommand(c.Command, dir)
	if err != nil {
		return nil, err
	}

	timeout := DefaultTimeout
	if c.Timeout != "" {
		if timeout, err = time.ParseDuration(c.Timeout); err != nil {
			return nil, fmt.Errorf("parsing timeout: %w", err)
		}
	}

	chk := &commandCheck{name: c.Name, path: path, timeout: timeout}
	switch exp := c.Expect.(type) {
	case nil:
	case map[string]any:
		chk.expect = make(map[string]string, len(exp))
		for k, v := range exp {
			chk.expect[k] = fmt.Sprint(v)
		}
	default:
		return nil, fmt.Errorf("expect must be a map of output keys, got %T", c.Expect)
	}
	return chk, nil
}
