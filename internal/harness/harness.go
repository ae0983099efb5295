package harness

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/sznuper/krark/internal/config"
	"github.com/sznuper/krark/internal/recap"
	"github.com/sznuper/krark/internal/result"
)

// Named is anything that can report a display name for the recap.
type Named interface {
	Name() string
}

// Dataset is an indexable, finite sequence of items.
type Dataset[T any] interface {
	Len() int
	At(i int) T
}

// CheckFunc validates one item, recording assertions on r. Returning nil is
// the same as returning r. Any other return crashes the item.
type CheckFunc[T any] func(item T, r *result.Item) *result.Item

// ForeignResultTrace is the trace of an item whose check returned a result
// it was not given.
const ForeignResultTrace = "check returned a foreign result"

// Harness runs a check over every selected item of a dataset and writes a
// recap when done.
type Harness[T Named] struct {
	name   string
	data   Dataset[T]
	opts   config.Options
	logger *slog.Logger
	stdout *os.File
	diag   io.Writer
}

// Option customises a Harness.
type Option func(*sinks)

type sinks struct {
	stdout *os.File
	diag   io.Writer
}

// WithStdout sets the file the recap is written to when no log file is
// configured.
func WithStdout(f *os.File) Option {
	return func(o *sinks) { o.stdout = f }
}

// WithDiagnostics sets where recap output failures are reported.
func WithDiagnostics(w io.Writer) Option {
	return func(o *sinks) { o.diag = w }
}

// New creates a Harness. name becomes the recap title.
func New[T Named](name string, data Dataset[T], opts config.Options, logger *slog.Logger, options ...Option) *Harness[T] {
	out := sinks{stdout: os.Stdout, diag: os.Stderr}
	for _, o := range options {
		o(&out)
	}
	return &Harness[T]{
		name:   name,
		data:   data,
		opts:   opts,
		logger: logger,
		stdout: out.stdout,
		diag:   out.diag,
	}
}

// Run checks every item in dataset order.
func (h *Harness[T]) Run(check CheckFunc[T]) *recap.Recap {
	return h.run("full", h.Select(), check)
}

// RunFiltered checks the items keep accepts, in dataset order.
func (h *Harness[T]) RunFiltered(keep func(T) bool, check CheckFunc[T]) *recap.Recap {
	return h.run("filtered", h.SelectFiltered(keep), check)
}

// RunSampled checks at most n items spread evenly over the dataset.
func (h *Harness[T]) RunSampled(n int, check CheckFunc[T]) *recap.Recap {
	return h.run("sampled", h.SelectSampled(n), check)
}

// Select returns the indices Run visits.
func (h *Harness[T]) Select() []int {
	indices := make([]int, h.data.Len())
	for i := range indices {
		indices[i] = i
	}
	return indices
}

// SelectFiltered returns the indices RunFiltered visits. An item whose keep
// call panics is dropped with a warning.
func (h *Harness[T]) SelectFiltered(keep func(T) bool) []int {
	indices := make([]int, 0, h.data.Len())
	for i := range h.data.Len() {
		if h.keepOne(h.data.At(i), keep) {
			indices = append(indices, i)
		}
	}
	return indices
}

func (h *Harness[T]) keepOne(item T, keep func(T) bool) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			ok = false
			h.logger.Warn("filter panicked, dropping item",
				"item", item.Name(),
				"trace", result.FromPanic(item.Name(), p).Trace(),
			)
		}
	}()
	return keep(item)
}

// SelectSampled returns the indices RunSampled visits: every stride-th item
// from the start, where stride = max(1, len/n), until n are collected.
func (h *Harness[T]) SelectSampled(n int) []int {
	size := h.data.Len()
	if n <= 0 || size == 0 {
		return nil
	}

	want := min(n, size)
	stride := max(1, size/n)
	indices := make([]int, 0, want)
	for i := 0; i < size && len(indices) < want; i += stride {
		indices = append(indices, i)
	}
	return indices
}

func (h *Harness[T]) run(mode string, indices []int, check CheckFunc[T]) *recap.Recap {
	log := h.logger.With("run", uuid.NewString(), "title", h.name, "mode", mode)
	start := time.Now()
	log.Info("starting run", "items", len(indices), "dataset", h.data.Len())

	rc := recap.New(len(indices))
	for _, i := range indices {
		rc.Add(h.checkOne(log, h.data.At(i), check))
	}

	log.Info("run completed",
		"passed", len(rc.Passed),
		"failed", len(rc.Failed),
		"panicked", len(rc.Crashed),
		"duration", time.Since(start),
	)

	h.output(log, rc)
	return rc
}

// checkOne runs check against a fresh result. A panic anywhere inside check
// replaces the result with a crashed one, as does returning a result other
// than the one check was given.
func (h *Harness[T]) checkOne(log *slog.Logger, item T, check CheckFunc[T]) (r *result.Item) {
	name := item.Name()
	log = log.With("item", name)

	defer func() {
		if p := recover(); p != nil {
			r = result.FromPanic(name, p)
			log.Warn("item panicked", "trace", r.Trace())
			log.Debug("panic stack", "stack", string(debug.Stack()))
		}
	}()

	given := result.New(name)
	r = check(item, given)
	switch r {
	case nil:
		r = given
	case given:
	default:
		r = result.Crashed(name, ForeignResultTrace)
		log.Warn("item returned a foreign result", "trace", r.Trace())
	}
	log.Debug("item checked", "state", r.State(), "failed_checks", len(r.Failed()))
	return r
}

func (h *Harness[T]) output(log *slog.Logger, rc *recap.Recap) {
	color, err := recap.ParseColorMode(h.opts.Color)
	if err != nil {
		log.Warn("falling back to auto color", "error", err)
		color = recap.ColorAuto
	}

	dest := recap.Destination{
		LogFile: h.opts.LogFile,
		Color:   color,
		Stdout:  h.stdout,
	}
	ropts := recap.RenderOptions{
		MaxFailedShown:   h.opts.MaxFailedShown,
		MaxPanickedShown: h.opts.MaxPanickedShown,
		DetailWidth:      h.opts.DetailWidth,
	}

	if err := recap.Write(h.name, rc, dest, ropts); err != nil {
		log.Error("recap output failed", "error", err)
		fmt.Fprintf(h.diag, "Failed to output recap: %v\n", err)
	}
}
