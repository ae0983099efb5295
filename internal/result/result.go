// Package result holds the outcome of checking a single dataset item.
//
// An Item starts Passed. The first failing assertion turns it into Failed,
// which it stays for good. Crashed is only ever produced by the harness when
// a check panics; once Crashed, every recording call is ignored.
package result

import (
	"fmt"
	"reflect"

	"github.com/google/go-cmp/cmp"
)

// State is the terminal classification of an Item.
type State int

const (
	StatePassed State = iota
	StateFailed
	StateCrashed
)

func (s State) String() string {
	switch s {
	case StatePassed:
		return "passed"
	case StateFailed:
		return "failed"
	case StateCrashed:
		return "crashed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Outcome is a single named assertion result.
type Outcome struct {
	Check  string
	Passed bool
	Detail string
}

// FailedCheck is a failing assertion kept on a Failed item.
type FailedCheck struct {
	Check  string
	Detail string
}

// Item accumulates the assertions recorded while checking one item.
// The zero value is not usable; use New.
type Item struct {
	name   string
	state  State
	passed []string
	failed []FailedCheck
	trace  string
}

// New returns a Passed result with no recorded checks.
func New(name string) *Item {
	return &Item{name: name, state: StatePassed}
}

// Crashed returns a terminal result carrying trace.
func Crashed(name, trace string) *Item {
	return &Item{name: name, state: StateCrashed, trace: trace}
}

func (r *Item) Name() string { return r.name }

func (r *Item) State() State { return r.state }

// Passed returns the names of passing checks in recording order.
func (r *Item) Passed() []string { return r.passed }

// Failed returns the failing checks in recording order.
func (r *Item) Failed() []FailedCheck { return r.failed }

// Trace is empty unless the item crashed.
func (r *Item) Trace() string { return r.trace }

// Record applies o to the item.
func (r *Item) Record(o Outcome) {
	switch {
	case r.state == StateCrashed:
		return
	case o.Passed:
		r.passed = append(r.passed, o.Check)
	default:
		r.state = StateFailed
		r.failed = append(r.failed, FailedCheck{Check: o.Check, Detail: o.Detail})
	}
}

// compareOpts lets cmp descend into unexported fields, so plain domain
// structs compare by value instead of panicking.
var compareOpts = []cmp.Option{
	cmp.Exporter(func(reflect.Type) bool { return true }),
}

// Equal records check as passed when expected and obtained are equal.
// When the two values differ in dynamic type the detail names both types.
func (r *Item) Equal(expected, obtained any, check string) {
	if r.state == StateCrashed {
		return
	}
	if cmp.Equal(expected, obtained, compareOpts...) {
		r.Record(Outcome{Check: check, Passed: true})
		return
	}
	r.Record(Outcome{Check: check, Detail: mismatch(expected, obtained)})
}

func mismatch(expected, obtained any) string {
	if reflect.TypeOf(expected) != reflect.TypeOf(obtained) {
		return fmt.Sprintf("expected %#v (%T), obtained %#v (%T)", expected, expected, obtained, obtained)
	}
	return fmt.Sprintf("expected %#v, obtained %#v", expected, obtained)
}

// NoError records check as passed when err is nil.
func (r *Item) NoError(err error, check string) {
	if err == nil {
		r.Record(Outcome{Check: check, Passed: true})
		return
	}
	r.Record(Outcome{
		Check:  check,
		Detail: fmt.Sprintf("expected no error, obtained: %v", err),
	})
}
