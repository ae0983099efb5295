// Package recap partitions finished item results and renders the run summary.
package recap

import "github.com/sznuper/krark/internal/result"

// Recap holds every finished result of one run, split by terminal state.
// Each slice keeps the order in which results were added.
type Recap struct {
	Passed  []*result.Item
	Failed  []*result.Item
	Crashed []*result.Item
}

// New returns an empty Recap. capacity is a sizing hint only.
func New(capacity int) *Recap {
	capacity = max(capacity, 0)
	return &Recap{
		Passed:  make([]*result.Item, 0, capacity),
		Failed:  make([]*result.Item, 0, capacity),
		Crashed: make([]*result.Item, 0, capacity),
	}
}

// Add files r under its terminal state.
func (rc *Recap) Add(r *result.Item) {
	switch r.State() {
	case result.StatePassed:
		rc.Passed = append(rc.Passed, r)
	case result.StateFailed:
		rc.Failed = append(rc.Failed, r)
	case result.StateCrashed:
		rc.Crashed = append(rc.Crashed, r)
	}
}

func (rc *Recap) Total() int {
	return len(rc.Passed) + len(rc.Failed) + len(rc.Crashed)
}

// OK reports whether no item failed or crashed.
func (rc *Recap) OK() bool {
	return len(rc.Failed) == 0 && len(rc.Crashed) == 0
}

// Percent returns n as a percentage of the total, or 0 for an empty recap.
func (rc *Recap) Percent(n int) float64 {
	total := rc.Total()
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
