package result

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_StartsPassed(t *testing.T) {
	r := New("Lightning Bolt")

	assert.Equal(t, "Lightning Bolt", r.Name())
	assert.Equal(t, StatePassed, r.State())
	assert.Empty(t, r.Passed())
	assert.Empty(t, r.Failed())
	assert.Empty(t, r.Trace())
}

// A check that records nothing is a vacuous pass.
func TestNew_ZeroAssertionsIsPassed(t *testing.T) {
	r := New("Island")
	assert.Equal(t, StatePassed, r.State())
}

func TestEqual_PassAppendsInOrder(t *testing.T) {
	r := New("item")
	r.Equal(1, 1, "first")
	r.Equal("a", "a", "second")
	r.Equal([]string{"x"}, []string{"x"}, "third")

	assert.Equal(t, StatePassed, r.State())
	assert.Equal(t, []string{"first", "second", "third"}, r.Passed())
}

func TestEqual_FirstFailureTransitions(t *testing.T) {
	r := New("item")
	r.Equal(1, 1, "a")
	r.Equal(2, 2, "b")
	r.Equal("x", "y", "c")

	require.Equal(t, StateFailed, r.State())
	assert.Equal(t, []string{"a", "b"}, r.Passed())
	require.Len(t, r.Failed(), 1)
	assert.Equal(t, FailedCheck{Check: "c", Detail: `expected "x", obtained "y"`}, r.Failed()[0])
}

func TestEqual_FailedKeepsAppending(t *testing.T) {
	r := New("item")
	r.Equal(1, 2, "a")
	r.Equal(3, 3, "b")
	r.Equal(4, 5, "c")

	assert.Equal(t, StateFailed, r.State())
	assert.Equal(t, []string{"b"}, r.Passed())
	assert.Equal(t, []FailedCheck{
		{Check: "a", Detail: "expected 1, obtained 2"},
		{Check: "c", Detail: "expected 4, obtained 5"},
	}, r.Failed())
}

func TestEqual_NeverUnfails(t *testing.T) {
	r := New("item")
	r.Equal(1, 2, "bad")
	for i := range 5 {
		r.Equal(i, i, fmt.Sprintf("good-%d", i))
	}
	assert.Equal(t, StateFailed, r.State())
	assert.Len(t, r.Failed(), 1)
	assert.Len(t, r.Passed(), 5)
}

type money struct{ cents int }

func TestEqual_UnexportedFields(t *testing.T) {
	r := New("item")
	require.NotPanics(t, func() {
		r.Equal(money{100}, money{100}, "price")
	})
	assert.Equal(t, StatePassed, r.State())
	assert.Equal(t, []string{"price"}, r.Passed())

	r.Equal(money{100}, money{250}, "discount")
	assert.Equal(t, []FailedCheck{{
		Check:  "discount",
		Detail: "expected result.money{cents:100}, obtained result.money{cents:250}",
	}}, r.Failed())
}

func TestEqual_DifferentTypesNamed(t *testing.T) {
	r := New("item")
	r.Equal(1, int64(1), "cost")

	require.Equal(t, StateFailed, r.State())
	assert.Equal(t, "expected 1 (int), obtained 1 (int64)", r.Failed()[0].Detail)
}

func TestEqual_NilAgainstValue(t *testing.T) {
	r := New("item")
	r.Equal(nil, "x", "maybe")

	assert.Equal(t, `expected <nil> (<nil>), obtained "x" (string)`, r.Failed()[0].Detail)
}

func TestNoError(t *testing.T) {
	r := New("item")
	r.NoError(nil, "ok")
	assert.Equal(t, StatePassed, r.State())

	r.NoError(errors.New("boom"), "parse")
	require.Equal(t, StateFailed, r.State())
	assert.Equal(t, []string{"ok"}, r.Passed())
	assert.Equal(t, []FailedCheck{{Check: "parse", Detail: "expected no error, obtained: boom"}}, r.Failed())
}

func TestCrashed_AbsorbsAssertions(t *testing.T) {
	r := Crashed("item", "index out of range")

	r.Equal(1, 1, "a")
	r.Equal(1, 2, "b")
	r.NoError(errors.New("x"), "c")
	r.Record(Outcome{Check: "d", Passed: true})

	assert.Equal(t, StateCrashed, r.State())
	assert.Equal(t, "index out of range", r.Trace())
	assert.Empty(t, r.Passed())
	assert.Empty(t, r.Failed())
}

// Comparison is skipped entirely once crashed, so uncomparable values are harmless.
func TestCrashed_SkipsComparison(t *testing.T) {
	type opaque struct{ v int }

	r := Crashed("item", "boom")
	assert.NotPanics(t, func() {
		r.Equal(opaque{1}, opaque{2}, "opaque")
	})
}

type stringer struct{}

func (stringer) String() string { return "from stringer" }

func TestFromPanic(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		want    string
	}{
		{name: "string", payload: "explicit abort", want: "explicit abort"},
		{name: "error", payload: errors.New("wrapped failure"), want: "wrapped failure"},
		{name: "stringer", payload: stringer{}, want: "from stringer"},
		{name: "int", payload: 42, want: UnknownPanic},
		{name: "nil", payload: nil, want: UnknownPanic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := FromPanic("item", tt.payload)
			assert.Equal(t, StateCrashed, r.State())
			assert.Equal(t, tt.want, r.Trace())
		})
	}
}

func TestFromPanic_RuntimeError(t *testing.T) {
	var payload any
	func() {
		defer func() { payload = recover() }()
		var xs []int
		_ = xs[3]
	}()

	r := FromPanic("item", payload)
	assert.Contains(t, r.Trace(), "index out of range")
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "passed", StatePassed.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "crashed", StateCrashed.String())
	assert.Equal(t, "State(9)", State(9).String())
}
