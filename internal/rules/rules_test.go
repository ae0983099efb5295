package rules

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sznuper/krark/internal/dataset"
	"github.com/sznuper/krark/internal/result"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeExecutable(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o755))
	return path
}

func compile(t *testing.T, yaml, dir string) *Engine {
	t.Helper()
	f, err := Parse([]byte(yaml))
	require.NoError(t, err)
	e, err := Compile(f, dir, discard())
	require.NoError(t, err)
	return e
}

func bolt() dataset.Item {
	return dataset.Item{ItemName: "Lightning Bolt", Fields: map[string]any{"cost": 1, "type": "Instant"}}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "missing name", yaml: "checks:\n  - expr: 'true'\n"},
		{name: "neither expr nor command", yaml: "checks:\n  - name: a\n"},
		{name: "both expr and command", yaml: "checks:\n  - name: a\n    expr: 'true'\n    command: file://x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid rules")
		})
	}
}

func TestParse_EnvSubst(t *testing.T) {
	t.Setenv("KRARK_TEST_TYPE", "Instant")

	f, err := Parse([]byte("filter: '{{ eq .type \"${KRARK_TEST_TYPE}\" }}'\n"))
	require.NoError(t, err)
	assert.Equal(t, `{{ eq .type "Instant" }}`, f.Filter)
}

func TestCompile_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{name: "bad template", yaml: "checks:\n  - name: a\n    expr: '{{ .x '\n", want: `check "a"`},
		{name: "bad filter", yaml: "filter: '{{ if }}'\n", want: "filter"},
		{name: "missing command", yaml: "checks:\n  - name: a\n    command: file://nope.sh\n", want: "command not found"},
		{name: "bad timeout", yaml: "checks:\n  - name: a\n    command: file:///bin/sh\n    timeout: soon\n", want: "parsing timeout"},
		{name: "timeout on expr", yaml: "checks:\n  - name: a\n    expr: 'true'\n    timeout: 1s\n", want: "timeout only applies"},
		{name: "map expect on expr", yaml: "checks:\n  - name: a\n    expr: 'true'\n    expect: {a: b}\n", want: "must be a scalar"},
		{name: "scalar expect on command", yaml: "checks:\n  - name: a\n    command: file:///bin/sh\n    expect: ok\n", want: "must be a map"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)
			_, err = Compile(f, dir, discard())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestExprCheck_BareBooleans(t *testing.T) {
	e := compile(t, `
checks:
  - name: has cost
    expr: '{{ hasKey . "cost" }}'
  - name: cheap
    expr: '{{ lt .cost 1 }}'
`, t.TempDir())

	r := e.Check(bolt(), result.New("Lightning Bolt"))

	assert.Equal(t, result.StateFailed, r.State())
	assert.Equal(t, []string{"has cost"}, r.Passed())
	require.Len(t, r.Failed(), 1)
	assert.Equal(t, "cheap", r.Failed()[0].Check)
	assert.Equal(t, `expected "true", obtained "false"`, r.Failed()[0].Detail)
}

func TestExprCheck_Expect(t *testing.T) {
	e := compile(t, `
checks:
  - name: type
    expr: '{{ .type | lower }}'
    expect: instant
  - name: cost
    expr: '{{ .cost }}'
    expect: 1
  - name: templated expect
    expr: '{{ .name }}'
    expect: '{{ printf "Lightning %s" "Bolt" }}'
`, t.TempDir())

	r := e.Check(bolt(), result.New("Lightning Bolt"))

	assert.Equal(t, result.StatePassed, r.State())
	assert.Equal(t, []string{"type", "cost", "templated expect"}, r.Passed())
}

func TestExprCheck_MissingKeyFails(t *testing.T) {
	e := compile(t, "checks:\n  - name: power\n    expr: '{{ gt .power 0 }}'\n", t.TempDir())

	r := e.Check(bolt(), result.New("Lightning Bolt"))

	require.Len(t, r.Failed(), 1)
	assert.Equal(t, "power", r.Failed()[0].Check)
	assert.Contains(t, r.Failed()[0].Detail, "expected no error, obtained:")
}

func TestEngine_Filter(t *testing.T) {
	e := compile(t, "filter: '{{ eq .type \"Instant\" }}'\n", t.TempDir())
	require.True(t, e.HasFilter())

	assert.True(t, e.Keep(bolt()))
	assert.False(t, e.Keep(dataset.Item{ItemName: "Forest", Fields: map[string]any{"type": "Land"}}))
	assert.False(t, e.Keep(dataset.Item{ItemName: "Typeless"}), "render errors drop the item")
}

func TestEngine_NoFilterKeepsAll(t *testing.T) {
	e := compile(t, "checks: []\n", t.TempDir())
	assert.False(t, e.HasFilter())
	assert.True(t, e.Keep(dataset.Item{ItemName: "x"}))
}

func TestEngine_NoChecksIsVacuousPass(t *testing.T) {
	e := compile(t, "checks: []\n", t.TempDir())

	r := e.Check(bolt(), result.New("Lightning Bolt"))
	assert.Equal(t, result.StatePassed, r.State())
	assert.Empty(t, r.Passed())
}

func TestCommandCheck_PassAndExpect(t *testing.T) {
	dir := t.TempDir()
	writeExecutable(t, dir, "validate.sh", "#!/bin/sh\necho status=ok\necho item=$KRARK_ITEM\necho cost=$KRARK_FIELD_COST\n")

	e := compile(t, `
checks:
  - name: validator
    command: file://validate.sh
    expect:
      status: ok
      cost: 1
      item: Lightning Bolt
`, dir)

	r := e.Check(bolt(), result.New("Lightning Bolt"))

	require.Empty(t, r.Failed())
	assert.Equal(t, []string{"validator", "validator.cost", "validator.item", "validator.status"}, r.Passed())
}

func TestCommandCheck_ExpectMismatch(t *testing.T) {
	dir := t.TempDir()
	writeExecutable(t, dir, "validate.sh", "#!/bin/sh\necho status=warning\n")

	e := compile(t, "checks:\n  - name: v\n    command: file://validate.sh\n    expect: {status: ok}\n", dir)

	r := e.Check(bolt(), result.New("x"))
	require.Len(t, r.Failed(), 1)
	assert.Equal(t, "v.status", r.Failed()[0].Check)
	assert.Equal(t, `expected "ok", obtained "warning"`, r.Failed()[0].Detail)
}

func TestCommandCheck_NonZeroExit(t *testing.T) {
	dir := t.TempDir()
	writeExecutable(t, dir, "validate.sh", "#!/bin/sh\necho 'cost too high' >&2\nexit 3\n")

	e := compile(t, "checks:\n  - name: v\n    command: file://validate.sh\n", dir)

	r := e.Check(bolt(), result.New("x"))
	require.Len(t, r.Failed(), 1)
	assert.Equal(t, "exit status 3: cost too high", r.Failed()[0].Detail)
}

func TestCommandCheck_Stdin(t *testing.T) {
	dir := t.TempDir()
	writeExecutable(t, dir, "validate.sh", "#!/bin/sh\nread line\necho \"json=$line\"\n")

	e := compile(t, "checks:\n  - name: v\n    command: file://validate.sh\n    expect: {json: '{\"cost\":1,\"name\":\"Lightning Bolt\",\"type\":\"Instant\"}'}\n", dir)

	r := e.Check(bolt(), result.New("x"))
	assert.Empty(t, r.Failed())
}

func TestCommandCheck_Timeout(t *testing.T) {
	dir := t.TempDir()
	writeExecutable(t, dir, "slow.sh", "#!/bin/sh\nsleep 10\n")

	e := compile(t, "checks:\n  - name: slow\n    command: file://slow.sh\n    timeout: 100ms\n", dir)

	r := e.Check(bolt(), result.New("x"))
	require.Len(t, r.Failed(), 1)
	assert.Contains(t, r.Failed()[0].Detail, "timed out")
}

func TestCommandCheck_AbsolutePath(t *testing.T) {
	path := writeExecutable(t, t.TempDir(), "ok.sh", "#!/bin/sh\nexit 0\n")

	e := compile(t, "checks:\n  - name: abs\n    command: file://"+path+"\n", t.TempDir())

	r := e.Check(bolt(), result.New("x"))
	assert.Equal(t, []string{"abs"}, r.Passed())
}

func TestResolveCommand(t *testing.T) {
	dir := t.TempDir()
	writeExecutable(t, dir, "ok.sh", "#!/bin/sh\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plain.sh"), []byte("#!/bin/sh\n"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	path, err := resolveCommand("file://ok.sh", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ok.sh"), path)

	_, err = resolveCommand("https://example.com/check.sh", dir)
	assert.ErrorIs(t, err, ErrUnsupportedScheme)

	_, err = resolveCommand("file://plain.sh", dir)
	assert.ErrorContains(t, err, "not executable")

	_, err = resolveCommand("file://sub", dir)
	assert.ErrorContains(t, err, "is a directory")
}

func TestParseFields(t *testing.T) {
	fields := parseFields("\nstatus = ok\nnoise\n=empty\nusage=84\nusage=85\nurl=a=b\n")

	assert.Equal(t, map[string]string{"status": "ok", "usage": "85", "url": "a=b"}, fields)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "MANA_COST", envKey("mana-cost"))
	assert.Equal(t, "CMC2", envKey("cmc2"))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeExecutable(t, dir, "validate.sh", "#!/bin/sh\nexit 0\n")
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("checks:\n  - name: v\n    command: file://validate.sh\n"), 0o644))

	e, err := Load(path, discard())
	require.NoError(t, err)

	r := e.Check(bolt(), result.New("x"))
	assert.Equal(t, []string{"v"}, r.Passed())

	_, err = Load(filepath.Join(dir, "missing.yaml"), discard())
	assert.ErrorContains(t, err, "reading rules")
}
