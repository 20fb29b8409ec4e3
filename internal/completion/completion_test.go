package completion

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shinji-kodama/mkgo/internal/option"
)

// env returns a getenv function backed by a map.
func env(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func newHandler(targets ...string) *Handler {
	return &Handler{
		Targets: targets,
		Options: []option.Spec{option.ModeSpec()},
		Flags:   BuiltinFlags,
		Deps: Deps{
			Build: []string{"libcairo2-dev", "libx11-dev"},
			Run:   []string{"libcairo2", "libx11-6"},
		},
	}
}

// TestDetect verifies that each marker selects Completing with the right
// request, and that everything else is Normal.
func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		env     map[string]string
		mode    Mode
		kind    Kind
		partial string
		cursor  int
	}{
		{name: "plain build", args: []string{"closet_maker"}, mode: Normal},
		{name: "no args", mode: Normal},
		{name: "mode flag", args: []string{"-M", "release"}, mode: Normal},
		{
			name: "get_completions with cursor",
			args: []string{FlagGetCompletions, "0", "clo"},
			mode: Completing, kind: KindCandidates, partial: "clo", cursor: 0,
		},
		{
			name: "get_completions new word",
			args: []string{FlagGetCompletions, "1", "-M"},
			mode: Completing, kind: KindCandidates, partial: "", cursor: 1,
		},
		{
			name: "get_completions bad cursor completes after last word",
			args: []string{FlagGetCompletions, "x", "a", "b"},
			mode: Completing, kind: KindCandidates, partial: "", cursor: 2,
		},
		{
			name: "get_completions without words",
			args: []string{FlagGetCompletions},
			mode: Completing, kind: KindCandidates,
		},
		{name: "run deps", args: []string{FlagGetRunDeps}, mode: Completing, kind: KindRunDeps},
		{name: "build deps after flags", args: []string{"-M", "release", FlagGetBuildDeps}, mode: Completing, kind: KindBuildDeps},
		{name: "deps flag after terminator is an argument", args: []string{"--", FlagGetRunDeps}, mode: Normal},
		{
			name: "bash COMP_LINE partial",
			env:  map[string]string{"COMP_LINE": "mkgo clo", "COMP_POINT": "8"},
			mode: Completing, kind: KindCandidates, partial: "clo", cursor: 0,
		},
		{
			name: "bash COMP_LINE trailing space",
			env:  map[string]string{"COMP_LINE": "mkgo --mode ", "COMP_POINT": "12"},
			mode: Completing, kind: KindCandidates, partial: "", cursor: 1,
		},
		{
			name: "bash COMP_POINT inside the line",
			env:  map[string]string{"COMP_LINE": "mkgo -M rel closet", "COMP_POINT": "11"},
			mode: Completing, kind: KindCandidates, partial: "rel", cursor: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, mode := Detect(tt.args, env(tt.env))
			assert.Equal(t, tt.mode, mode)
			if mode == Completing {
				assert.Equal(t, tt.kind, req.Kind)
				assert.Equal(t, tt.partial, req.Partial)
				if tt.kind == KindCandidates {
					assert.Equal(t, tt.cursor, req.Cursor)
				}
			}
		})
	}
}

// TestDetect_NilGetenv verifies that Detect tolerates a nil lookup.
func TestDetect_NilGetenv(t *testing.T) {
	_, mode := Detect(nil, nil)
	assert.Equal(t, Normal, mode)
}

// TestHandle_PartialTarget covers the "clo" scenario: exactly closet_maker.
func TestHandle_PartialTarget(t *testing.T) {
	h := newHandler("closet_maker")
	req, mode := Detect([]string{FlagGetCompletions, "0", "clo"}, env(nil))
	assert.Equal(t, Completing, mode)

	var out bytes.Buffer
	h.Handle(&out, req)
	assert.Equal(t, "closet_maker\n", out.String())
}

// TestCandidates verifies the candidate union, prefix filtering and the
// option-value narrowing after an option flag.
func TestCandidates(t *testing.T) {
	h := newHandler("closet_maker", "closet_maker_pango")

	tests := []struct {
		name string
		req  Request
		want []string
	}{
		{
			name: "everything",
			req:  Request{},
			want: []string{
				"--get_build_deps", "--get_run_deps", "--mode", "-M",
				"closet_maker", "closet_maker_pango",
				"debug", "profile_release", "release",
			},
		},
		{
			name: "flags",
			req:  Request{Partial: "--"},
			want: []string{"--get_build_deps", "--get_run_deps", "--mode"},
		},
		{
			name: "values after long flag",
			req:  Request{Words: []string{"--mode", "r"}, Cursor: 1, Partial: "r"},
			want: []string{"release"},
		},
		{
			name: "values after short flag",
			req:  Request{Words: []string{"-M"}, Cursor: 1},
			want: []string{"debug", "profile_release", "release"},
		},
		{
			name: "no match",
			req:  Request{Partial: "zzz"},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.Candidates(tt.req))
		})
	}
}

// TestCandidates_Deduplicates verifies that a target sharing a name with a
// mode value is printed once.
func TestCandidates_Deduplicates(t *testing.T) {
	h := newHandler("release")
	assert.Equal(t, []string{"release"}, h.Candidates(Request{Partial: "rel"}))
}

// TestHandle_Deps verifies both dependency listings.
func TestHandle_Deps(t *testing.T) {
	h := newHandler("closet_maker")

	var run, build bytes.Buffer
	h.Handle(&run, Request{Kind: KindRunDeps})
	h.Handle(&build, Request{Kind: KindBuildDeps})

	assert.Equal(t, "libcairo2\nlibx11-6\n", run.String())
	assert.Equal(t, "libcairo2-dev\nlibx11-dev\n", build.String())
}

// failWriter fails every write.
type failWriter struct{ writes int }

func (f *failWriter) Write(p []byte) (int, error) {
	f.writes++
	return 0, assert.AnError
}

// TestHandle_NeverFails verifies that write errors stop output quietly.
func TestHandle_NeverFails(t *testing.T) {
	w := &failWriter{}
	newHandler("a", "b").Handle(w, Request{})
	assert.Equal(t, 1, w.writes)
}

// TestMode_String covers the mode names used in verbose output.
func TestMode_String(t *testing.T) {
	assert.Equal(t, "normal", Normal.String())
	assert.Equal(t, "completing", Completing.String())
}
