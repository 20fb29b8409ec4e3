// Package completion answers shell completion and dependency listing
// queries without building anything.
//
// Every invocation is classified by Detect into one of two modes before any
// command parsing happens. In Normal mode control passes on to the regular
// command. In Completing mode the Handler prints candidate tokens (or a
// package list) one per line and the process exits successfully. Completing
// never opens the settings store and never runs a target.
//
// Recognized markers:
//
//	mkgo --get_completions N WORD0 WORD1 ...   complete WORDN
//	COMP_LINE / COMP_POINT set                  bash "complete -C mkgo mkgo"
//	mkgo --get_run_deps                         list runtime packages
//	mkgo --get_build_deps                       list build packages
package completion

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/shinji-kodama/mkgo/internal/option"
)

// Marker flags that switch an invocation into Completing mode.
const (
	FlagGetCompletions = "--get_completions"
	FlagGetRunDeps     = "--get_run_deps"
	FlagGetBuildDeps   = "--get_build_deps"
)

// BuiltinFlags are offered as candidates alongside the declared options.
var BuiltinFlags = []string{FlagGetRunDeps, FlagGetBuildDeps}

// Mode is the state of an invocation.
type Mode int

const (
	// Normal invocations build a target.
	Normal Mode = iota

	// Completing invocations only answer a query.
	Completing
)

// String returns the name of the mode.
func (m Mode) String() string {
	if m == Completing {
		return "completing"
	}
	return "normal"
}

// Kind identifies what a completion request asks for.
type Kind int

const (
	// KindCandidates asks for tokens matching a partial word.
	KindCandidates Kind = iota

	// KindRunDeps asks for the packages needed to run the default target.
	KindRunDeps

	// KindBuildDeps asks for the packages needed to build the default target.
	KindBuildDeps
)

// Request is a one-shot completion query.
type Request struct {
	Kind Kind

	// Words are the command line words, excluding the program name.
	Words []string

	// Cursor is the index in Words of the word being completed. It may
	// equal len(Words) when completing a new, empty word.
	Cursor int

	// Partial is the text already typed for the word being completed.
	Partial string
}

// Previous returns the word before the cursor, or "".
func (r Request) Previous() string {
	if r.Cursor-1 >= 0 && r.Cursor-1 < len(r.Words) {
		return r.Words[r.Cursor-1]
	}
	return ""
}

// Detect classifies an invocation. args excludes the program name and
// getenv looks up environment variables (os.Getenv in production).
func Detect(args []string, getenv func(string) string) (Request, Mode) {
	if len(args) > 0 && args[0] == FlagGetCompletions {
		return parseWords(args[1:]), Completing
	}

	// Dependency listing flags may follow other flags, up to "--".
scan:
	for _, arg := range args {
		switch arg {
		case "--":
			break scan
		case FlagGetRunDeps:
			return Request{Kind: KindRunDeps}, Completing
		case FlagGetBuildDeps:
			return Request{Kind: KindBuildDeps}, Completing
		}
	}

	if getenv != nil {
		if line := getenv("COMP_LINE"); line != "" {
			return parseCompLine(line, getenv("COMP_POINT")), Completing
		}
	}

	return Request{}, Normal
}

// parseWords handles "--get_completions N WORD0 WORD1 ...". A missing or
// malformed N means "complete after the last word".
func parseWords(args []string) Request {
	req := Request{Kind: KindCandidates}
	if len(args) == 0 {
		return req
	}

	cursor, err := strconv.Atoi(args[0])
	req.Words = args[1:]
	if err != nil || cursor < 0 || cursor > len(req.Words) {
		cursor = len(req.Words)
	}
	req.Cursor = cursor
	if cursor < len(req.Words) {
		req.Partial = req.Words[cursor]
	}
	return req
}

// parseCompLine handles bash's COMP_LINE/COMP_POINT: the line is cut at the
// cursor, and the partial word is whatever follows the last blank.
func parseCompLine(line, point string) Request {
	if p, err := strconv.Atoi(point); err == nil && p >= 0 && p <= len(line) {
		line = line[:p]
	}

	words := strings.Fields(line)
	if len(words) > 0 {
		// Drop the program name.
		words = words[1:]
	}

	req := Request{Kind: KindCandidates, Words: words, Cursor: len(words)}
	if line != "" && !strings.HasSuffix(line, " ") && !strings.HasSuffix(line, "\t") && len(words) > 0 {
		req.Cursor = len(words) - 1
		req.Partial = words[req.Cursor]
	}
	return req
}

// Deps lists the external packages of a target.
type Deps struct {
	Build []string
	Run   []string
}

// Handler answers completion requests from static data only.
type Handler struct {
	// Targets are the registered target names.
	Targets []string

	// Options are the declared options whose flags and values complete.
	Options []option.Spec

	// Flags are extra flag names to offer, e.g. BuiltinFlags.
	Flags []string

	// Deps is the dependency list of the default target.
	Deps Deps
}

// Candidates returns the sorted, de-duplicated candidates for req.
//
// When the previous word is one of the option flags, only that option's
// values are offered. Otherwise the candidates are the target names, the
// option flag names, every option's values and the extra flags.
func (h *Handler) Candidates(req Request) []string {
	var pool []string

	if spec, ok := h.optionForFlag(req.Previous()); ok && len(spec.Values) > 0 {
		pool = append(pool, spec.Values...)
	} else {
		pool = append(pool, h.Targets...)
		for _, spec := range h.Options {
			pool = append(pool, spec.FlagNames()...)
			pool = append(pool, spec.Values...)
		}
		pool = append(pool, h.Flags...)
	}

	var out []string
	for _, c := range pool {
		if strings.HasPrefix(c, req.Partial) {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return slices.Compact(out)
}

// Handle writes the answer to req, one entry per line. It never fails: a
// broken output stream simply truncates the answer.
func (h *Handler) Handle(w io.Writer, req Request) {
	var lines []string
	switch req.Kind {
	case KindRunDeps:
		lines = h.Deps.Run
	case KindBuildDeps:
		lines = h.Deps.Build
	default:
		lines = h.Candidates(req)
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return
		}
	}
}

func (h *Handler) optionForFlag(word string) (option.Spec, bool) {
	if word == "" {
		return option.Spec{}, false
	}
	for _, spec := range h.Options {
		if slices.Contains(spec.FlagNames(), word) {
			return spec, true
		}
	}
	return option.Spec{}, false
}
