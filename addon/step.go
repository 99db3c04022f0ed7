// Package addon implements the step-sequencing model that drives every
// add-on installation: ordered external commands, idempotent-failure
// classification on their stderr, and read-only probes of cluster state.
package addon

import (
	"strings"

	"github.com/eks-ops/eks-addon-installer/pkg/executil"
)

// BuildFunc constructs the command for one step from the run context.
// The returned cleanup, when non-nil, is invoked after the command
// finishes on every path; it releases build-time resources such as
// generated temp files.
type BuildFunc func(pctx *Context) (cmd executil.Command, cleanup func(), err error)

// Step is one external command in an add-on procedure.
type Step struct {
	Name  string
	Build BuildFunc

	// IgnorePatterns lists stderr substrings (case-sensitive) that mark a
	// non-zero exit as "target state already achieved". Empty means any
	// failure is fatal.
	IgnorePatterns []string

	// ExportKey, when set, stores the command's trimmed stdout into the
	// context under that key after a successful run. A step whose key is
	// already resolved (e.g. supplied by a flag) is skipped.
	ExportKey string
}

// Classification is the verdict on one finished command.
type Classification int

const (
	Success Classification = iota
	AlreadySatisfied
	HardFailure
)

func (c Classification) String() string {
	switch c {
	case Success:
		return "success"
	case AlreadySatisfied:
		return "already-satisfied"
	default:
		return "hard-failure"
	}
}

// Classify decides whether a finished command succeeded. Exit code zero is
// Success regardless of stderr. A non-zero exit whose stderr contains any of
// the caller-supplied patterns is AlreadySatisfied; anything else is
// HardFailure. Matching third-party error text is best effort, which is why
// the patterns always come from the step, never from here.
func Classify(res executil.Result, patterns []string) Classification {
	if res.ExitCode == 0 {
		return Success
	}
	for _, p := range patterns {
		if p != "" && strings.Contains(res.Stderr, p) {
			return AlreadySatisfied
		}
	}
	return HardFailure
}

// Outcome records how one step ended.
type Outcome struct {
	StepName string
	// Succeeded is true for Success and AlreadySatisfied classifications.
	Succeeded bool
	// IgnoredFailure is true when the step failed but matched one of its
	// idempotent-failure patterns.
	IgnoredFailure bool
	// Cancelled is true when the operator aborted the run during this step.
	Cancelled bool
	// Result is the raw command result, kept for diagnostics.
	Result executil.Result
	// Err is set for launch failures, build failures, timeouts, and
	// cancellation; nil otherwise.
	Err error
}
