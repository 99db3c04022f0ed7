package addon

import (
	"context"

	"go.uber.org/zap"

	"github.com/eks-ops/eks-addon-installer/pkg/executil"
)

// Env bundles the capabilities every procedure call needs. It is passed
// explicitly instead of living in process-wide singletons.
type Env struct {
	Logger *zap.Logger
	Runner executil.Runner
}

// Check is one validation probe of an installed add-on. WarnOnly checks are
// logged when they fail but do not fail validation.
type Check struct {
	Probe    Probe
	WarnOnly bool
}

// Procedure declares everything needed to install and validate one add-on:
// the ordered step list, the existence probe that decides whether to skip,
// and the readiness checks run after installation. Procedures hold no
// mutable state; every call re-derives truth from the cluster.
type Procedure struct {
	// ID is the stable identifier used on the command line.
	ID          string
	DisplayName string

	Steps     []Step
	Existence Probe
	Checks    []Check

	// PostInstall, when set, runs after all steps succeed (e.g. generating
	// a manifest file). Its failure is logged, never fatal.
	PostInstall func(ctx context.Context, env Env, pctx *Context) error
}

// InstallResult reports one Install call.
type InstallResult struct {
	// Skipped is true when the add-on was already installed and no step ran.
	Skipped  bool
	OK       bool
	Outcomes []Outcome
}

// Cancelled reports whether the install was aborted by the operator.
func (r InstallResult) Cancelled() bool {
	return len(r.Outcomes) > 0 && r.Outcomes[len(r.Outcomes)-1].Cancelled
}

// IsInstalled probes for a prior installation. A probe error is swallowed:
// the add-on is treated as not installed and the error is logged.
func (p *Procedure) IsInstalled(ctx context.Context, env Env, pctx *Context) bool {
	prober := NewProber(env.Logger, env.Runner)
	ok, err := prober.Exists(ctx, pctx, p.Existence)
	if err != nil {
		env.Logger.Warn("existence probe failed; assuming not installed",
			zap.String("addon", p.ID),
			zap.Error(err),
		)
		return false
	}
	return ok
}

// Install runs the procedure's steps in order. When the add-on is already
// installed, nothing is executed.
func (p *Procedure) Install(ctx context.Context, env Env, pctx *Context) InstallResult {
	if p.IsInstalled(ctx, env, pctx) {
		env.Logger.Info("add-on already installed; skipping", zap.String("addon", p.ID))
		return InstallResult{Skipped: true, OK: true}
	}

	seq := NewSequencer(env.Logger, env.Runner)
	ok, outcomes := seq.Run(ctx, pctx, p.Steps)
	if !ok {
		return InstallResult{OK: false, Outcomes: outcomes}
	}

	if p.PostInstall != nil {
		if err := p.PostInstall(ctx, env, pctx); err != nil {
			env.Logger.Warn("post-install hook failed",
				zap.String("addon", p.ID),
				zap.Error(err),
			)
		}
	}
	return InstallResult{OK: true, Outcomes: outcomes}
}

// Validate runs the procedure's readiness checks. A probe error counts as
// "not ready", never as a crash.
func (p *Procedure) Validate(ctx context.Context, env Env, pctx *Context) bool {
	prober := NewProber(env.Logger, env.Runner)
	overall := true
	for _, ch := range p.Checks {
		ok, err := prober.Healthy(ctx, pctx, ch.Probe)
		if err != nil {
			env.Logger.Warn("validation probe failed; treating as not ready",
				zap.String("addon", p.ID),
				zap.String("probe", ch.Probe.Name),
				zap.Error(err),
			)
			ok = false
		}
		switch {
		case ok:
			env.Logger.Info("validation check passed",
				zap.String("addon", p.ID),
				zap.String("probe", ch.Probe.Name),
			)
		case ch.WarnOnly:
			env.Logger.Warn("validation check failed (non-fatal)",
				zap.String("addon", p.ID),
				zap.String("probe", ch.Probe.Name),
			)
		default:
			env.Logger.Warn("validation check failed",
				zap.String("addon", p.ID),
				zap.String("probe", ch.Probe.Name),
			)
			overall = false
		}
	}
	return overall
}
