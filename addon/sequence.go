package addon

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/eks-ops/eks-addon-installer/pkg/executil"
)

// Sequencer runs the ordered steps of one add-on procedure.
type Sequencer struct {
	lg     *zap.Logger
	runner executil.Runner
}

// NewSequencer creates a Sequencer.
func NewSequencer(lg *zap.Logger, runner executil.Runner) *Sequencer {
	return &Sequencer{lg: lg, runner: runner}
}

// Run executes steps in declared order, stopping at the first step that is
// neither Success nor AlreadySatisfied. Steps after the failing one are never
// attempted. It returns overall success and the outcomes collected so far.
func (s *Sequencer) Run(ctx context.Context, pctx *Context, steps []Step) (bool, []Outcome) {
	outcomes := make([]Outcome, 0, len(steps))
	for _, st := range steps {
		if st.ExportKey != "" {
			if v, ok := pctx.Get(st.ExportKey); ok {
				s.lg.Info("value already resolved; skipping step",
					zap.String("step", st.Name),
					zap.String("key", st.ExportKey),
					zap.String("value", v),
				)
				outcomes = append(outcomes, Outcome{StepName: st.Name, Succeeded: true})
				continue
			}
		}
		oc := s.runStep(ctx, pctx, st)
		outcomes = append(outcomes, oc)
		if !oc.Succeeded {
			return false, outcomes
		}
	}
	return true, outcomes
}

func (s *Sequencer) runStep(ctx context.Context, pctx *Context, st Step) (oc Outcome) {
	oc.StepName = st.Name

	cmd, cleanup, err := st.Build(pctx)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		oc.Err = fmt.Errorf("failed to build command for step %q (%v)", st.Name, err)
		s.lg.Error("step build failed", zap.String("step", st.Name), zap.Error(err))
		return oc
	}

	res, err := s.runner.Run(ctx, cmd)
	oc.Result = res
	if err != nil {
		if ctx.Err() != nil {
			oc.Cancelled = true
			oc.Err = err
			s.lg.Warn("step cancelled", zap.String("step", st.Name), zap.Error(err))
			return oc
		}
		oc.Err = err
		s.lg.Error("step failed to run", zap.String("step", st.Name), zap.Error(err))
		return oc
	}

	switch Classify(res, st.IgnorePatterns) {
	case Success:
		oc.Succeeded = true
		if st.ExportKey != "" {
			v := strings.TrimSpace(res.Stdout)
			if v == "" {
				oc.Succeeded = false
				oc.Err = fmt.Errorf("step %q produced no output for %q", st.Name, st.ExportKey)
				s.lg.Error("step produced empty value", zap.String("step", st.Name), zap.String("key", st.ExportKey))
				return oc
			}
			if err := pctx.Set(st.ExportKey, v); err != nil {
				oc.Succeeded = false
				oc.Err = err
				s.lg.Error("failed to store resolved value", zap.String("step", st.Name), zap.Error(err))
				return oc
			}
			s.lg.Info("resolved value", zap.String("step", st.Name), zap.String("key", st.ExportKey), zap.String("value", v))
		}
		s.lg.Info("step succeeded", zap.String("step", st.Name))
	case AlreadySatisfied:
		oc.Succeeded = true
		oc.IgnoredFailure = true
		s.lg.Info("step target already satisfied",
			zap.String("step", st.Name),
			zap.Int("exit-code", res.ExitCode),
			zap.String("stderr", res.Stderr),
		)
	case HardFailure:
		s.lg.Error("step failed",
			zap.String("step", st.Name),
			zap.Int("exit-code", res.ExitCode),
			zap.String("stderr", res.Stderr),
		)
	}
	return oc
}
