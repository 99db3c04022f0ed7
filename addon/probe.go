package addon

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/eks-ops/eks-addon-installer/pkg/executil"
)

// ProbeKind selects how a probe's output is interpreted.
type ProbeKind int

const (
	// ProbeSubstring interprets the probe as a boolean: the token must be
	// present in stdout (or, with an empty token, stdout must be non-empty).
	ProbeSubstring ProbeKind = iota
	// ProbeCount parses stdout as an integer count; an empty field parses
	// as zero, which is a valid "not ready" result, not an error.
	ProbeCount
)

// Probe is a read-only query against the cluster or the cloud.
type Probe struct {
	Name  string
	Kind  ProbeKind
	Token string
	Build BuildFunc
}

// ProbeError means a probe's command could not be run or exited non-zero.
// It is distinct from a valid negative result ("confirmed absent",
// "zero ready"), so callers can tell absence from ignorance.
type ProbeError struct {
	Probe string
	Err   error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %q failed (%v)", e.Probe, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// Prober runs probes.
type Prober struct {
	lg     *zap.Logger
	runner executil.Runner
}

// NewProber creates a Prober.
func NewProber(lg *zap.Logger, runner executil.Runner) *Prober {
	return &Prober{lg: lg, runner: runner}
}

func (p *Prober) run(ctx context.Context, pctx *Context, pr Probe) (executil.Result, error) {
	cmd, cleanup, err := pr.Build(pctx)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		return executil.Result{}, &ProbeError{Probe: pr.Name, Err: err}
	}
	res, err := p.runner.Run(ctx, cmd)
	if err != nil {
		return res, &ProbeError{Probe: pr.Name, Err: err}
	}
	if res.ExitCode != 0 {
		return res, &ProbeError{Probe: pr.Name, Err: fmt.Errorf("exit code %d (stderr %q)", res.ExitCode, res.Stderr)}
	}
	p.lg.Debug("probe output", zap.String("probe", pr.Name), zap.String("stdout", res.Stdout))
	return res, nil
}

// Exists runs a substring probe and reports presence.
func (p *Prober) Exists(ctx context.Context, pctx *Context, pr Probe) (bool, error) {
	res, err := p.run(ctx, pctx, pr)
	if err != nil {
		return false, err
	}
	if pr.Token == "" {
		return strings.TrimSpace(res.Stdout) != "", nil
	}
	return strings.Contains(res.Stdout, pr.Token), nil
}

// Count runs a count probe and parses its output. Empty output is zero.
func (p *Prober) Count(ctx context.Context, pctx *Context, pr Probe) (int, error) {
	res, err := p.run(ctx, pctx, pr)
	if err != nil {
		return 0, err
	}
	s := strings.Trim(strings.TrimSpace(res.Stdout), `'"`)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ProbeError{Probe: pr.Name, Err: fmt.Errorf("unparseable count %q (%v)", s, err)}
	}
	return n, nil
}

// Healthy evaluates a probe as a readiness check: count probes pass when the
// count is positive, substring probes when the token is present.
func (p *Prober) Healthy(ctx context.Context, pctx *Context, pr Probe) (bool, error) {
	switch pr.Kind {
	case ProbeCount:
		n, err := p.Count(ctx, pctx, pr)
		if err != nil {
			return false, err
		}
		p.lg.Info("readiness count", zap.String("probe", pr.Name), zap.Int("ready", n))
		return n > 0, nil
	default:
		return p.Exists(ctx, pctx, pr)
	}
}
