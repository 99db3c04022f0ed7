// Package installer orchestrates add-on procedures against one cluster.
package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/mitchellh/colorstring"
	"go.uber.org/zap"

	"github.com/eks-ops/eks-addon-installer/addon"
	"github.com/eks-ops/eks-addon-installer/addonconfig"
	"github.com/eks-ops/eks-addon-installer/addons/albcontroller"
	"github.com/eks-ops/eks-addon-installer/addons/calico"
	"github.com/eks-ops/eks-addon-installer/addons/karpenter"
	"github.com/eks-ops/eks-addon-installer/addons/kyverno"
	"github.com/eks-ops/eks-addon-installer/addons/nvidiaplugin"
	"github.com/eks-ops/eks-addon-installer/helm"
	"github.com/eks-ops/eks-addon-installer/kubectl"
	"github.com/eks-ops/eks-addon-installer/pkg/executil"
	"github.com/eks-ops/eks-addon-installer/pkg/spinner"
)

// Status is the terminal state of one add-on in a run.
type Status string

const (
	StatusAlreadyInstalled Status = "already-installed"
	StatusValidated        Status = "validated"
	StatusValidationFailed Status = "validation-failed"
	StatusInstallFailed    Status = "install-failed"
	StatusCancelled        Status = "cancelled"
)

// Result reports one add-on's terminal state.
type Result struct {
	AddonID string
	Status  Status
	Took    time.Duration
}

// Catalog returns every known add-on procedure in menu order.
func Catalog() []*addon.Procedure {
	return []*addon.Procedure{
		albcontroller.New(),
		karpenter.New(),
		kyverno.New(),
		calico.New(),
		nvidiaplugin.New(),
	}
}

// Installer runs add-on procedures sequentially, in the order the operator
// selected them.
type Installer struct {
	cfg *addonconfig.Config
	lg  *zap.Logger
	env addon.Env

	catalog map[string]*addon.Procedure
	order   []string
}

// New creates an Installer from a validated configuration.
func New(cfg *addonconfig.Config, lg *zap.Logger) *Installer {
	return NewWithRunner(cfg, lg, executil.New(lg, cfg.CommandTimeout))
}

// NewWithRunner creates an Installer with an explicit command runner.
func NewWithRunner(cfg *addonconfig.Config, lg *zap.Logger, runner executil.Runner) *Installer {
	in := &Installer{
		cfg:     cfg,
		lg:      lg,
		env:     addon.Env{Logger: lg, Runner: runner},
		catalog: make(map[string]*addon.Procedure),
	}
	for _, p := range Catalog() {
		in.catalog[p.ID] = p
		in.order = append(in.order, p.ID)
	}
	return in
}

// ProcedureIDs returns the known add-on identifiers in menu order.
func (in *Installer) ProcedureIDs() []string {
	ids := make([]string, len(in.order))
	copy(ids, in.order)
	return ids
}

// Procedure looks up a procedure by identifier.
func (in *Installer) Procedure(id string) (*addon.Procedure, bool) {
	p, ok := in.catalog[id]
	return p, ok
}

// CheckEnvironment verifies that kubectl reaches the cluster and that helm
// is installed, before any state is touched.
func (in *Installer) CheckEnvironment(ctx context.Context, pctx *addon.Context) error {
	prober := addon.NewProber(in.lg, in.env.Runner)

	ok, err := prober.Exists(ctx, pctx, kubectl.ClusterInfoProbe())
	if err != nil {
		return fmt.Errorf("cannot connect to the Kubernetes cluster; ensure kubectl is configured (%v)", err)
	}
	if !ok {
		return fmt.Errorf("cluster %q does not report a running control plane", in.cfg.ClusterName)
	}

	if _, err := prober.Exists(ctx, pctx, helm.VersionProbe()); err != nil {
		return fmt.Errorf("helm is not installed or not accessible (%v)", err)
	}

	in.lg.Info("environment check passed", zap.String("cluster", in.cfg.ClusterName))
	return nil
}

// Run installs the selected add-ons strictly in the given order. Already
// installed add-ons are skipped; the first install failure aborts everything
// that remains. Validation failures are warnings, not run failures.
func (in *Installer) Run(ctx context.Context, ids []string) ([]Result, error) {
	for _, id := range ids {
		if _, ok := in.catalog[id]; !ok {
			return nil, fmt.Errorf("unknown add-on %q (known: %v)", id, in.order)
		}
	}

	if err := os.MkdirAll(in.cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %q (%v)", in.cfg.OutputDir, err)
	}
	lock := flock.New(filepath.Join(in.cfg.OutputDir, ".eks-addon-installer.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock (%v)", err)
	}
	if !locked {
		return nil, fmt.Errorf("another installer run holds the lock in %q", in.cfg.OutputDir)
	}
	defer lock.Unlock()

	pctx, err := in.cfg.NewContext()
	if err != nil {
		return nil, err
	}
	if err := in.CheckEnvironment(ctx, pctx); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(ids))
	var failed string
	for _, id := range ids {
		p := in.catalog[id]
		start := time.Now()

		if p.IsInstalled(ctx, in.env, pctx) {
			in.lg.Info("add-on already installed; skipping installation",
				zap.String("addon", id),
			)
			results = append(results, Result{AddonID: id, Status: StatusAlreadyInstalled, Took: time.Since(start)})
			continue
		}

		section(in.lg, fmt.Sprintf("Installing %s", p.DisplayName))
		sp := spinner.New(os.Stderr, fmt.Sprintf("installing %s", p.DisplayName))
		sp.Restart()
		res := p.Install(ctx, in.env, pctx)
		sp.Stop()
		switch {
		case res.Skipped:
			results = append(results, Result{AddonID: id, Status: StatusAlreadyInstalled, Took: time.Since(start)})
			continue
		case !res.OK && res.Cancelled():
			results = append(results, Result{AddonID: id, Status: StatusCancelled, Took: time.Since(start)})
			failed = id
		case !res.OK:
			in.lg.Error("add-on installation failed; aborting remaining add-ons",
				zap.String("addon", id),
				zap.Int("steps-attempted", len(res.Outcomes)),
			)
			results = append(results, Result{AddonID: id, Status: StatusInstallFailed, Took: time.Since(start)})
			failed = id
		default:
			in.lg.Info("add-on installed", zap.String("addon", id),
				zap.String("started", humanize.RelTime(start, time.Now(), "ago", "from now")),
			)
			st := StatusValidated
			if !p.Validate(ctx, in.env, pctx) {
				in.lg.Warn("add-on validation failed or incomplete", zap.String("addon", id))
				st = StatusValidationFailed
			}
			results = append(results, Result{AddonID: id, Status: st, Took: time.Since(start)})
		}
		if failed != "" {
			break
		}
	}

	in.printSummary(results)
	if failed != "" {
		return results, fmt.Errorf("add-on %q failed to install", failed)
	}
	return results, nil
}

// AddonState is a read-only report of one catalog add-on.
type AddonState struct {
	AddonID     string
	DisplayName string
	Installed   bool
	Ready       bool
}

// Status reports, for every catalog add-on, whether it is installed and
// whether its readiness checks pass. Nothing is mutated.
func (in *Installer) Status(ctx context.Context) ([]AddonState, error) {
	pctx, err := in.cfg.NewContext()
	if err != nil {
		return nil, err
	}
	if err := in.CheckEnvironment(ctx, pctx); err != nil {
		return nil, err
	}

	states := make([]AddonState, 0, len(in.order))
	for _, id := range in.order {
		p := in.catalog[id]
		st := AddonState{AddonID: id, DisplayName: p.DisplayName}
		st.Installed = p.IsInstalled(ctx, in.env, pctx)
		if st.Installed {
			st.Ready = p.Validate(ctx, in.env, pctx)
		}
		states = append(states, st)
	}
	return states, nil
}

func (in *Installer) printSummary(results []Result) {
	colorstring.Printf("\n[bold]Run summary:\n")
	for _, r := range results {
		color := "green"
		switch r.Status {
		case StatusInstallFailed, StatusCancelled:
			color = "red"
		case StatusValidationFailed:
			color = "yellow"
		}
		colorstring.Printf("  [%s]%-28s %-20s[reset] %v\n", color, r.AddonID, string(r.Status), r.Took.Round(time.Millisecond))
	}
}

func section(lg *zap.Logger, title string) {
	bar := "============================================================"
	lg.Info(bar)
	lg.Info(title)
	lg.Info(bar)
}
