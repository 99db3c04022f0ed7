package installer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eks-ops/eks-addon-installer/addonconfig"
	"github.com/eks-ops/eks-addon-installer/pkg/executil"
)

// fakeRunner scripts responses per command line, recording every call.
type fakeRunner struct {
	calls   []string
	handler func(line string) (executil.Result, error)
}

func (f *fakeRunner) Run(ctx context.Context, cmd executil.Command) (executil.Result, error) {
	line := cmd.String()
	f.calls = append(f.calls, line)
	if err := ctx.Err(); err != nil {
		return executil.Result{}, err
	}
	return f.handler(line)
}

func (f *fakeRunner) called(fragment string) bool {
	for _, c := range f.calls {
		if strings.Contains(c, fragment) {
			return true
		}
	}
	return false
}

func testConfig(t *testing.T) *addonconfig.Config {
	t.Helper()
	cfg := addonconfig.NewDefault()
	cfg.ClusterName = "dev"
	cfg.OutputDir = t.TempDir()
	require.NoError(t, cfg.ValidateAndSetDefaults())
	return cfg
}

func TestCatalogIDsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range Catalog() {
		require.NotEmpty(t, p.ID)
		require.False(t, seen[p.ID], "duplicate id %q", p.ID)
		require.NotEmpty(t, p.Steps, "procedure %q declares no steps", p.ID)
		require.NotNil(t, p.Existence.Build, "procedure %q declares no existence probe", p.ID)
		seen[p.ID] = true
	}
}

func TestRunRejectsUnknownAddon(t *testing.T) {
	cfg := testConfig(t)
	runner := &fakeRunner{handler: func(line string) (executil.Result, error) {
		return executil.Result{ExitCode: 0}, nil
	}}
	in := NewWithRunner(cfg, zap.NewExample(), runner)

	_, err := in.Run(context.Background(), []string{"no-such-addon"})
	require.Error(t, err)
	assert.Empty(t, runner.calls, "nothing may run before validation")
}

func TestRunAbortsRemainingAddonsOnFirstInstallFailure(t *testing.T) {
	cfg := testConfig(t)
	runner := &fakeRunner{handler: func(line string) (executil.Result, error) {
		switch {
		case strings.Contains(line, "cluster-info"):
			return executil.Result{Stdout: "Kubernetes control plane is running at https://example"}, nil
		case strings.Contains(line, "version --short"):
			return executil.Result{Stdout: "v3.14.0+g1234abc"}, nil
		case strings.Contains(line, "--ignore-not-found=true"):
			return executil.Result{Stdout: ""}, nil
		case strings.Contains(line, "repo add kyverno"):
			return executil.Result{ExitCode: 1, Stderr: "Error: looks like something is broken"}, nil
		}
		return executil.Result{ExitCode: 0}, nil
	}}
	in := NewWithRunner(cfg, zap.NewExample(), runner)

	results, err := in.Run(context.Background(), []string{"kyverno", "calico"})
	require.Error(t, err)

	require.Len(t, results, 1, "the aborted add-on gets no result")
	assert.Equal(t, "kyverno", results[0].AddonID)
	assert.Equal(t, StatusInstallFailed, results[0].Status)
	assert.False(t, runner.called("repo add projectcalico"), "calico must never be attempted")
	assert.False(t, runner.called("aws-node"), "not even calico's first step may run")
}

func TestRunSkipsInstalledAddon(t *testing.T) {
	cfg := testConfig(t)
	runner := &fakeRunner{handler: func(line string) (executil.Result, error) {
		switch {
		case strings.Contains(line, "cluster-info"):
			return executil.Result{Stdout: "Kubernetes control plane is running at https://example"}, nil
		case strings.Contains(line, "version --short"):
			return executil.Result{Stdout: "v3.14.0+g1234abc"}, nil
		case strings.Contains(line, "get deployment kyverno -n kyverno --ignore-not-found=true"):
			return executil.Result{Stdout: "kyverno"}, nil
		}
		return executil.Result{ExitCode: 0}, nil
	}}
	in := NewWithRunner(cfg, zap.NewExample(), runner)

	results, err := in.Run(context.Background(), []string{"kyverno"})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, StatusAlreadyInstalled, results[0].Status)
	assert.False(t, runner.called("repo add kyverno"), "no install step may run")
}

func TestRunValidationFailureIsWarningNotError(t *testing.T) {
	cfg := testConfig(t)
	runner := &fakeRunner{handler: func(line string) (executil.Result, error) {
		switch {
		case strings.Contains(line, "cluster-info"):
			return executil.Result{Stdout: "Kubernetes control plane is running at https://example"}, nil
		case strings.Contains(line, "version --short"):
			return executil.Result{Stdout: "v3.14.0+g1234abc"}, nil
		case strings.Contains(line, "--ignore-not-found=true"):
			return executil.Result{Stdout: ""}, nil
		case strings.Contains(line, "readyReplicas"):
			return executil.Result{Stdout: ""}, nil
		case strings.Contains(line, "validatingwebhookconfiguration"):
			return executil.Result{Stdout: ""}, nil
		}
		return executil.Result{ExitCode: 0}, nil
	}}
	in := NewWithRunner(cfg, zap.NewExample(), runner)

	results, err := in.Run(context.Background(), []string{"kyverno"})
	require.NoError(t, err, "validation failures do not fail the run")

	require.Len(t, results, 1)
	assert.Equal(t, StatusValidationFailed, results[0].Status)
}

func TestRunPreservesSelectedOrder(t *testing.T) {
	cfg := testConfig(t)
	runner := &fakeRunner{handler: func(line string) (executil.Result, error) {
		switch {
		case strings.Contains(line, "cluster-info"):
			return executil.Result{Stdout: "Kubernetes control plane is running at https://example"}, nil
		case strings.Contains(line, "version --short"):
			return executil.Result{Stdout: "v3.14.0+g1234abc"}, nil
		case strings.Contains(line, "get deployment kyverno"):
			return executil.Result{Stdout: "kyverno"}, nil
		case strings.Contains(line, "get deployment tigera-operator"):
			return executil.Result{Stdout: "tigera-operator"}, nil
		}
		return executil.Result{ExitCode: 0}, nil
	}}
	in := NewWithRunner(cfg, zap.NewExample(), runner)

	// Reverse of catalog order.
	results, err := in.Run(context.Background(), []string{"calico", "kyverno"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "calico", results[0].AddonID)
	assert.Equal(t, "kyverno", results[1].AddonID)
}

func TestCheckEnvironmentFailures(t *testing.T) {
	t.Run("unreachable cluster", func(t *testing.T) {
		cfg := testConfig(t)
		runner := &fakeRunner{handler: func(line string) (executil.Result, error) {
			return executil.Result{ExitCode: 1, Stderr: "Unable to connect to the server"}, nil
		}}
		in := NewWithRunner(cfg, zap.NewExample(), runner)

		_, err := in.Run(context.Background(), []string{"kyverno"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot connect")
	})
	t.Run("helm missing", func(t *testing.T) {
		cfg := testConfig(t)
		runner := &fakeRunner{handler: func(line string) (executil.Result, error) {
			if strings.Contains(line, "cluster-info") {
				return executil.Result{Stdout: "Kubernetes control plane is running at https://example"}, nil
			}
			return executil.Result{}, &executil.LaunchError{Path: "helm", Err: context.DeadlineExceeded}
		}}
		in := NewWithRunner(cfg, zap.NewExample(), runner)

		_, err := in.Run(context.Background(), []string{"kyverno"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "helm")
	})
}
