// Package helm builds helm CLI invocations. Chart templating and
// resolution are fully delegated to the external helm binary.
package helm

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/eks-ops/eks-addon-installer/addon"
	"github.com/eks-ops/eks-addon-installer/pkg/executil"
	"github.com/eks-ops/eks-addon-installer/pkg/fileutil"
)

// VersionProbe checks that the helm binary is installed and responsive.
func VersionProbe() addon.Probe {
	return addon.Probe{
		Name: "helm version",
		Kind: addon.ProbeSubstring,
		Build: func(pctx *addon.Context) (executil.Command, func(), error) {
			return executil.Command{Path: pctx.HelmPath, Args: []string{"version", "--short"}}, nil, nil
		},
	}
}

// RepoAddStep adds a chart repository. Re-adding an existing repository is
// not an error.
func RepoAddStep(name, url string) addon.Step {
	return addon.Step{
		Name: fmt.Sprintf("helm repo add %s", name),
		Build: func(pctx *addon.Context) (executil.Command, func(), error) {
			return executil.Command{Path: pctx.HelmPath, Args: []string{"repo", "add", name, url}}, nil, nil
		},
		IgnorePatterns: []string{"already exists"},
	}
}

// RepoUpdateStep refreshes all chart repository indexes.
func RepoUpdateStep() addon.Step {
	return addon.Step{
		Name: "helm repo update",
		Build: func(pctx *addon.Context) (executil.Command, func(), error) {
			return executil.Command{Path: pctx.HelmPath, Args: []string{"repo", "update"}}, nil, nil
		},
	}
}

// InstallOptions parameterize one chart installation.
type InstallOptions struct {
	Release         string
	Chart           string
	Namespace       string
	Version         string
	CreateNamespace bool

	// Values, when set, is resolved at build time (so it can read values
	// resolved by earlier steps), marshaled to YAML, and passed to helm
	// through a generated temp file that is removed after the command runs.
	Values func(pctx *addon.Context) (map[string]interface{}, error)
}

// UpgradeInstallStep installs or upgrades a release. "helm upgrade --install"
// is idempotent on its own, so the step carries no ignore patterns.
func UpgradeInstallStep(opts InstallOptions) addon.Step {
	return addon.Step{
		Name: fmt.Sprintf("helm upgrade --install %s", opts.Release),
		Build: func(pctx *addon.Context) (executil.Command, func(), error) {
			args := []string{"upgrade", "--install", opts.Release, opts.Chart, "--namespace", opts.Namespace}
			if opts.CreateNamespace {
				args = append(args, "--create-namespace")
			}
			if opts.Version != "" {
				args = append(args, "--version", opts.Version)
			}
			var cleanup func()
			if opts.Values != nil {
				vals, err := opts.Values(pctx)
				if err != nil {
					return executil.Command{}, nil, err
				}
				d, err := yaml.Marshal(vals)
				if err != nil {
					return executil.Command{}, nil, fmt.Errorf("failed to marshal values for %q (%v)", opts.Release, err)
				}
				path, err := fileutil.WriteTempFile("helm-values", d)
				if err != nil {
					return executil.Command{}, nil, err
				}
				cleanup = func() { os.Remove(path) }
				args = append(args, "--values", path)
			}
			return executil.Command{Path: pctx.HelmPath, Args: args}, cleanup, nil
		},
	}
}

// ReleaseExistsProbe checks whether a release is listed in a namespace.
func ReleaseExistsProbe(release, namespace string) addon.Probe {
	return addon.Probe{
		Name:  fmt.Sprintf("helm release %s/%s", namespace, release),
		Kind:  addon.ProbeSubstring,
		Token: release,
		Build: func(pctx *addon.Context) (executil.Command, func(), error) {
			return executil.Command{Path: pctx.HelmPath, Args: []string{"list", "--namespace", namespace}}, nil, nil
		},
	}
}
