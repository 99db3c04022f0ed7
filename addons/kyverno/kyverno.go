// Package kyverno installs the Kyverno policy engine.
package kyverno

import (
	"github.com/eks-ops/eks-addon-installer/addon"
	"github.com/eks-ops/eks-addon-installer/helm"
	"github.com/eks-ops/eks-addon-installer/kubectl"
)

const (
	// ID identifies this add-on on the command line.
	ID = "kyverno"

	Namespace   = "kyverno"
	ReleaseName = "kyverno"

	repoName = "kyverno"
	repoURL  = "https://kyverno.github.io/kyverno/"
	chart    = "kyverno/kyverno"
)

// New declares the installation procedure.
func New() *addon.Procedure {
	return &addon.Procedure{
		ID:          ID,
		DisplayName: "Kyverno",
		Steps: []addon.Step{
			helm.RepoAddStep(repoName, repoURL),
			helm.RepoUpdateStep(),
			helm.UpgradeInstallStep(helm.InstallOptions{
				Release:         ReleaseName,
				Chart:           chart,
				Namespace:       Namespace,
				CreateNamespace: true,
			}),
		},
		Existence: kubectl.ResourceExistsProbe("deployment", ReleaseName, Namespace),
		Checks: []addon.Check{
			{Probe: kubectl.DeploymentReadyProbe(ReleaseName, Namespace)},
			// Admission enforcement needs the webhook configurations that the
			// controller registers once it is up.
			{Probe: kubectl.CommandProbe(
				"kyverno webhook configurations",
				addon.ProbeSubstring,
				"kyverno",
				"get", "validatingwebhookconfiguration", "-o", "jsonpath={.items[*].metadata.name}",
			)},
		},
	}
}
