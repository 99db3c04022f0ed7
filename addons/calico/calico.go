// Package calico installs Calico in policy-only mode on top of the AWS VPC
// CNI. The VPC CNI keeps doing pod networking; Calico only enforces network
// policy, so its presence is a hard prerequisite.
package calico

import (
	"github.com/eks-ops/eks-addon-installer/addon"
	"github.com/eks-ops/eks-addon-installer/helm"
	"github.com/eks-ops/eks-addon-installer/kubectl"
)

const (
	// ID identifies this add-on on the command line.
	ID = "calico"

	Namespace   = "calico-system"
	ReleaseName = "calico"

	repoName = "projectcalico"
	repoURL  = "https://docs.tigera.io/calico/charts"
	chart    = "projectcalico/tigera-operator"

	operatorDeployment = "tigera-operator"
	nodeDaemonSet      = "calico-node"
)

// New declares the installation procedure.
func New() *addon.Procedure {
	return &addon.Procedure{
		ID:          ID,
		DisplayName: "Calico Network Policy",
		Steps: []addon.Step{
			kubectl.GetJSONPathStep(
				"check aws-node daemonset present",
				"daemonset", "aws-node", "kube-system",
				"{.metadata.name}",
			),
			helm.RepoAddStep(repoName, repoURL),
			helm.RepoUpdateStep(),
			helm.UpgradeInstallStep(helm.InstallOptions{
				Release:         ReleaseName,
				Chart:           chart,
				Namespace:       Namespace,
				CreateNamespace: true,
				Values:          chartValues,
			}),
		},
		Existence: kubectl.ResourceExistsProbe("deployment", operatorDeployment, Namespace),
		Checks: []addon.Check{
			{Probe: kubectl.DeploymentReadyProbe(operatorDeployment, Namespace)},
			{Probe: kubectl.DaemonSetReadyProbe(nodeDaemonSet, Namespace)},
			// The VPC CNI must survive the Calico install untouched.
			{
				Probe:    kubectl.ResourceExistsProbe("daemonset", "aws-node", "kube-system"),
				WarnOnly: true,
			},
		},
	}
}

func chartValues(pctx *addon.Context) (map[string]interface{}, error) {
	return map[string]interface{}{
		"installation": map[string]interface{}{
			"enabled":            true,
			"kubernetesProvider": "EKS",
			"cni": map[string]interface{}{
				"type": "AmazonVPC",
			},
		},
	}, nil
}
