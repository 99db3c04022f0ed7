// Package nvidiaplugin installs the NVIDIA GPU operator, which deploys the
// device plugin daemonset onto GPU worker nodes.
// ref. https://docs.aws.amazon.com/eks/latest/userguide/gpu-ami.html
package nvidiaplugin

import (
	"context"

	"go.uber.org/zap"

	"github.com/eks-ops/eks-addon-installer/addon"
	"github.com/eks-ops/eks-addon-installer/helm"
	"github.com/eks-ops/eks-addon-installer/kubectl"
)

const (
	// ID identifies this add-on on the command line.
	ID = "nvidia-device-plugin"

	Namespace   = "gpu-operator"
	ReleaseName = "gpu-operator"

	repoName = "nvidia"
	repoURL  = "https://nvidia.github.io/gpu-operator"
	chart    = "nvidia/gpu-operator"

	pluginDaemonSet = "nvidia-device-plugin-daemonset"
)

// New declares the installation procedure.
func New() *addon.Procedure {
	return &addon.Procedure{
		ID:          ID,
		DisplayName: "NVIDIA Device Plugin",
		Steps: []addon.Step{
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
		Existence: kubectl.ResourceExistsProbe("daemonset", pluginDaemonSet, Namespace),
		Checks: []addon.Check{
			{Probe: kubectl.DaemonSetReadyProbe(pluginDaemonSet, Namespace)},
			// Surfaces what the scheduler can actually allocate; empty until
			// GPU nodes join.
			{
				Probe: kubectl.CommandProbe(
					"allocatable gpu resources",
					addon.ProbeSubstring,
					"",
					"get", "nodes", "-o", `jsonpath={.items[*].status.allocatable.nvidia\.com/gpu}`,
				),
				WarnOnly: true,
			},
		},
		PostInstall: logInstanceRecommendations,
	}
}

func chartValues(pctx *addon.Context) (map[string]interface{}, error) {
	values := map[string]interface{}{
		"operator": map[string]interface{}{
			"defaultRuntime": "containerd",
		},
	}
	if pctx.EnableTimeSlicing {
		values["devicePlugin"] = map[string]interface{}{
			"config": map[string]interface{}{
				"name":    "time-slicing-config",
				"default": "any",
			},
		}
	}
	return values, nil
}

// InstanceRecommendation describes a GPU instance family suited to EKS GPU
// workloads.
type InstanceRecommendation struct {
	Family  string
	GPUs    string
	UseCase string
}

// RecommendedGPUInstances returns the GPU instance families worth
// considering for the cluster's GPU node groups.
func RecommendedGPUInstances() []InstanceRecommendation {
	return []InstanceRecommendation{
		{Family: "P3", GPUs: "1/4/8 Tesla V100", UseCase: "General ML/DL training workloads"},
		{Family: "P4", GPUs: "1/2/4/8 A100", UseCase: "High-performance ML/DL training"},
		{Family: "G4dn", GPUs: "1 T4", UseCase: "ML inference, game streaming"},
		{Family: "G5", GPUs: "1/4/8 A10G", UseCase: "Graphics rendering, game streaming, ML inference"},
	}
}

func logInstanceRecommendations(_ context.Context, env addon.Env, _ *addon.Context) error {
	for _, rec := range RecommendedGPUInstances() {
		env.Logger.Info("recommended GPU instance family",
			zap.String("family", rec.Family),
			zap.String("gpus", rec.GPUs),
			zap.String("use-case", rec.UseCase),
		)
	}
	return nil
}
