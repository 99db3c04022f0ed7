// Package kubectl builds kubectl CLI invocations. All cluster interaction
// goes through the external binary; no API client is used.
package kubectl

import (
	"fmt"

	"github.com/eks-ops/eks-addon-installer/addon"
	"github.com/eks-ops/eks-addon-installer/pkg/executil"
)

func baseArgs(pctx *addon.Context, args ...string) []string {
	if pctx.KubeconfigPath == "" {
		return args
	}
	return append([]string{"--kubeconfig=" + pctx.KubeconfigPath}, args...)
}

// ClusterInfoProbe checks that kubectl can reach the cluster.
func ClusterInfoProbe() addon.Probe {
	return addon.Probe{
		Name:  "kubectl cluster-info",
		Kind:  addon.ProbeSubstring,
		Token: "is running at",
		Build: func(pctx *addon.Context) (executil.Command, func(), error) {
			return executil.Command{Path: pctx.KubectlPath, Args: baseArgs(pctx, "cluster-info")}, nil, nil
		},
	}
}

// ApplyStep applies a manifest file or URL.
func ApplyStep(name, target string) addon.Step {
	return addon.Step{
		Name: name,
		Build: func(pctx *addon.Context) (executil.Command, func(), error) {
			return executil.Command{Path: pctx.KubectlPath, Args: baseArgs(pctx, "apply", "-f", target)}, nil, nil
		},
	}
}

// GetJSONPathStep queries a single resource field as a fatal step; a missing
// resource makes kubectl exit non-zero, failing the step. Used as a
// prerequisite gate (e.g. Calico requiring the aws-node daemonset).
func GetJSONPathStep(stepName, resource, name, namespace, path string) addon.Step {
	return addon.Step{
		Name: stepName,
		Build: func(pctx *addon.Context) (executil.Command, func(), error) {
			args := baseArgs(pctx, "get", resource, name, "-n", namespace, "-o", "jsonpath="+path)
			return executil.Command{Path: pctx.KubectlPath, Args: args}, nil, nil
		},
	}
}

// ResourceExistsProbe checks whether a namespaced resource exists. The probe
// succeeds with empty output when the resource is absent, so absence is a
// confirmed result, not an error.
func ResourceExistsProbe(resource, name, namespace string) addon.Probe {
	return addon.Probe{
		Name:  fmt.Sprintf("%s %s/%s exists", resource, namespace, name),
		Kind:  addon.ProbeSubstring,
		Token: name,
		Build: func(pctx *addon.Context) (executil.Command, func(), error) {
			args := baseArgs(pctx, "get", resource, name, "-n", namespace, "--ignore-not-found=true")
			return executil.Command{Path: pctx.KubectlPath, Args: args}, nil, nil
		},
	}
}

// DeploymentReadyProbe counts a deployment's ready replicas.
func DeploymentReadyProbe(name, namespace string) addon.Probe {
	return fieldCountProbe(fmt.Sprintf("deployment %s/%s ready replicas", namespace, name),
		"deployment", name, namespace, "{.status.readyReplicas}")
}

// DaemonSetReadyProbe counts a daemonset's ready pods.
func DaemonSetReadyProbe(name, namespace string) addon.Probe {
	return fieldCountProbe(fmt.Sprintf("daemonset %s/%s ready pods", namespace, name),
		"daemonset", name, namespace, "{.status.numberReady}")
}

func fieldCountProbe(probeName, resource, name, namespace, path string) addon.Probe {
	return addon.Probe{
		Name: probeName,
		Kind: addon.ProbeCount,
		Build: func(pctx *addon.Context) (executil.Command, func(), error) {
			args := baseArgs(pctx, "get", resource, name, "-n", namespace, "-o", "jsonpath="+path)
			return executil.Command{Path: pctx.KubectlPath, Args: args}, nil, nil
		},
	}
}

// CommandProbe builds a probe from raw kubectl arguments, for queries the
// typed constructors do not cover.
func CommandProbe(probeName string, kind addon.ProbeKind, token string, cliArgs ...string) addon.Probe {
	return addon.Probe{
		Name:  probeName,
		Kind:  kind,
		Token: token,
		Build: func(pctx *addon.Context) (executil.Command, func(), error) {
			return executil.Command{Path: pctx.KubectlPath, Args: baseArgs(pctx, cliArgs...)}, nil, nil
		},
	}
}
