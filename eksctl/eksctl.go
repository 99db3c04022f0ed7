// Package eksctl builds eksctl CLI invocations for IAM wiring between the
// cluster and AWS.
package eksctl

import (
	"fmt"

	"github.com/eks-ops/eks-addon-installer/addon"
	"github.com/eks-ops/eks-addon-installer/pkg/executil"
)

// AssociateOIDCProviderStep associates the cluster's IAM OIDC provider,
// a prerequisite for IAM roles for service accounts.
func AssociateOIDCProviderStep() addon.Step {
	return addon.Step{
		Name: "eksctl associate-iam-oidc-provider",
		Build: func(pctx *addon.Context) (executil.Command, func(), error) {
			args := []string{
				"utils", "associate-iam-oidc-provider",
				"--region", pctx.Region,
				"--cluster", pctx.ClusterName,
				"--approve",
			}
			return executil.Command{Path: pctx.EksctlPath, Args: args}, nil, nil
		},
		IgnorePatterns: []string{"already exists", "already associated"},
	}
}

// CreateIAMServiceAccountStep creates an IAM-backed service account. The
// policy ARN is resolved at build time so it can embed values resolved by
// earlier steps (account id).
func CreateIAMServiceAccountStep(namespace, name string, policyARN func(pctx *addon.Context) (string, error)) addon.Step {
	return addon.Step{
		Name: fmt.Sprintf("eksctl create iamserviceaccount %s/%s", namespace, name),
		Build: func(pctx *addon.Context) (executil.Command, func(), error) {
			arn, err := policyARN(pctx)
			if err != nil {
				return executil.Command{}, nil, err
			}
			args := []string{
				"create", "iamserviceaccount",
				"--region", pctx.Region,
				"--cluster", pctx.ClusterName,
				"--namespace", namespace,
				"--name", name,
				"--attach-policy-arn", arn,
				"--override-existing-serviceaccounts",
				"--approve",
			}
			return executil.Command{Path: pctx.EksctlPath, Args: args}, nil, nil
		},
		IgnorePatterns: []string{"already exists"},
	}
}

// CreateIAMIdentityMappingStep maps an IAM role into the cluster's aws-auth
// configuration.
func CreateIAMIdentityMappingStep(roleARN func(pctx *addon.Context) (string, error), username string, groups []string) addon.Step {
	return addon.Step{
		Name: "eksctl create iamidentitymapping",
		Build: func(pctx *addon.Context) (executil.Command, func(), error) {
			arn, err := roleARN(pctx)
			if err != nil {
				return executil.Command{}, nil, err
			}
			args := []string{
				"create", "iamidentitymapping",
				"--cluster", pctx.ClusterName,
				"--region", pctx.Region,
				"--arn", arn,
				"--username", username,
			}
			for _, g := range groups {
				args = append(args, "--group", g)
			}
			return executil.Command{Path: pctx.EksctlPath, Args: args}, nil, nil
		},
		IgnorePatterns: []string{"already exists", "InvalidUserType"},
	}
}
